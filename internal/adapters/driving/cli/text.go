package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/logger"
)

var textCmd = &cobra.Command{
	Use:   "text [job-id]",
	Short: "Print the extracted text of a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runText,
}

var downloadCmd = &cobra.Command{
	Use:   "download [job-id]",
	Short: "Download the original file or the converted PDF",
	Long: `Downloads the file as it was uploaded. With --converted, downloads the PDF
the service produced from a DOCX upload.`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

var (
	downloadOutput    string
	downloadConverted bool
)

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output path (default: the job's file name)")
	downloadCmd.Flags().BoolVar(&downloadConverted, "converted", false, "download the converted PDF")
	rootCmd.AddCommand(textCmd)
	rootCmd.AddCommand(downloadCmd)
}

func runText(cmd *cobra.Command, args []string) error {
	if jobService == nil {
		return errors.New("job service not configured")
	}

	text, err := jobService.FetchText(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get job text: %w", err)
	}

	cmd.Println(text)
	return nil
}

func runDownload(cmd *cobra.Command, args []string) error {
	if jobService == nil {
		return errors.New("job service not configured")
	}

	id := args[0]
	ctx := cmd.Context()

	// The registry starts empty; load it so the job's name and converted
	// flag are known.
	if err := jobService.Refresh(ctx); err != nil {
		logger.Warn("download: %v", err)
	}

	kind := domain.ArtifactOriginal
	if downloadConverted {
		kind = domain.ArtifactConverted
	}

	path := downloadOutput
	if path == "" {
		path = defaultDownloadName(id, kind)
	}

	body, err := jobService.FetchArtifact(ctx, id, kind)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer body.Close()

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	n, err := io.Copy(out, body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	cmd.Printf("Saved %s to %s\n", humanize.Bytes(uint64(n)), path)
	return nil
}

// defaultDownloadName derives the output file name from the job's display
// name, or from its ID when the job is unknown locally.
func defaultDownloadName(id string, kind domain.ArtifactKind) string {
	name := id
	for _, job := range jobService.List() {
		if job.ID == id && job.DisplayName != "" {
			name = filepath.Base(job.DisplayName)
			break
		}
	}

	if kind == domain.ArtifactConverted {
		return strings.TrimSuffix(name, filepath.Ext(name)) + ".pdf"
	}
	return name
}
