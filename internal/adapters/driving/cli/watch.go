package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docflow/internal/adapters/driven/localfs"
	"github.com/custodia-labs/docflow/internal/core/domain"
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Submit documents as they appear in a directory",
	Long: `Watches a directory and submits every PDF or DOCX file created or written in
it. Files arriving together are submitted as one batch once the directory
has been quiet for the debounce period (watch.debounce_ms).

Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if jobService == nil {
		return errors.New("job service not configured")
	}

	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	debounce := domain.DefaultClientSettings().Watch.Debounce
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			debounce = settings.Watch.Debounce
		}
	}

	ctx := cmd.Context()
	tracker := newBatchTracker(jobService.List(), nil)
	stopProgress := watchProgress(ctx, cmd, jobService, tracker)
	defer stopProgress()

	submit := func(ctx context.Context, files []domain.FileUpload) {
		tracker.add(files)
		cmd.Printf("Submitting %d file(s)\n", len(files))

		result, err := jobService.SubmitBatch(ctx, files)
		if err != nil {
			cmd.Printf("Submit failed: %v\n", err)
			return
		}
		for _, rejected := range result.Rejected {
			cmd.Printf("Rejected: %s\n", rejected.Error())
		}
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)
	return localfs.NewWatcher(dir, debounce, submit).Run(ctx)
}
