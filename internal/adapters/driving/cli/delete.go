package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var deleteAll bool

var deleteCmd = &cobra.Command{
	Use:   "delete [job-id]",
	Short: "Delete a job, or every job with --all",
	Long: `Deletes a job on the processing service and forgets it locally.

With --all, every job the service lists is deleted one by one. Failures are
counted and reported; they do not stop the remaining deletions.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVar(&deleteAll, "all", false, "delete every job")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	if jobService == nil {
		return errors.New("job service not configured")
	}

	switch {
	case deleteAll && len(args) > 0:
		return errors.New("pass a job ID or --all, not both")
	case deleteAll:
		return runDeleteAll(cmd)
	case len(args) == 0:
		return errors.New("a job ID is required (or --all)")
	}

	id := args[0]
	if err := jobService.Delete(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	cmd.Printf("Job %s deleted.\n", id)
	return nil
}

func runDeleteAll(cmd *cobra.Command) error {
	summary, err := jobService.DeleteAll(cmd.Context())
	if summary == nil {
		return fmt.Errorf("failed to delete jobs: %w", err)
	}
	if err != nil {
		// Listing failed; only jobs known locally were deleted.
		cmd.Printf("Warning: %v\n", err)
	}

	cmd.Println(summary.Message())

	ids := make([]string, 0, len(summary.Errors))
	for id := range summary.Errors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		cmd.Printf("  %s: %v\n", id, summary.Errors[id])
	}
	return nil
}
