package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List jobs",
	Long:    `Loads the job list from the processing service and prints it.`,
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output jobs as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	if jobService == nil {
		return errors.New("job service not configured")
	}

	if err := jobService.Refresh(cmd.Context()); err != nil {
		return err
	}
	jobs := jobService.List()

	if listJSON {
		return outputJobsJSON(cmd, jobs)
	}

	if len(jobs) == 0 {
		cmd.Println("No jobs found.")
		return nil
	}

	outputJobTable(cmd, jobs)
	cmd.Printf("\nTotal: %d jobs\n", len(jobs))
	return nil
}
