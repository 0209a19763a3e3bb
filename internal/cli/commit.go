package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FabienTschanz/DSCParser/internal/writer"
)

// CommitCmd applies writes previously staged by render --stage.
func CommitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Apply staged document writes",
		Long: `Commit replays every write recorded under ` + writer.StagingDir + `/ and then
removes the staging directory. A target that changed since it was staged
aborts the commit so a stale rendering cannot clobber newer edits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			output := writer.NewCommitOutput()
			if err := output.Apply(); err != nil {
				summary := output.Summary()
				if summary != "No changes were applied." {
					fmt.Fprint(cmd.OutOrStdout(), summary)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s staged writes applied\n%s", green("✓"), output.Summary())
			return nil
		},
	}
	return cmd
}
