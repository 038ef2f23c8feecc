package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trackforge/s2s/internal/selfupdate"
)

var updateCheckOnly bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update s2s to the latest release",
	Long: `Check GitHub releases for a newer version and replace the running
binary in place.

Examples:
  s2s update --check
  s2s update`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpdate()
	},
}

func runUpdate() error {
	if updateCheckOnly {
		status, err := selfupdate.Check(Version)
		if err != nil {
			return err
		}
		if status.UpToDate {
			fmt.Printf("s2s %s is up to date.\n", status.Current)
			return nil
		}
		fmt.Printf("Update available: %s -> %s\n", status.Current, status.Latest)
		fmt.Println("Run 's2s update' to apply.")
		return nil
	}

	status, err := selfupdate.Apply(Version)
	if err != nil {
		return err
	}
	if status.UpToDate {
		fmt.Printf("s2s %s is already the latest version.\n", status.Current)
		return nil
	}

	fmt.Printf("Updated to %s\n", status.Latest)
	if status.ReleaseNotes != "" {
		fmt.Println()
		fmt.Println(status.ReleaseNotes)
	}
	return nil
}

func init() {
	updateCmd.Flags().BoolVar(&updateCheckOnly, "check", false, "Only check for a newer version")
	RootCmd.AddCommand(updateCmd)
}
