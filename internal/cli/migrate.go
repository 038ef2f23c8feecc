package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trackforge/s2s/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cleanup, err := ensureDatabase()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := database.Migrate(); err != nil {
			return err
		}
		fmt.Println("Migrations applied.")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
}
