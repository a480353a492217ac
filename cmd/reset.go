package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/calctutor/internal/store"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the local database (students, assistants, events)",
	Long: "Removes the SQLite database file. Remote threads and assistants are not\n" +
		"deleted. PostgreSQL databases must be reset by their owner.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		dsn, err := resolveDBPath(cfg)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		if store.IsPostgresDSN(dsn) {
			return errors.New("reset only supports SQLite databases")
		}

		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			fmt.Fprintf(cmd.OutOrStdout(), "This deletes %s. Re-run with --yes to confirm.\n", dsn)
			return nil
		}

		removed := 0
		for _, p := range []string{dsn, dsn + "-wal", dsn + "-shm"} {
			err := os.Remove(p)
			switch {
			case err == nil:
				removed++
			case errors.Is(err, os.ErrNotExist):
			default:
				return fmt.Errorf("remove %s: %w", p, err)
			}
		}
		if removed == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to reset.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", dsn)
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm deletion")
}
