package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "Inspect enrolled students",
}

var studentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List students and their threads",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		list, err := s.Students().List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list students: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No students enrolled yet.")
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-24s  %-32s  %s\n", "ID", "Name", "Thread", "Enrolled")
		fmt.Fprintln(out, strings.Repeat("─", 84))
		for _, st := range list {
			fmt.Fprintf(out, "%-5d  %-24s  %-32s  %s\n",
				st.ID,
				truncate(st.Name, 24),
				st.ThreadID,
				st.CreatedAt.Local().Format("2006-01-02 15:04"),
			)
		}
		return nil
	},
}

func init() {
	studentsCmd.AddCommand(studentsListCmd)
}
