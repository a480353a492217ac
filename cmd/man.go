package cmd

import (
	"fmt"
	"os"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

func newManCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:                   "man",
		Short:                 "Generate the calctutor man page",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Hidden:                true,
		Args:                  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			page, err := mcobra.NewManPage(1, root)
			if err != nil {
				return fmt.Errorf("build man page: %w", err)
			}
			if _, err := fmt.Fprint(os.Stdout, page.Build(roff.NewDocument())); err != nil {
				return fmt.Errorf("write man page: %w", err)
			}
			return nil
		},
	}
}
