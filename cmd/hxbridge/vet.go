package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm/hxbridge/lib/contract"
)

var vetCmd = &cobra.Command{
	Use:   "vet [packages]",
	Short: "Report surface behaviors that break the hook contract",
	Long: `Report types that declare ComponentType without OnComponentUpdate,
and hook methods with the wrong number of parameters.

Packages are directories; a trailing /... walks the tree. Defaults to ./...`,
	Example: `  hxbridge vet
  hxbridge vet ./widgets`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"./..."}
		}
		findings, err := contract.New().Check(args...)
		if err != nil {
			return err
		}
		for _, f := range findings {
			fmt.Fprintln(cmd.OutOrStdout(), f)
		}
		if len(findings) > 0 {
			return fmt.Errorf("%d contract problem(s)", len(findings))
		}
		return nil
	},
}
