package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/hxbridge/internal/config"
)

var initFlags struct {
	force bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default " + config.DefaultPath,
	Long: `Write the default configuration to ` + config.DefaultPath + ` in the current
directory. The key is never written; pass it with HXBRIDGE_KEY instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(config.DefaultPath); err == nil && !initFlags.force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", config.DefaultPath)
		}
		if err := config.Write(config.DefaultPath, config.Default()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", config.DefaultPath)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initFlags.force, "force", "f", false, "overwrite an existing config")
}
