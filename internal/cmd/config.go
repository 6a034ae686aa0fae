package cmd

import (
	"github.com/spf13/cobra"

	"github.com/atikulmunna/threadline/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the threadline configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file with the default settings",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ".threadline.yaml"
		if len(args) > 0 {
			path = args[0]
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		logger.Infow("wrote config", "path", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
