package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edgeops/sensorctl/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the loader configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file with documented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		if err := config.WriteTemplate(path); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
