package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/lifecriteria/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print or validate the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("write")
			if out != "" {
				if err := cfg.WriteYAML(out); err != nil {
					return err
				}
				fmt.Printf("config written to %s\n", out)
				return nil
			}
			text, err := cfg.YAML()
			if err != nil {
				return err
			}
			fmt.Print(text)
			return nil
		},
	}
	cmd.Flags().String("write", "", "Write the effective config to this file instead of stdout")
	return cmd
}

// loadConfig loads --config over the defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
