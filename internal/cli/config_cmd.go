package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ticketsmith/ticketsmith/internal/config"
)

var configFile string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Validate and inspect the configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for problems",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		problems := config.Validate(cfg)
		if len(problems) == 0 {
			cmd.Println("Configuration OK.")
			return nil
		}

		cmd.Printf("Found %d problem(s):\n", len(problems))
		for _, p := range problems {
			cmd.Printf("  %-22s %s\n", p.Field, p.Message)
		}
		return errors.New("configuration is invalid")
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		redactConfig(cfg)
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}

		cmd.Print(string(out))
		return nil
	},
}

func loadConfig() (*config.Config, error) {
	if configFile == "" {
		return config.LoadDefault()
	}
	return config.Load(configFile)
}

// redactConfig masks credentials so show output is safe to paste.
func redactConfig(cfg *config.Config) {
	mask := func(s *string) {
		if *s != "" {
			*s = "********"
		}
	}
	mask(&cfg.Jira.APIToken)
	mask(&cfg.GitHub.Token)
	mask(&cfg.Generator.APIKey)
	mask(&cfg.Notify.Password)
	mask(&cfg.Database.DSN)
}

func init() {
	configCmd.PersistentFlags().StringVarP(&configFile, "file", "f", "", "path to configuration file")
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}
