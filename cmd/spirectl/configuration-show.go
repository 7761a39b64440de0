package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bugout-dev/spire/pkg/config"
)

// configurationShowCmd represents the configuration show command
var configurationShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show Spire configuration attributes and their sources",
	Long: `Show Spire configuration attributes and their sources.

The values displayed by this command reflect the current state of the
configuration sources. For example, the environment variables and config
file. These may not reflect the current values used by a running Spire
server.

Config file location: /etc/spire/config/spire.yml (or SPIRE_CONFIG_PATH)

Example:
  spirectl configuration show
  spirectl configuration show --output json`,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")

		if err := showConfiguration(output); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to show configuration: %v\n", err)
			os.Exit(1)
		}
	},
}

// configurationTestCmd represents the configuration test command
var configurationTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Validate the current configuration",
	Long: `Validate the current state of the configuration file and environment.

A running server picks up config file changes on its own, so there is no
restart step. This command only reports whether the configuration would be
accepted.

Example:
  spirectl configuration test`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := testConfiguration(); err != nil {
			fmt.Fprintf(os.Stderr, "Configuration is invalid: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Configuration is valid.")
	},
}

func init() {
	configurationCmd.AddCommand(configurationShowCmd)
	configurationCmd.AddCommand(configurationTestCmd)
	configurationShowCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
}

func showConfiguration(output string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if output == "json" {
		jsonOutput, err := cfg.FormatJSON()
		if err != nil {
			return err
		}
		fmt.Println(jsonOutput)
		return nil
	}

	fmt.Print(cfg.FormatText())
	return nil
}

func testConfiguration() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	fmt.Printf("Config file: %s\n", cfg.ConfigFilePath())

	if err := cfg.Validate(); err != nil {
		return err
	}

	if os.Getenv("DATABASE_URL") == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	if cfg.TokenSigningKey == "" {
		return fmt.Errorf("SPIRE_TOKEN_SIGNING_KEY is not set")
	}
	return nil
}
