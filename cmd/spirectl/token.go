package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bugout-dev/spire/pkg/config"
	"github.com/bugout-dev/spire/pkg/identity"
)

// tokenCmd represents the token command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage access tokens",
	Long:  `Manage access tokens.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'token' requires a subcommand (issue)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

// tokenIssueCmd represents the token issue command
var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue an access token for a user",
	Long: `Issue an access token for a user, signed with the configured signing key.

Group membership is baked into the token at issue time, so tokens issued
before a group change keep their old membership until they expire.

Example:
  spirectl token issue --user alice
  spirectl token issue --user alice --groups ops,oncall --ttl 3600`,
	Run: func(cmd *cobra.Command, args []string) {
		userID, _ := cmd.Flags().GetString("user")
		groups, _ := cmd.Flags().GetStringSlice("groups")
		ttl, _ := cmd.Flags().GetInt("ttl")

		if userID == "" {
			fmt.Fprintln(os.Stderr, "--user is required")
			os.Exit(1)
		}

		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		if cfg.TokenSigningKey == "" {
			fmt.Fprintln(os.Stderr, "SPIRE_TOKEN_SIGNING_KEY environment variable is required")
			os.Exit(1)
		}

		lifetime := cfg.AccessTokenTTL()
		if ttl > 0 {
			lifetime = time.Duration(ttl) * time.Second
		}

		token, err := identity.IssueToken(userID, groups, []byte(cfg.TokenSigningKey), lifetime)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(token)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenIssueCmd)

	tokenIssueCmd.Flags().StringP("user", "u", "", "User ID the token identifies")
	tokenIssueCmd.Flags().StringSliceP("groups", "g", nil, "Comma-separated group IDs")
	tokenIssueCmd.Flags().Int("ttl", 0, "Token lifetime in seconds (default: configured token_ttl)")
}
