package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satriahrh/shg-assistant/usecase"
)

var askFallback bool

var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Ask the assistant a single question",
	Example: `  shg-assistant ask "How do SHG loans work?"
  shg-assistant ask --fallback what is a self help group`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if askFallback {
			cfg.Mode = usecase.FallbackMode
		}

		answer := newGateway(cfg).Answer(cmd.Context(), strings.Join(args, " "))
		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&askFallback, "fallback", false, "answer from the built-in catalog only")
}
