package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/satriahrh/shg-assistant/adapters/hasher"
	"github.com/satriahrh/shg-assistant/adapters/llm"
	"github.com/satriahrh/shg-assistant/config"
	"github.com/satriahrh/shg-assistant/usecase"
	"github.com/satriahrh/shg-assistant/utils/log"
)

var rootCmd = &cobra.Command{
	Use:   "shg-assistant",
	Short: "Chat assistant for the SHG Digital Platform",
	Long: `Chat assistant for the National Self Help Group (SHG) Digital Platform.

Answers questions with Gemini when GEMINI_API_KEY is set and falls back to
a built-in catalog of answers otherwise. Settings are read from the
environment and from a .env file in the working directory.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
}

// loadConfig reads settings and applies the DEBUG setting to the logger.
func loadConfig(files ...string) (config.Config, error) {
	cfg, err := config.Load(files...)
	if err != nil {
		return config.Config{}, err
	}
	log.Configure(cfg.Debug)
	return cfg, nil
}

// newGateway wires the assistant from cfg.
func newGateway(cfg config.Config) *usecase.Gateway {
	return usecase.NewGateway(
		usecase.GatewayConfig{Mode: cfg.Mode},
		llm.NewGeminiClient(cfg.Gemini),
		usecase.NewFallbackResponder(nil),
		hasher.New(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
