package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"intent-engine/internal/app"
	"intent-engine/internal/common/config"
	"intent-engine/internal/common/logger"
	"intent-engine/internal/engine/conversation"
	"intent-engine/internal/engine/resolver"
	"intent-engine/internal/models"
)

var (
	configPath  string
	userID      string
	logLevel    string
	asJSON      bool
	fixturePath string
)

var rootCmd = &cobra.Command{
	Use:   "intent-probe",
	Short: "Resolve questions against the intent engine locally",
	Long: `intent-probe builds the same engine the worker manager runs, from the same
configuration, and prints what it decides for each question: the intent, the
extracted parameters, follow-up filters and the tier trace.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: configs/config.yaml lookup)")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "probe", "conversation user id")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "engine log level")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print results as JSON")
	rootCmd.PersistentFlags().StringVar(&fixturePath, "fixture", "", "JSON handler result returned for every dispatched data intent")

	rootCmd.AddCommand(resolveCmd, chatCmd, vocabularyCmd)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// buildComponents wires the engine and performs one synchronous vocabulary and
// keyword load so a single question sees the same state a warm worker would.
func buildComponents(ctx context.Context) (*app.Components, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	var dispatcher resolver.Dispatcher
	if fixturePath != "" {
		fixture, err := loadFixture(fixturePath)
		if err != nil {
			return nil, err
		}
		dispatcher = fixtureDispatcher(fixture)
	}

	comp, err := app.Build(ctx, cfg, logger.NewStructured(logLevel, "console"), app.Options{Dispatcher: dispatcher})
	if err != nil {
		return nil, err
	}
	comp.Warm(ctx)
	return comp, nil
}

func loadFixture(path string) (*models.HandlerResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var result models.HandlerResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &result, nil
}

// fixtureDispatcher answers every data intent with a copy of result.
func fixtureDispatcher(result *models.HandlerResult) resolver.Dispatcher {
	return resolver.DispatcherFunc(func(_ context.Context, _ *resolver.ResolvedQuery, _ conversation.Context) (*models.HandlerResult, error) {
		out := result.Clone()
		return &out, nil
	})
}
