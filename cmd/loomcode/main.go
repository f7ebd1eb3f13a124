// Package main provides the loomcode CLI entry point: a thin demonstration
// harness over the adapter core (descriptor → config → wire → transport →
// llm), exercising it the way the assistant's chat loop would.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/loomcode/loomcode/canonical"
	"github.com/loomcode/loomcode/config"
	"github.com/loomcode/loomcode/descriptor"
	"github.com/loomcode/loomcode/llm"
)

var (
	settingsPath string
	verbose      bool
)

func main() {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "loomcode",
		Short: "Multi-provider LLM adapter core demo",
	}
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "settings.json", "path to the persisted settings file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(streamCmd())
	rootCmd.AddCommand(modelsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildLogger() zerolog.Logger {
	logger := log.Logger
	if verbose {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}
	return logger
}

// currentGenerator reads the settings file, resolves the currently
// selected provider record, and builds the generator for it.
func currentGenerator(logger zerolog.Logger) (llm.Generator, *config.Settings, error) {
	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading settings: %w", err)
	}
	if !settings.UsesCustomProvider() {
		return nil, nil, fmt.Errorf("selectedAuthType %q is not %q; nothing for this core to do", settings.SelectedAuthType, config.AuthTypeCustomProvider)
	}

	record, err := settings.CurrentRecord()
	if err != nil {
		return nil, nil, err
	}
	if err := settings.ValidateCurrentModel(record); err != nil {
		return nil, nil, err
	}

	gen, err := llm.MakeAdapter(descriptor.DefaultLoader(), record, logger)
	if err != nil {
		return nil, nil, err
	}
	return gen, settings, nil
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat [message]",
		Short: "Send one message and print the full response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := buildLogger()
			gen, settings, err := currentGenerator(logger)
			if err != nil {
				return err
			}

			req := &canonical.Request{
				Model: settings.CurrentModel,
				Contents: []canonical.Content{
					{Role: canonical.RoleUser, Parts: []canonical.Part{canonical.TextPart{Text: args[0]}}},
				},
			}

			promptID := uuid.NewString()
			resp, err := gen.GenerateContent(context.Background(), req, promptID)
			if err != nil {
				return err
			}

			for _, part := range resp.Content.Parts {
				switch p := part.(type) {
				case canonical.TextPart:
					fmt.Println(p.Text)
				case canonical.ToolCallPart:
					fmt.Printf("[tool call] %s(%v)\n", p.Name, p.Args)
				}
			}
			fmt.Fprintf(os.Stderr, "finishReason=%s usage=%+v promptId=%s\n", resp.FinishReason, resp.Usage, promptID)
			return nil
		},
	}
}

func streamCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stream [message]",
		Short: "Send one message and print the response as it streams",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := buildLogger()
			gen, settings, err := currentGenerator(logger)
			if err != nil {
				return err
			}

			req := &canonical.Request{
				Model: settings.CurrentModel,
				Contents: []canonical.Content{
					{Role: canonical.RoleUser, Parts: []canonical.Part{canonical.TextPart{Text: args[0]}}},
				},
			}

			promptID := uuid.NewString()
			chunks, errs := gen.GenerateContentStream(context.Background(), req, promptID)
			for chunk := range chunks {
				for _, part := range chunk.Parts {
					if tp, ok := part.(canonical.TextPart); ok {
						fmt.Print(tp.Text)
					}
				}
			}
			fmt.Println()
			if err := <-errs; err != nil {
				return err
			}
			return nil
		},
	}
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the enabled models for the current provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadSettings(settingsPath)
			if err != nil {
				return err
			}
			record, err := settings.CurrentRecord()
			if err != nil {
				return err
			}

			d, err := descriptor.DefaultLoader().Load(record.AdapterType)
			if err != nil {
				return err
			}

			for _, modelID := range record.Models {
				resolved, err := config.ResolveModelConfig(d, record, modelID)
				if err != nil {
					return err
				}
				marker := "  "
				if modelID == record.DefaultModel() {
					marker = "* "
				}
				if resolved == nil {
					fmt.Printf("%s%s (no descriptor or override entry)\n", marker, modelID)
					continue
				}
				fmt.Printf("%s%s - %s (context %d, max output %d)\n", marker, modelID, resolved.DisplayName, resolved.ContextWindow, resolved.MaxOutputTokens)
			}
			return nil
		},
	}
}
