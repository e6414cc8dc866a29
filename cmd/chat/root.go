package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"amlchat/internal/app"
	"amlchat/internal/config"
	"amlchat/internal/contextutil"
)

type rootOptions struct {
	envFile     string
	endpointURI string
	apiKey      string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "chat",
		Short:        "Chat with a model hosted on a managed online endpoint",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Env file to load instead of searching for .env.")
	cmd.PersistentFlags().StringVar(&opts.endpointURI, "endpoint", "", "Scoring URI (default $"+config.EndpointURIEnv+").")
	cmd.PersistentFlags().StringVar(&opts.apiKey, "api-key", "", "Endpoint key (default $"+config.APIKeyEnv+").")

	cmd.AddCommand(newSendCmd(opts))
	cmd.AddCommand(newHistoryCmd(opts))

	return cmd
}

// open loads configuration and wires the chat target. Logs go to stderr so
// stdout carries only command output.
func (o *rootOptions) open(cmd *cobra.Command) (context.Context, *app.App, error) {
	var (
		cfg *config.Config
		err error
	)
	if strings.TrimSpace(o.envFile) != "" {
		cfg, err = config.LoadFile(o.envFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	target, err := config.ResolveTarget(config.TargetOptions{
		EndpointURI: o.endpointURI,
		APIKey:      o.apiKey,
	})
	if err != nil {
		return nil, nil, err
	}

	logger := app.NewLogger(cmd.ErrOrStderr(), cfg)
	ctx := contextutil.WithLogger(cmd.Context(), logger)

	a, err := app.New(ctx, cfg, target)
	if err != nil {
		return nil, nil, err
	}
	return ctx, a, nil
}
