package main

import (
	"github.com/spf13/cobra"

	"github.com/ignite/list-subscriptions/internal/config"
	"github.com/ignite/list-subscriptions/internal/mailchimp"
	"github.com/ignite/list-subscriptions/internal/pkg/logger"
	"github.com/ignite/list-subscriptions/internal/service/subscription"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

// loadService builds the subscription service from configuration.
func (o *rootOptions) loadService() (*subscription.Service, error) {
	cfg, err := config.LoadFromEnv(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.ShouldRedact()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return subscription.NewService(mailchimp.NewClient(cfg.MailChimp)), nil
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "listctl",
		Short:         "Inspect and change mailing-list subscriptions",
		Long:          "listctl talks to the mailing-list API with the same configuration as the server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "config/config.yaml", "Path to the config file (missing file means env only)")

	rootCmd.AddCommand(newListsCommand(opts))
	rootCmd.AddCommand(newSubscribeCommand(opts))
	rootCmd.AddCommand(newUnsubscribeCommand(opts))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}
