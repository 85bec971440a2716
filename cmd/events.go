package main

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"resume-analyzer/config"
	"resume-analyzer/domain"
	"resume-analyzer/infrastructure"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print analysis status events from the queue as JSON lines",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return tailEvents(cmd)
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}

func tailEvents(cmd *cobra.Command) error {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	url := strings.TrimSpace(cfg.Events.RabbitMQURL)
	if url == "" {
		return errors.New("events.rabbitmq-url is not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mq, err := infrastructure.NewRabbitMQ(url, cfg.Events.Queue, logger)
	if err != nil {
		return err
	}
	defer mq.Close()

	out := json.NewEncoder(cmd.OutOrStdout())
	return mq.Consume(ctx, func(event domain.StatusEvent) {
		if err := out.Encode(event); err != nil {
			logger.Warn("writing event", zap.Error(err))
		}
	})
}
