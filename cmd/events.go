/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jjudge-oj/roster/config"
	"github.com/jjudge-oj/roster/internal/logger"
	"github.com/jjudge-oj/roster/internal/mq"
	"github.com/jjudge-oj/roster/internal/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// eventsCmd tails user.created events from the configured queue.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Log user.created events from the message queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		log, err := logger.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("build logger failed: %w", err)
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		queue, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if queue == nil {
			return errors.New("MQ_BACKEND is not set")
		}
		defer func() { _ = queue.Close() }()

		log.Info("subscribed", zap.String("channel", cfg.MQ.UserCreatedChannel))
		err = queue.Subscribe(ctx, cfg.MQ.UserCreatedChannel, logUserCreated(log))
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func logUserCreated(log *zap.Logger) mq.Handler {
	return func(ctx context.Context, msg mq.Message) error {
		event, err := services.DecodeUserCreated(msg)
		if err != nil {
			// Undecodable payloads are dropped, not redelivered.
			log.Warn("invalid user.created payload", zap.String("message_id", msg.ID), zap.Error(err))
			return nil
		}
		fields := []zap.Field{
			zap.String("message_id", msg.ID),
			zap.Int64("id", event.ID),
			zap.String("name", event.Name),
			zap.String("email", event.Email),
			zap.Time("created_at", event.CreatedAt),
		}
		if event.PhotoURL != nil {
			fields = append(fields, zap.String("photo_url", *event.PhotoURL))
		}
		log.Info("user created", fields...)
		return nil
	}
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}
