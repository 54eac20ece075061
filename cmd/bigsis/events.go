package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bigsis-chat/internal/pkg/logger"
	"bigsis-chat/pkg/events"
	pktNats "bigsis-chat/pkg/nats"

	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events [type]",
	Short: "Follow conversation events mirrored to NATS",
	Long: `Prints events published by chat sessions running with NATS_URL set,
for example TURN_FINALIZED, DIAGNOSTIC_SAVED or LEARNING_TRIGGERED.
Without a type, every event is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEvents,
}

func runEvents(cmd *cobra.Command, args []string) error {
	if cfg.App.NatsURL == "" {
		return errors.New("NATS_URL is not set")
	}
	eventType := ""
	if len(args) == 1 {
		eventType = args[0]
	}

	sysLogger := logger.NewIsolatedLogger(cfg.App.LogFilePath, cfg.App.Debug)
	defer sysLogger.Sync()

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
	if err != nil {
		return err
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	return sub.Tail(ctx, eventType, func(_ context.Context, ev events.Event) error {
		data, err := json.Marshal(ev.Payload())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %-20s %s\n", ev.Timestamp().Format("15:04:05"), ev.EventType(), data)
		return nil
	})
}
