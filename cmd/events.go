/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/taskman-io/apiserver/config"
	"github.com/taskman-io/apiserver/internal/events"
	"github.com/taskman-io/apiserver/internal/mq"
)

// eventsCmd tails the task event stream from the configured broker and
// prints one event per line. Useful for debugging consumers.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Tail the task event stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		var broker mq.Broker
		var err error
		switch cfg.Events.Backend {
		case config.EventsBackendRabbitMQ:
			broker, err = mq.NewRabbitMQBroker(cfg.RabbitMQ)
		case config.EventsBackendPubSub:
			broker, err = mq.NewPubSubBroker(cmd.Context(), cfg.PubSub)
		case "":
			return errors.New("EVENTS_BACKEND is not configured")
		default:
			return fmt.Errorf("unknown events backend %q", cfg.Events.Backend)
		}
		if err != nil {
			return err
		}
		defer broker.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = broker.Subscribe(ctx, events.Channel, func(ctx context.Context, msg mq.Message) error {
			var event events.TaskEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				fmt.Printf("malformed event %s: %v\n", msg.ID, err)
				return nil
			}
			fmt.Printf("%s type=%s task_id=%d user_id=%d status=%s\n",
				event.At.Format("2006-01-02T15:04:05Z07:00"),
				event.Type, event.TaskID, event.UserID, event.Status)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}
