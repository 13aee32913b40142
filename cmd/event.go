package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/casetrack/internal/broker"
	"github.com/frahmantamala/casetrack/internal/core/events"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish auth events by hand to check the audit pipeline`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test auth event",
	Long:  `Publish a test auth event on the in-process bus, and to the broker when it is enabled`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(cmd.Context(), args[0])
	},
}

var (
	eventLoginCode string
	eventUserID    int64
)

func publishTestEvent(ctx context.Context, eventType string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	lg := newLogger(cfg)

	bus := events.NewEventBus(lg)
	bus.Subscribe(events.Wildcard, events.AuditLog(lg))

	if cfg.Broker.Enabled {
		pub, err := broker.NewPublisher(cfg.Broker.URL, cfg.Broker.Queue, lg)
		if err != nil {
			return fmt.Errorf("connect broker: %w", err)
		}
		defer pub.Close()
		bus.Subscribe(events.Wildcard, pub.Forward())
	}

	event := events.NewAuthEvent(eventType, eventUserID, eventLoginCode, "cli", 0)
	lg.Info("publishing test event", "event_type", eventType, "event_id", event.ID)

	if err := bus.Publish(ctx, event); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	bus.Wait()

	lg.Info("test event published")
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventLoginCode, "login-code", "cli-test", "login code carried by the event")
	publishEventCmd.Flags().Int64Var(&eventUserID, "user-id", 0, "user id carried by the event")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
