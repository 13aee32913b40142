package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/frahmantamala/casetrack/internal/broker"
	"github.com/frahmantamala/casetrack/internal/core/events"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers that consume from the message broker.`,
}

var auditWorkerCmd = &cobra.Command{
	Use:   "audit",
	Short: "Consume auth events and write the audit log",
	RunE: func(cmd *cobra.Command, args []string) error {
		return startAuditWorker()
	},
}

var consumerTag string

func startAuditWorker() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	lg := newLogger(cfg)

	if !cfg.Broker.Enabled {
		return errors.New("audit worker needs broker.enabled")
	}

	consumer, err := broker.NewConsumer(cfg.Broker.URL, cfg.Broker.Queue, consumerTag, lg)
	if err != nil {
		return fmt.Errorf("connect broker: %w", err)
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lg.Info("audit worker running", "queue", cfg.Broker.Queue)
	if err := consumer.Run(ctx, events.AuditLog(lg.With("component", "audit-worker"))); err != nil {
		return err
	}
	lg.Info("audit worker stopped")
	return nil
}

func init() {
	auditWorkerCmd.Flags().StringVar(&consumerTag, "tag", "casetrack-audit", "AMQP consumer tag")

	workerCmd.AddCommand(auditWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
