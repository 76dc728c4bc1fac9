package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	outboxrepo "bikerental/repository/outbox"
	outboxsvc "bikerental/service/outbox"
	"bikerental/util/metrics"
)

func relayCmd() *cobra.Command {
	var batch int
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Run only the outbox relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := env()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := openDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			pub, err := newPublisher(cfg, log)
			if err != nil {
				return err
			}
			defer pub.Close()

			m := metrics.New(prometheus.DefaultRegisterer)
			relay := outboxsvc.NewRelay(outboxrepo.New(db), pub,
				outboxsvc.WithInterval(cfg.RelayInterval),
				outboxsvc.WithBatchSize(batch),
				outboxsvc.WithMetrics(m),
				outboxsvc.WithLogger(log),
			)
			log.Info("outbox relay started", "broker", cfg.Broker, "interval", cfg.RelayInterval.String())
			relay.Run(ctx)
			log.Info("outbox relay stopped")
			return nil
		},
	}
	cmd.Flags().IntVar(&batch, "batch", 100, "messages claimed per tick")
	return cmd
}
