package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"bikerental/app/echoServer"
	paymentctrl "bikerental/app/echoServer/controller/payment"
	rentalctrl "bikerental/app/echoServer/controller/rental"
	"bikerental/app/echoServer/validation"
	catalogrepo "bikerental/repository/catalog"
	notificationrepo "bikerental/repository/notification"
	outboxrepo "bikerental/repository/outbox"
	paymentrepo "bikerental/repository/payment"
	providerrepo "bikerental/repository/provider"
	rentalrepo "bikerental/repository/rental"
	striperepo "bikerental/repository/stripe"
	notificationsvc "bikerental/service/notification"
	outboxsvc "bikerental/service/outbox"
	paymentsvc "bikerental/service/payment"
	rentalsvc "bikerental/service/rental"
	"bikerental/util/httpx"
	"bikerental/util/metrics"
)

func serveCmd() *cobra.Command {
	var (
		migrate   bool
		withRelay bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
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
			if migrate {
				if err := db.Migrate(ctx); err != nil {
					return err
				}
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m := metrics.New(reg)

			fx, closeFX, err := newFX(ctx, cfg, m, log)
			if err != nil {
				return err
			}
			defer closeFX()

			// repos
			bikes := catalogrepo.New(db)
			customers := providerrepo.New(db)
			rentals := rentalrepo.New(db)
			notifications := notificationrepo.New(db)
			outbox := outboxrepo.New(db)
			payments := paymentrepo.New(db)
			gw := striperepo.NewClient(cfg.StripeKey, cfg.StripeBaseURL, httpx.Client())

			// services
			notify := notificationsvc.New(notifications, outbox,
				notificationsvc.WithTopic(cfg.NotifyTopic),
				notificationsvc.WithLogger(log),
			)
			rs := rentalsvc.New(db, rentalsvc.Repos{
				Bikes:         bikes,
				Customers:     customers,
				Rentals:       rentals,
				Notifications: notifications,
			}, notify, rentalsvc.WithMetrics(m), rentalsvc.WithLogger(log))
			ps := paymentsvc.New(rentals, payments, fx, gw,
				paymentsvc.WithMetrics(m),
				paymentsvc.WithLogger(log),
				paymentsvc.WithGatewayTimeout(cfg.GatewayTimeout),
			)

			var wg sync.WaitGroup
			if withRelay {
				pub, err := newPublisher(cfg, log)
				if err != nil {
					return err
				}
				defer pub.Close()
				relay := outboxsvc.NewRelay(outbox, pub,
					outboxsvc.WithInterval(cfg.RelayInterval),
					outboxsvc.WithMetrics(m),
					outboxsvc.WithLogger(log),
				)
				wg.Add(1)
				go func() {
					defer wg.Done()
					relay.Run(ctx)
				}()
			}

			// echo
			e := echo.New()
			e.HideBanner = true
			echoServer.RegisterMiddlewares(e, log)
			e.Validator = validation.New()
			echoServer.Register(e, echoServer.C{
				Rental:    &rentalctrl.Controller{Svc: rs, Log: log},
				Payment:   &paymentctrl.Controller{Svc: ps, Log: log},
				JWTSecret: cfg.JWTSecret,
				Gatherer:  reg,
				Health: func(c echo.Context) error {
					pctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
					defer cancel()
					return db.PingContext(pctx)
				},
			})

			go func() {
				log.Info("starting server", "port", cfg.Port, "driver", cfg.DatabaseDriver, "broker", cfg.Broker)
				if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server error", "err", err)
					stop()
				}
			}()

			<-ctx.Done()
			log.Info("shutdown signal received")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := e.Shutdown(shutdownCtx); err != nil {
				log.Error("http shutdown error", "err", err)
			}
			wg.Wait()
			return nil
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply migrations before serving")
	cmd.Flags().BoolVar(&withRelay, "relay", true, "run the outbox relay in-process")
	return cmd
}
