package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"bikerental/model"
	catalogrepo "bikerental/repository/catalog"
	notificationrepo "bikerental/repository/notification"
	outboxrepo "bikerental/repository/outbox"
	providerrepo "bikerental/repository/provider"
	rentalrepo "bikerental/repository/rental"
	notificationsvc "bikerental/service/notification"
	rentalsvc "bikerental/service/rental"
	"bikerental/util/database"
	"bikerental/util/jwt"
)

type seeded struct {
	Customers map[string]string // name -> id
	Bikes     []int64
}

func seedCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo providers, bikes and one contended rental",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := env()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			db, err := openDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.Migrate(ctx); err != nil {
				return err
			}

			out, err := seed(ctx, db, log)
			if err != nil {
				return err
			}
			if out == nil {
				log.Info("seed skipped, catalog not empty")
				return nil
			}
			for name, id := range out.Customers {
				tok, err := jwt.Issue(cfg.JWTSecret, id, "customer", ttl)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", name, id, tok)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "token-ttl", 24*time.Hour, "lifetime of the printed tokens")
	return cmd
}

// seed is a no-op returning nil when bikes already exist.
func seed(ctx context.Context, db *database.DB, log *slog.Logger) (*seeded, error) {
	bikes := catalogrepo.New(db)
	existing, err := bikes.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	providers := providerrepo.New(db)
	corp := &model.Provider{ID: uuid.NewString(), Kind: model.KindCorp, CompanyName: "Eiffel Bike Corp", CreatedAt: now}
	student := &model.Provider{ID: uuid.NewString(), Kind: model.KindStudent, FullName: "Sam Student", Email: "sam@univ.edu", CreatedAt: now}
	alice := &model.Provider{ID: uuid.NewString(), Kind: model.KindCustomer, FullName: "Alice", Email: "alice@bike.com", CreatedAt: now}
	bob := &model.Provider{ID: uuid.NewString(), Kind: model.KindCustomer, FullName: "Bob", Email: "bob@bike.com", CreatedAt: now}
	for _, p := range []*model.Provider{corp, student, alice, bob} {
		if err := providers.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("seed provider %s: %w", p.DisplayName(), err)
		}
	}

	out := &seeded{Customers: map[string]string{
		alice.FullName:   alice.ID,
		bob.FullName:     bob.ID,
		student.FullName: student.ID,
	}}
	for _, b := range []model.Bike{
		{Description: "Mountain Bike Rockrider", ProviderID: student.ID, DailyRateEur: decimal.RequireFromString("5.00")},
		{Description: "Peugeot E-Bike City", ProviderID: corp.ID, DailyRateEur: decimal.RequireFromString("15.00")},
		{Description: "Vintage Road Bike 1980", ProviderID: corp.ID, DailyRateEur: decimal.RequireFromString("10.00")},
	} {
		id, err := bikes.CreateBike(ctx, &b)
		if err != nil {
			return nil, fmt.Errorf("seed bike %q: %w", b.Description, err)
		}
		out.Bikes = append(out.Bikes, id)
	}

	// Alice holds the e-bike and Bob waits for it.
	notifications := notificationrepo.New(db)
	rs := rentalsvc.New(db, rentalsvc.Repos{
		Bikes:         bikes,
		Customers:     providers,
		Rentals:       rentalrepo.New(db),
		Notifications: notifications,
	}, notificationsvc.New(notifications, outboxrepo.New(db), notificationsvc.WithLogger(log)), rentalsvc.WithLogger(log))
	if _, err := rs.Rent(ctx, out.Bikes[1], alice.ID, 2); err != nil {
		return nil, err
	}
	if _, err := rs.Rent(ctx, out.Bikes[1], bob.ID, 3); err != nil {
		return nil, err
	}

	log.Info("seed complete", "providers", 4, "bikes", len(out.Bikes))
	return out, nil
}
