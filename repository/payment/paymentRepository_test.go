package paymentrepo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bikerental/model"
	catalogrepo "bikerental/repository/catalog"
	providerrepo "bikerental/repository/provider"
	rentalrepo "bikerental/repository/rental"
	"bikerental/util/database"
)

func setup(t *testing.T) (*database.DB, int64) {
	t.Helper()
	ctx := context.Background()
	db, err := database.New(ctx, database.Config{
		Driver: database.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "payment.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))

	people := providerrepo.New(db)
	corp := &model.Provider{ID: uuid.NewString(), Kind: model.KindCorp, CompanyName: "Eiffel Bikes", CreatedAt: time.Now()}
	rider := &model.Provider{ID: uuid.NewString(), Kind: model.KindCustomer, FullName: "Rider", CreatedAt: time.Now()}
	require.NoError(t, people.Create(ctx, corp))
	require.NoError(t, people.Create(ctx, rider))
	bikeID, err := catalogrepo.New(db).CreateBike(ctx, &model.Bike{
		Description: "city bike", ProviderID: corp.ID, DailyRateEur: decimal.RequireFromString("5.00"),
	})
	require.NoError(t, err)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	rentalID, err := rentalrepo.New(db).InsertRental(ctx, tx, &model.Rental{
		BikeID: bikeID, CustomerID: rider.ID, Status: model.RentalActive, Days: 2,
		StartAt: time.Now(), TotalAmountEur: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	return db, rentalID
}

func TestInsertAndList(t *testing.T) {
	db, rentalID := setup(t)
	ctx := context.Background()
	r := New(db)

	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	authID, payID := "pi_1", "pi_1"
	paid := &model.RentalPayment{
		RentalID:         rentalID,
		OriginalAmount:   decimal.RequireFromString("100.00"),
		OriginalCurrency: "USD",
		FxRateToEur:      decimal.NewNullDecimal(decimal.RequireFromString("0.92")),
		AmountEur:        decimal.NewNullDecimal(decimal.NewFromInt(92)),
		Status:           model.PaymentPaid,
		CreatedAt:        t0,
		PaidAt:           &t0,
		AuthorizationID:  &authID,
		PaymentID:        &payID,
	}
	_, err := r.Insert(ctx, paid)
	require.NoError(t, err)

	reason := "exchange rate unavailable for USD"
	noRate := &model.RentalPayment{
		RentalID:         rentalID,
		OriginalAmount:   decimal.NewFromInt(5),
		OriginalCurrency: "USD",
		Status:           model.PaymentFailed,
		CreatedAt:        t0.Add(time.Minute),
		FailureReason:    &reason,
	}
	_, err = r.Insert(ctx, noRate)
	require.NoError(t, err)

	// same timestamp as noRate; the later insert lists first
	retry := &model.RentalPayment{
		RentalID:         rentalID,
		OriginalAmount:   decimal.NewFromInt(1000),
		OriginalCurrency: "JPY",
		FxRateToEur:      decimal.NewNullDecimal(decimal.RequireFromString("0.0061")),
		AmountEur:        decimal.NewNullDecimal(decimal.RequireFromString("6.1")),
		Status:           model.PaymentRequiresAction,
		CreatedAt:        t0.Add(time.Minute),
	}
	_, err = r.Insert(ctx, retry)
	require.NoError(t, err)

	list, err := r.ListByRental(ctx, rentalID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, []int64{retry.ID, noRate.ID, paid.ID}, []int64{list[0].ID, list[1].ID, list[2].ID})

	got := list[2]
	require.True(t, got.FxRateToEur.Valid)
	require.Equal(t, "0.92", got.FxRateToEur.Decimal.String())
	require.Equal(t, "92.00", got.AmountEur.Decimal.StringFixed(2))
	require.True(t, got.OriginalAmount.Equal(decimal.NewFromInt(100)))
	require.NotNil(t, got.PaidAt)
	require.True(t, got.PaidAt.Equal(t0))
	require.Equal(t, "pi_1", *got.AuthorizationID)
	require.Equal(t, "pi_1", *got.PaymentID)
	require.Nil(t, got.FailureReason)

	failed := list[1]
	require.Equal(t, model.PaymentFailed, failed.Status)
	require.False(t, failed.FxRateToEur.Valid)
	require.False(t, failed.AmountEur.Valid)
	require.Nil(t, failed.PaidAt)
	require.Nil(t, failed.AuthorizationID)
	require.Nil(t, failed.PaymentID)
	require.Equal(t, reason, *failed.FailureReason)

	require.Equal(t, "0.0061", list[0].FxRateToEur.Decimal.String())
	require.Equal(t, "6.10", list[0].AmountEur.Decimal.StringFixed(2))

	other, err := r.ListByRental(ctx, rentalID+1)
	require.NoError(t, err)
	require.Empty(t, other)
}
