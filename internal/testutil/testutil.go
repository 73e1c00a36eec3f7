package testutil

import (
	"context"
	"database/sql"
	"testing"

	jwt "github.com/golang-jwt/jwt/v5"

	"runnerDispatch/internal/db"
	"runnerDispatch/models"
	"runnerDispatch/repository"
)

// OpenInMemoryDB opens an in-memory SQLite database and applies migrations.
// Caller is responsible for closing the DB, typically via t.Cleanup.
func OpenInMemoryDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	// Shared cache so that multiple connections see the same DB if needed.
	d, err := db.Open("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// GenerateJWTHS256 returns a signed runner JWT with the minimal claims the
// app uses.
func GenerateJWTHS256(t *testing.T, secret string, runnerID int64, name string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"runner_id": runnerID,
		"name":      name,
		"kind":      "runner",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// SeedMerchant creates a merchant for order fixtures.
func SeedMerchant(t *testing.T, ctx context.Context, merchants *repository.MerchantRepository) *models.Merchant {
	t.Helper()
	m, err := merchants.Create(ctx, "Test Kitchen", "Building 1", "+15550000000")
	if err != nil {
		t.Fatalf("create merchant: %v", err)
	}
	return m
}

// SeedOrder creates a paid, pending, unassigned order ready for acceptance.
func SeedOrder(t *testing.T, ctx context.Context, orders *repository.OrderRepository, merchantID int64) *models.Order {
	t.Helper()
	o, err := orders.Create(ctx, &models.Order{
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPaid,
		MerchantID:    merchantID,
		CustomerName:  "Test Customer",
		CustomerPhone: "+15551234567",
		CollectionPin: "1111",
		DeliveryPin:   "1234",
		Subtotal:      12.50,
		DeliveryFee:   3.50,
		TotalAmount:   16.00,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return o
}

// SeedRunner creates a runner.
func SeedRunner(t *testing.T, ctx context.Context, runners *repository.RunnerRepository, name string) *models.Runner {
	t.Helper()
	r, err := runners.Create(ctx, name, "", "")
	if err != nil {
		t.Fatalf("create runner %q: %v", name, err)
	}
	return r
}
