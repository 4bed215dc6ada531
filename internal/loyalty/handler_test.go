package loyalty

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pdv-backend/internal/database"
	"pdv-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupLoyaltyTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	database.DB = db
	return db
}

func loyaltyApp() *fiber.App {
	app := fiber.New()
	app.Get("/customers/:id/loyalty", GetLoyaltyHandler())
	app.Post("/customers/:id/loyalty/redeem", RedeemHandler())
	return app
}

func seedCustomer(t *testing.T, db *gorm.DB, points int) models.Customer {
	t.Helper()
	customer := models.Customer{Name: "João Lima", LoyaltyPoints: points, Status: models.StatusActive}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("customer: %v", err)
	}
	return customer
}

func TestPointsForTotalTruncates(t *testing.T) {
	cases := []struct {
		total string
		want  int
	}{
		{"0.99", 0},
		{"1.00", 1},
		{"39.80", 39},
		{"150.00", 150},
	}
	for _, tc := range cases {
		if got := PointsForTotal(decimal.RequireFromString(tc.total)); got != tc.want {
			t.Errorf("PointsForTotal(%s) = %d, want %d", tc.total, got, tc.want)
		}
	}
}

func TestAccrueWritesLedgerAndBalance(t *testing.T) {
	db := setupLoyaltyTestDB(t)
	customer := seedCustomer(t, db, 10)

	sale := models.Sale{ID: 77, Number: 1042, Total: decimal.RequireFromString("25.50")}
	if err := Accrue(db, customer.ID, &sale); err != nil {
		t.Fatalf("accrue: %v", err)
	}

	var fresh models.Customer
	db.First(&fresh, customer.ID)
	if fresh.LoyaltyPoints != 35 {
		t.Fatalf("balance 35 got %d", fresh.LoyaltyPoints)
	}

	var entry models.LoyaltyEntry
	if err := db.First(&entry, "customer_id = ?", customer.ID).Error; err != nil {
		t.Fatalf("entry: %v", err)
	}
	if entry.Points != 25 {
		t.Fatalf("entry points 25 got %d", entry.Points)
	}
	// O motivo cita o número da venda, não o id interno
	if entry.Reason != "venda #1042" {
		t.Fatalf("reason should carry the sale number, got %q", entry.Reason)
	}
}

func TestRedeemInsufficientBalance(t *testing.T) {
	db := setupLoyaltyTestDB(t)
	customer := seedCustomer(t, db, 5)
	app := loyaltyApp()

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/customers/%d/loyalty/redeem", customer.ID),
		strings.NewReader(`{"points":10}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.StatusCode)
	}

	// Saldo e ledger intactos
	var fresh models.Customer
	db.First(&fresh, customer.ID)
	if fresh.LoyaltyPoints != 5 {
		t.Fatalf("balance must stay 5, got %d", fresh.LoyaltyPoints)
	}
	var count int64
	db.Model(&models.LoyaltyEntry{}).Count(&count)
	if count != 0 {
		t.Fatalf("no entry should be written, got %d", count)
	}
}

func TestRedeemDebitsAndReturnsDiscount(t *testing.T) {
	db := setupLoyaltyTestDB(t)
	customer := seedCustomer(t, db, 100)
	app := loyaltyApp()

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/customers/%d/loyalty/redeem", customer.ID),
		strings.NewReader(`{"points":40}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}

	var body struct {
		Points        int             `json:"points"`
		DiscountValue decimal.Decimal `json:"discount_value"`
		Balance       int             `json:"balance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// 40 pontos × R$ 0,10
	if !body.DiscountValue.Equal(decimal.RequireFromString("4.00")) {
		t.Fatalf("discount 4.00 got %s", body.DiscountValue)
	}
	if body.Balance != 60 {
		t.Fatalf("balance 60 got %d", body.Balance)
	}

	var entry models.LoyaltyEntry
	if err := db.First(&entry, "customer_id = ?", customer.ID).Error; err != nil {
		t.Fatalf("entry: %v", err)
	}
	if entry.Points != -40 {
		t.Fatalf("ledger entry -40 got %d", entry.Points)
	}

	var fresh models.Customer
	db.First(&fresh, customer.ID)
	if fresh.LoyaltyPoints != 60 {
		t.Fatalf("persisted balance 60 got %d", fresh.LoyaltyPoints)
	}
}

func TestGetLoyaltyBalanceAndEntries(t *testing.T) {
	db := setupLoyaltyTestDB(t)
	customer := seedCustomer(t, db, 0)
	app := loyaltyApp()

	sale := models.Sale{ID: 1, Number: 1, Total: decimal.RequireFromString("30.00")}
	if err := Accrue(db, customer.ID, &sale); err != nil {
		t.Fatalf("accrue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/customers/%d/loyalty", customer.ID), nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}

	var body struct {
		Balance int                   `json:"balance"`
		Entries []models.LoyaltyEntry `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Balance != 30 {
		t.Fatalf("balance 30 got %d", body.Balance)
	}
	if len(body.Entries) != 1 || body.Entries[0].Points != 30 {
		t.Fatalf("unexpected entries: %+v", body.Entries)
	}
}
