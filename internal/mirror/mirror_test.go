package mirror

import (
	"encoding/json"
	"fmt"
	"testing"

	"pdv-backend/internal/database"
	"pdv-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openServerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s-server?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open server db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func openMirror(t *testing.T) *Mirror {
	t.Helper()
	m, err := Open(fmt.Sprintf("file:%s-mirror?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("open mirror: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func seedServer(t *testing.T, db *gorm.DB) (models.Employee, models.Product) {
	t.Helper()
	emp := models.Employee{Name: "Operador", Email: "op@loja.test", PasswordHash: "hash", Role: models.RoleCashier, Status: models.StatusActive}
	if err := db.Create(&emp).Error; err != nil {
		t.Fatalf("employee: %v", err)
	}
	barcode := "7891000333336"
	active := models.Product{Code: "ESP-001", Barcode: &barcode, Name: "Água 500ml", Category: "Bebidas",
		CostPrice: decimal.RequireFromString("0.80"), SalePrice: decimal.RequireFromString("2.50"),
		Stock: 30, MinStock: 5, Status: models.StatusActive}
	inactive := models.Product{Code: "ESP-002", Name: "Descontinuado", Category: "Bebidas",
		SalePrice: decimal.RequireFromString("1.00"), Status: models.StatusInactive}
	if err := db.Create(&active).Error; err != nil {
		t.Fatalf("product: %v", err)
	}
	if err := db.Create(&inactive).Error; err != nil {
		t.Fatalf("inactive product: %v", err)
	}
	return emp, active
}

func TestSyncFromServerSnapshotsActiveOnly(t *testing.T) {
	server := openServerDB(t)
	emp, active := seedServer(t, server)
	m := openMirror(t)

	if err := m.SyncFromServer(server); err != nil {
		t.Fatalf("sync: %v", err)
	}

	products, err := m.Products()
	if err != nil {
		t.Fatalf("products: %v", err)
	}
	if len(products) != 1 || products[0].Code != active.Code {
		t.Fatalf("mirror must hold only active products, got %+v", products)
	}

	// Funcionários vão com hash para login offline
	var mirrored models.Employee
	if err := m.db.First(&mirrored, "email = ?", emp.Email).Error; err != nil {
		t.Fatalf("employee not mirrored: %v", err)
	}
	if mirrored.PasswordHash != "hash" {
		t.Fatalf("password hash must survive the sync, got %q", mirrored.PasswordHash)
	}

	found, err := m.ProductByBarcode("7891000333336")
	if err != nil {
		t.Fatalf("barcode lookup: %v", err)
	}
	if found.Code != active.Code {
		t.Fatalf("wrong product: %s", found.Code)
	}
}

func TestSyncKeepsPendingQueue(t *testing.T) {
	server := openServerDB(t)
	emp, active := seedServer(t, server)
	m := openMirror(t)
	if err := m.SyncFromServer(server); err != nil {
		t.Fatalf("sync: %v", err)
	}

	_, err := m.RecordSale(emp.ID, nil, models.PaymentCash, decimal.Zero, []struct {
		ProductID uint
		Quantity  int
	}{{ProductID: active.ID, Quantity: 1}})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	// Novo sync não pode descartar a fila
	if err := m.SyncFromServer(server); err != nil {
		t.Fatalf("resync: %v", err)
	}
	ops, err := m.Pending()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("queue must survive resync, got %d ops", len(ops))
	}
}

func TestRecordSaleDecrementsLocalStockAndEnqueues(t *testing.T) {
	server := openServerDB(t)
	emp, active := seedServer(t, server)
	m := openMirror(t)
	if err := m.SyncFromServer(server); err != nil {
		t.Fatalf("sync: %v", err)
	}

	sale, err := m.RecordSale(emp.ID, nil, models.PaymentCash, decimal.RequireFromString("0.50"), []struct {
		ProductID uint
		Quantity  int
	}{{ProductID: active.ID, Quantity: 4}})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	// 4×2.50 − 0.50
	if !sale.Subtotal.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("subtotal 10.00 got %s", sale.Subtotal)
	}
	if !sale.Total.Equal(decimal.RequireFromString("9.50")) {
		t.Fatalf("total 9.50 got %s", sale.Total)
	}

	local, err := m.ProductByBarcode("7891000333336")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if local.Stock != 26 {
		t.Fatalf("local stock 26 got %d", local.Stock)
	}

	ops, err := m.Pending()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(ops) != 1 || ops[0].Kind != OpKindSale {
		t.Fatalf("expected 1 sale op, got %+v", ops)
	}

	var queued OfflineSale
	if err := json.Unmarshal([]byte(ops[0].Payload), &queued); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if queued.EmployeeID != emp.ID || len(queued.Items) != 1 || queued.Items[0].Quantity != 4 {
		t.Fatalf("unexpected payload: %+v", queued)
	}
	if !queued.Items[0].UnitPrice.Equal(decimal.RequireFromString("2.50")) {
		t.Fatalf("unit price snapshot lost: %s", queued.Items[0].UnitPrice)
	}
}

func TestRecordSaleInsufficientLocalStock(t *testing.T) {
	server := openServerDB(t)
	emp, active := seedServer(t, server)
	m := openMirror(t)
	if err := m.SyncFromServer(server); err != nil {
		t.Fatalf("sync: %v", err)
	}

	_, err := m.RecordSale(emp.ID, nil, models.PaymentCash, decimal.Zero, []struct {
		ProductID uint
		Quantity  int
	}{{ProductID: active.ID, Quantity: 99}})
	if err == nil {
		t.Fatal("expected insufficient-stock error")
	}

	// Nada gravado
	local, _ := m.ProductByBarcode("7891000333336")
	if local.Stock != 30 {
		t.Fatalf("stock must stay 30, got %d", local.Stock)
	}
	ops, _ := m.Pending()
	if len(ops) != 0 {
		t.Fatalf("queue must stay empty, got %d", len(ops))
	}
}

func TestMarkSyncedIsIdempotentGuard(t *testing.T) {
	server := openServerDB(t)
	emp, active := seedServer(t, server)
	m := openMirror(t)
	if err := m.SyncFromServer(server); err != nil {
		t.Fatalf("sync: %v", err)
	}

	if _, err := m.RecordSale(emp.ID, nil, models.PaymentPix, decimal.Zero, []struct {
		ProductID uint
		Quantity  int
	}{{ProductID: active.ID, Quantity: 1}}); err != nil {
		t.Fatalf("record: %v", err)
	}

	ops, _ := m.Pending()
	if len(ops) != 1 {
		t.Fatalf("expected 1 pending op got %d", len(ops))
	}

	if err := m.MarkSynced(ops[0].ID); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := m.MarkSynced(ops[0].ID); err == nil {
		t.Fatal("second mark must fail")
	}

	remaining, _ := m.Pending()
	if len(remaining) != 0 {
		t.Fatalf("queue must be empty, got %d", len(remaining))
	}
}
