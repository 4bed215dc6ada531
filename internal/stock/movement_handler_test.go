package stock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pdv-backend/internal/auth"
	"pdv-backend/internal/database"
	"pdv-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupStockTestDB(t *testing.T) *gorm.DB {
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

func stockApp(empID uint) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxEmployeeIDKey, empID)
		c.Locals(auth.CtxEmployeeRoleKey, models.RoleCashier)
		return c.Next()
	})
	app.Post("/stock-movements/entry", CreateEntryHandler())
	app.Post("/stock-movements/exit", CreateExitHandler())
	app.Post("/stock-movements/adjust", CreateAdjustHandler())
	app.Get("/stock-movements", ListMovementsHandler())
	return app
}

func seedStockFixtures(t *testing.T, db *gorm.DB, stock int) (models.Employee, models.Product) {
	t.Helper()
	emp := models.Employee{Name: "Estoquista", Email: "est@loja.test", PasswordHash: "x", Role: models.RoleCashier, Status: models.StatusActive}
	if err := db.Create(&emp).Error; err != nil {
		t.Fatalf("employee: %v", err)
	}
	p := models.Product{
		Code:      "EST-001",
		Name:      "Arroz 5kg",
		Category:  "Mercearia",
		CostPrice: decimal.RequireFromString("18.00"),
		SalePrice: decimal.RequireFromString("24.90"),
		Stock:     stock,
		MinStock:  2,
		Status:    models.StatusActive,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("product: %v", err)
	}
	return emp, p
}

func postMovement(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	return resp
}

func productStock(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var p models.Product
	if err := db.First(&p, id).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return p.Stock
}

func TestEntryIncrementsStock(t *testing.T) {
	db := setupStockTestDB(t)
	emp, p := seedStockFixtures(t, db, 5)
	app := stockApp(emp.ID)

	resp := postMovement(t, app, "/stock-movements/entry",
		fmt.Sprintf(`{"product_id":%d,"quantity":10,"reason":"compra fornecedor"}`, p.ID))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.StatusCode)
	}

	var body MovementResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Kind != models.MovementIn || body.Quantity != 10 {
		t.Fatalf("unexpected movement: %+v", body)
	}
	if got := productStock(t, db, p.ID); got != 15 {
		t.Fatalf("stock 15 got %d", got)
	}
}

func TestExitInsufficientStockLeavesStockUntouched(t *testing.T) {
	db := setupStockTestDB(t)
	emp, p := seedStockFixtures(t, db, 3)
	app := stockApp(emp.ID)

	resp := postMovement(t, app, "/stock-movements/exit",
		fmt.Sprintf(`{"product_id":%d,"quantity":5,"reason":"quebra"}`, p.ID))
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.StatusCode)
	}

	if got := productStock(t, db, p.ID); got != 3 {
		t.Fatalf("stock must stay 3, got %d", got)
	}
	var count int64
	db.Model(&models.StockMovement{}).Count(&count)
	if count != 0 {
		t.Fatalf("no movement should be recorded, got %d", count)
	}
}

func TestExitDecrementsStock(t *testing.T) {
	db := setupStockTestDB(t)
	emp, p := seedStockFixtures(t, db, 8)
	app := stockApp(emp.ID)

	resp := postMovement(t, app, "/stock-movements/exit",
		fmt.Sprintf(`{"product_id":%d,"quantity":3,"reason":"perda"}`, p.ID))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.StatusCode)
	}
	if got := productStock(t, db, p.ID); got != 5 {
		t.Fatalf("stock 5 got %d", got)
	}
}

func TestAdjustStoresAbsoluteDelta(t *testing.T) {
	db := setupStockTestDB(t)
	emp, p := seedStockFixtures(t, db, 10)
	app := stockApp(emp.ID)

	resp := postMovement(t, app, "/stock-movements/adjust",
		fmt.Sprintf(`{"product_id":%d,"new_stock":7,"reason":"contagem"}`, p.ID))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.StatusCode)
	}

	var body MovementResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Kind != models.MovementAdjust {
		t.Fatalf("expected ADJUST got %s", body.Kind)
	}
	if body.Quantity != 3 {
		t.Fatalf("quantity must be |delta| = 3, got %d", body.Quantity)
	}
	if !strings.Contains(body.Reason, "10 -> 7") {
		t.Fatalf("reason must record before/after, got %q", body.Reason)
	}
	if got := productStock(t, db, p.ID); got != 7 {
		t.Fatalf("stock 7 got %d", got)
	}
}

func TestAdjustWithoutEffectRejected(t *testing.T) {
	db := setupStockTestDB(t)
	emp, p := seedStockFixtures(t, db, 10)
	app := stockApp(emp.ID)

	resp := postMovement(t, app, "/stock-movements/adjust",
		fmt.Sprintf(`{"product_id":%d,"new_stock":10}`, p.ID))
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.StatusCode)
	}
	var count int64
	db.Model(&models.StockMovement{}).Count(&count)
	if count != 0 {
		t.Fatalf("no movement should be recorded, got %d", count)
	}
}

// O estoque corrente sempre bate com a soma assinada do razão de
// movimentações aplicada sobre o estoque inicial.
func TestLedgerSumMatchesCurrentStock(t *testing.T) {
	db := setupStockTestDB(t)
	emp, p := seedStockFixtures(t, db, 0)
	app := stockApp(emp.ID)

	postMovement(t, app, "/stock-movements/entry", fmt.Sprintf(`{"product_id":%d,"quantity":10,"reason":"carga inicial"}`, p.ID))
	postMovement(t, app, "/stock-movements/exit", fmt.Sprintf(`{"product_id":%d,"quantity":3,"reason":"quebra"}`, p.ID))
	postMovement(t, app, "/stock-movements/adjust", fmt.Sprintf(`{"product_id":%d,"new_stock":12,"reason":"contagem"}`, p.ID))

	var movements []models.StockMovement
	if err := db.Where("product_id = ?", p.ID).Order("id").Find(&movements).Error; err != nil {
		t.Fatalf("movements: %v", err)
	}
	if len(movements) != 3 {
		t.Fatalf("expected 3 movements got %d", len(movements))
	}

	// 10 (IN) − 3 (OUT) + 5 (ajuste 7 -> 12) = 12
	if movements[0].Kind != models.MovementIn || movements[0].Quantity != 10 {
		t.Fatalf("unexpected first movement: %+v", movements[0])
	}
	if movements[1].Kind != models.MovementOut || movements[1].Quantity != 3 {
		t.Fatalf("unexpected second movement: %+v", movements[1])
	}
	if movements[2].Kind != models.MovementAdjust || movements[2].Quantity != 5 {
		t.Fatalf("unexpected adjust movement: %+v", movements[2])
	}
	if !strings.Contains(movements[2].Reason, "7 -> 12") {
		t.Fatalf("adjust reason must record before/after, got %q", movements[2].Reason)
	}

	if got := productStock(t, db, p.ID); got != 12 {
		t.Fatalf("stock 12 got %d", got)
	}
}

func TestListMovementsFilters(t *testing.T) {
	db := setupStockTestDB(t)
	emp, p := seedStockFixtures(t, db, 10)
	app := stockApp(emp.ID)

	postMovement(t, app, "/stock-movements/entry", fmt.Sprintf(`{"product_id":%d,"quantity":5,"reason":"compra"}`, p.ID))
	postMovement(t, app, "/stock-movements/exit", fmt.Sprintf(`{"product_id":%d,"quantity":2,"reason":"perda"}`, p.ID))

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/stock-movements?product_id=%d&kind=OUT", p.ID), nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}

	var list []MovementResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 OUT movement got %d", len(list))
	}
	if list[0].Kind != models.MovementOut || list[0].Quantity != 2 {
		t.Fatalf("unexpected movement: %+v", list[0])
	}

	req = httptest.NewRequest(http.MethodGet, "/stock-movements?kind=FOO", nil)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid kind: expected 400 got %d", resp.StatusCode)
	}
}
