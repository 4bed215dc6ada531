package reports

import (
	"time"

	"pdv-backend/internal/database"
	"pdv-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type MethodTotal struct {
	Method models.PaymentMethod `json:"method"`
	Total  decimal.Decimal      `json:"total"`
	Count  int64                `json:"count"`
}

type DailySalesResponse struct {
	Date       string          `json:"date"`
	Items      []MethodTotal   `json:"items"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	SaleCount  int64           `json:"sale_count"`
}

// GET /api/reports/sales/daily?date=2026-08-31 (default: hoje)
func DailySalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dateStr := c.Query("date")
		var day time.Time
		if dateStr == "" {
			now := time.Now()
			day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		} else {
			d, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Data inválida, use 'YYYY-MM-DD'")
			}
			day = d
		}
		next := day.AddDate(0, 0, 1)

		type row struct {
			Method string          `gorm:"column:payment_method"`
			Total  decimal.Decimal `gorm:"column:total"`
			Count  int64           `gorm:"column:count"`
		}
		var rows []row

		if err := database.DB.Model(&models.Sale{}).
			Select("payment_method, COALESCE(SUM(total), 0) as total, COUNT(*) as count").
			Where("status = ? AND created_at >= ? AND created_at < ?", models.SaleCompleted, day, next).
			Group("payment_method").
			Scan(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível calcular o resumo")
		}

		resp := DailySalesResponse{
			Date:       day.Format("2006-01-02"),
			Items:      make([]MethodTotal, 0, len(rows)),
			GrandTotal: decimal.Zero,
		}
		for _, r := range rows {
			resp.Items = append(resp.Items, MethodTotal{
				Method: models.PaymentMethod(r.Method),
				Total:  r.Total,
				Count:  r.Count,
			})
			resp.GrandTotal = resp.GrandTotal.Add(r.Total)
			resp.SaleCount += r.Count
		}

		return c.JSON(resp)
	}
}

type DayTotal struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
}

// GET /api/reports/sales/period?from=2026-08-01&to=2026-08-31
func PeriodSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, err := parsePeriod(c)
		if err != nil {
			return err
		}

		var sales []models.Sale
		if err := database.DB.
			Where("status = ? AND created_at >= ? AND created_at < ?", models.SaleCompleted, from, to.AddDate(0, 0, 1)).
			Order("created_at ASC").
			Find(&sales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível montar a série")
		}

		// Agrupa por dia em memória: a data de corte é local, não do banco
		byDay := make(map[string]*DayTotal)
		order := make([]string, 0)
		for _, s := range sales {
			key := s.CreatedAt.Format("2006-01-02")
			dt, ok := byDay[key]
			if !ok {
				dt = &DayTotal{Date: key, Total: decimal.Zero}
				byDay[key] = dt
				order = append(order, key)
			}
			dt.Total = dt.Total.Add(s.Total)
			dt.Count++
		}

		resp := make([]DayTotal, 0, len(order))
		for _, key := range order {
			resp = append(resp, *byDay[key])
		}

		return c.JSON(resp)
	}
}

type TopProduct struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// GET /api/reports/top-products?from=&to=&limit=10
func TopProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, err := parsePeriod(c)
		if err != nil {
			return err
		}

		limit := c.QueryInt("limit", 10)
		if limit <= 0 || limit > 100 {
			limit = 10
		}

		var rows []TopProduct
		if err := database.DB.Model(&models.SaleItem{}).
			Select("sale_items.product_id as product_id, products.name as product_name, SUM(sale_items.quantity) as quantity, COALESCE(SUM(sale_items.line_total), 0) as revenue").
			Joins("JOIN sales ON sales.id = sale_items.sale_id").
			Joins("JOIN products ON products.id = sale_items.product_id").
			Where("sales.status = ? AND sales.created_at >= ? AND sales.created_at < ?", models.SaleCompleted, from, to.AddDate(0, 0, 1)).
			Group("sale_items.product_id, products.name").
			Order("revenue DESC").
			Limit(limit).
			Scan(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível montar o ranking")
		}

		return c.JSON(rows)
	}
}

// GET /api/reports/stock/low
// Produtos ativos no limite ou abaixo do estoque mínimo.
func LowStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var products []models.Product
		if err := database.DB.
			Where("status = ? AND stock <= min_stock", models.StatusActive).
			Order("stock ASC, name ASC").
			Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar o estoque baixo")
		}

		return c.JSON(products)
	}
}

func parsePeriod(c *fiber.Ctx) (time.Time, time.Time, error) {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "from e to são obrigatórios")
	}
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "Data 'from' inválida, use 'YYYY-MM-DD'")
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "Data 'to' inválida, use 'YYYY-MM-DD'")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "'to' anterior a 'from'")
	}
	return from, to, nil
}
