package sales

import (
	"fmt"
	"time"

	"pdv-backend/internal/audit"
	"pdv-backend/internal/auth"
	"pdv-backend/internal/database"
	"pdv-backend/internal/loyalty"
	"pdv-backend/internal/models"
	"pdv-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type CreateSaleRequest struct {
	Items         []SaleItemRequest    `json:"items"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	CustomerID    *uint                `json:"customer_id"`
	Discount      decimal.Decimal      `json:"discount"`
}

// POST /api/sales
// Tudo em uma transação: número, venda, itens, baixa de estoque com uma
// movimentação OUT por linha e acúmulo de pontos. Falha em qualquer passo
// desfaz o conjunto inteiro.
func CreateSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSaleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		var fields []validation.FieldError
		if len(body.Items) == 0 {
			fields = append(fields, validation.FieldError{Field: "items", Message: "obrigatório"})
		}
		for i, it := range body.Items {
			if it.ProductID == 0 || it.Quantity <= 0 {
				fields = append(fields, validation.FieldError{
					Field:   fmt.Sprintf("items[%d]", i),
					Message: "product_id e quantity positivos são obrigatórios",
				})
			}
		}
		if !models.ValidPaymentMethod(body.PaymentMethod) {
			fields = append(fields, validation.FieldError{Field: "payment_method", Message: "método inválido (DINHEIRO|CARTAO_CREDITO|CARTAO_DEBITO|PIX)"})
		}
		if body.Discount.IsNegative() {
			fields = append(fields, validation.FieldError{Field: "discount", Message: "não pode ser negativo"})
		}
		if len(fields) > 0 {
			return validation.Failed(c, fields...)
		}

		empID, err := auth.EmployeeID(c)
		if err != nil {
			return err
		}

		if body.CustomerID != nil {
			var customer models.Customer
			if err := database.DB.First(&customer, "id = ? AND status = ?", *body.CustomerID, models.StatusActive).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Cliente não encontrado")
			}
		}

		// Carrega e valida os produtos antes de qualquer escrita
		products := make(map[uint]*models.Product, len(body.Items))
		for _, it := range body.Items {
			if _, seen := products[it.ProductID]; seen {
				return fiber.NewError(fiber.StatusBadRequest, "Produto repetido nos itens; some as quantidades")
			}
			var product models.Product
			if err := database.DB.First(&product, "id = ? AND status = ?", it.ProductID, models.StatusActive).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Produto %d não encontrado", it.ProductID))
			}
			if it.Quantity > product.Stock {
				return fiber.NewError(fiber.StatusConflict,
					fmt.Sprintf("Estoque insuficiente para %s: disponível %d, solicitado %d", product.Name, product.Stock, it.Quantity))
			}
			products[it.ProductID] = &product
		}

		subtotal := decimal.Zero
		items := make([]models.SaleItem, 0, len(body.Items))
		for _, it := range body.Items {
			p := products[it.ProductID]
			lineTotal := p.SalePrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
			items = append(items, models.SaleItem{
				ProductID: p.ID,
				Quantity:  it.Quantity,
				UnitPrice: p.SalePrice,
				LineTotal: lineTotal,
			})
			subtotal = subtotal.Add(lineTotal)
		}

		if body.Discount.GreaterThan(subtotal) {
			return fiber.NewError(fiber.StatusBadRequest, "Desconto maior que o subtotal")
		}

		sale := models.Sale{
			CustomerID:    body.CustomerID,
			EmployeeID:    empID,
			Subtotal:      subtotal,
			Discount:      body.Discount,
			Total:         subtotal.Sub(body.Discount),
			PaymentMethod: body.PaymentMethod,
			Status:        models.SaleCompleted,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			number, err := database.NextNumber(tx, models.CounterSaleNumber)
			if err != nil {
				return err
			}
			sale.Number = number

			if err := tx.Create(&sale).Error; err != nil {
				return err
			}
			for i := range items {
				items[i].SaleID = sale.ID
			}
			if err := tx.Create(&items).Error; err != nil {
				return err
			}

			for _, it := range items {
				res := tx.Model(&models.Product{}).
					Where("id = ? AND stock >= ?", it.ProductID, it.Quantity).
					Update("stock", gorm.Expr("stock - ?", it.Quantity))
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					return fiber.NewError(fiber.StatusConflict, "Estoque insuficiente")
				}

				movement := models.StockMovement{
					ProductID:  it.ProductID,
					Kind:       models.MovementOut,
					Quantity:   it.Quantity,
					Reason:     fmt.Sprintf("venda #%d", sale.Number),
					EmployeeID: empID,
					SaleID:     &sale.ID,
				}
				if err := tx.Create(&movement).Error; err != nil {
					return err
				}
			}

			if sale.CustomerID != nil {
				if err := loyalty.Accrue(tx, *sale.CustomerID, &sale); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível registrar a venda")
		}

		sale.Items = items
		return c.Status(fiber.StatusCreated).JSON(sale)
	}
}

// POST /api/sales/:id/cancel
// Cancelamento NÃO devolve estoque: reposição é uma entrada explícita
// com motivo "devolução", mantendo o ledger como fonte única.
func CancelSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var sale models.Sale
		if err := database.DB.Preload("Items").First(&sale, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Venda não encontrada")
		}

		if sale.Status == models.SaleCancelled {
			return fiber.NewError(fiber.StatusConflict, "Venda já está cancelada")
		}

		empID, err := auth.EmployeeID(c)
		if err != nil {
			return err
		}
		var emp models.Employee
		if err := database.DB.First(&emp, empID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Funcionário não encontrado")
		}

		before := sale.Status
		if err := database.DB.Model(&sale).Update("status", models.SaleCancelled).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível cancelar a venda")
		}
		sale.Status = models.SaleCancelled

		_ = audit.WriteLog(audit.LogOptions{
			EmployeeID:   empID,
			EmployeeName: emp.Name,
			EntityType:   "sale",
			EntityID:     sale.ID,
			Action:       models.AuditActionCancel,
			Description:  fmt.Sprintf("Venda #%d cancelada (total %s)", sale.Number, sale.Total.StringFixed(2)),
			Before:       fiber.Map{"status": before},
			After:        fiber.Map{"status": sale.Status},
		})

		return c.JSON(sale)
	}
}

// GET /api/sales?from=2026-01-01&to=2026-01-31&status=COMPLETED
func ListSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Sale{}).Preload("Items")

		if status := c.Query("status"); status != "" {
			switch models.SaleStatus(status) {
			case models.SaleCompleted, models.SaleCancelled:
				dbq = dbq.Where("status = ?", status)
			default:
				return fiber.NewError(fiber.StatusBadRequest, "status inválido (COMPLETED|CANCELLED)")
			}
		}
		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Data 'from' inválida, use 'YYYY-MM-DD'")
			}
			dbq = dbq.Where("created_at >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Data 'to' inválida, use 'YYYY-MM-DD'")
			}
			dbq = dbq.Where("created_at < ?", to.AddDate(0, 0, 1))
		}

		var sales []models.Sale
		if err := dbq.Order("number DESC").Limit(200).Find(&sales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar as vendas")
		}

		return c.JSON(sales)
	}
}

// GET /api/sales/:id
func GetSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var sale models.Sale
		if err := database.DB.Preload("Items").Preload("Customer").First(&sale, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Venda não encontrada")
		}

		return c.JSON(sale)
	}
}
