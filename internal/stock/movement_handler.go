package stock

import (
	"fmt"
	"time"

	"pdv-backend/internal/auth"
	"pdv-backend/internal/database"
	"pdv-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type EntryRequest struct {
	ProductID uint   `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
}

type AdjustRequest struct {
	ProductID uint   `json:"product_id"`
	NewStock  int    `json:"new_stock"`
	Reason    string `json:"reason"`
}

type MovementResponse struct {
	ID          uint                `json:"id"`
	ProductID   uint                `json:"product_id"`
	ProductName string              `json:"product_name"`
	Kind        models.MovementKind `json:"kind"`
	Quantity    int                 `json:"quantity"`
	Reason      string              `json:"reason"`
	Stock       int                 `json:"stock"`
	CreatedAt   string              `json:"created_at"`
}

func loadActiveProduct(id uint) (*models.Product, error) {
	if id == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "product_id obrigatório")
	}
	var product models.Product
	if err := database.DB.First(&product, "id = ? AND status = ?", id, models.StatusActive).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Produto não encontrado")
	}
	return &product, nil
}

func movementResponse(m *models.StockMovement, p *models.Product) MovementResponse {
	return MovementResponse{
		ID:          m.ID,
		ProductID:   p.ID,
		ProductName: p.Name,
		Kind:        m.Kind,
		Quantity:    m.Quantity,
		Reason:      m.Reason,
		Stock:       p.Stock,
		CreatedAt:   m.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/stock-movements/entry
func CreateEntryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body EntryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}
		if body.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity deve ser maior que zero")
		}

		product, err := loadActiveProduct(body.ProductID)
		if err != nil {
			return err
		}

		empID, err := auth.EmployeeID(c)
		if err != nil {
			return err
		}

		movement := models.StockMovement{
			ProductID:  product.ID,
			Kind:       models.MovementIn,
			Quantity:   body.Quantity,
			Reason:     body.Reason,
			EmployeeID: empID,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&movement).Error; err != nil {
				return err
			}
			return tx.Model(&models.Product{}).
				Where("id = ?", product.ID).
				Update("stock", gorm.Expr("stock + ?", body.Quantity)).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível registrar a entrada")
		}

		product.Stock += body.Quantity
		return c.Status(fiber.StatusCreated).JSON(movementResponse(&movement, product))
	}
}

// POST /api/stock-movements/exit
// O UPDATE condicional checa o estoque de novo dentro da transação:
// uma leitura velha nunca deixa o contador negativo.
func CreateExitHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body EntryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}
		if body.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity deve ser maior que zero")
		}

		product, err := loadActiveProduct(body.ProductID)
		if err != nil {
			return err
		}

		if body.Quantity > product.Stock {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("Estoque insuficiente: disponível %d, solicitado %d", product.Stock, body.Quantity))
		}

		empID, err := auth.EmployeeID(c)
		if err != nil {
			return err
		}

		movement := models.StockMovement{
			ProductID:  product.ID,
			Kind:       models.MovementOut,
			Quantity:   body.Quantity,
			Reason:     body.Reason,
			EmployeeID: empID,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", product.ID, body.Quantity).
				Update("stock", gorm.Expr("stock - ?", body.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fiber.NewError(fiber.StatusConflict, "Estoque insuficiente")
			}
			return tx.Create(&movement).Error
		})
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível registrar a saída")
		}

		product.Stock -= body.Quantity
		return c.Status(fiber.StatusCreated).JSON(movementResponse(&movement, product))
	}
}

// POST /api/stock-movements/adjust
// Quantidade gravada é |delta|; a nota guarda o antes/depois da contagem.
func CreateAdjustHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AdjustRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}
		if body.NewStock < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "new_stock não pode ser negativo")
		}

		product, err := loadActiveProduct(body.ProductID)
		if err != nil {
			return err
		}

		delta := body.NewStock - product.Stock
		if delta == 0 {
			return fiber.NewError(fiber.StatusConflict, "Ajuste sem efeito: estoque já está nesse valor")
		}

		quantity := delta
		if quantity < 0 {
			quantity = -quantity
		}

		empID, err := auth.EmployeeID(c)
		if err != nil {
			return err
		}

		reason := body.Reason
		if reason != "" {
			reason += " "
		}
		reason += fmt.Sprintf("(ajuste: %d -> %d)", product.Stock, body.NewStock)

		movement := models.StockMovement{
			ProductID:  product.ID,
			Kind:       models.MovementAdjust,
			Quantity:   quantity,
			Reason:     reason,
			EmployeeID: empID,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&movement).Error; err != nil {
				return err
			}
			return tx.Model(&models.Product{}).
				Where("id = ?", product.ID).
				Update("stock", body.NewStock).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível registrar o ajuste")
		}

		product.Stock = body.NewStock
		return c.Status(fiber.StatusCreated).JSON(movementResponse(&movement, product))
	}
}

// GET /api/stock-movements?product_id=1&kind=OUT&from=2026-01-01&to=2026-01-31
func ListMovementsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.StockMovement{}).Preload("Product")

		if pid := c.QueryInt("product_id"); pid > 0 {
			dbq = dbq.Where("product_id = ?", pid)
		}
		if kind := c.Query("kind"); kind != "" {
			switch models.MovementKind(kind) {
			case models.MovementIn, models.MovementOut, models.MovementAdjust:
				dbq = dbq.Where("kind = ?", kind)
			default:
				return fiber.NewError(fiber.StatusBadRequest, "kind inválido (IN|OUT|ADJUST)")
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

		var movements []models.StockMovement
		if err := dbq.Order("created_at DESC, id DESC").Find(&movements).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar as movimentações")
		}

		resp := make([]MovementResponse, 0, len(movements))
		for i := range movements {
			m := &movements[i]
			resp = append(resp, MovementResponse{
				ID:          m.ID,
				ProductID:   m.ProductID,
				ProductName: m.Product.Name,
				Kind:        m.Kind,
				Quantity:    m.Quantity,
				Reason:      m.Reason,
				Stock:       m.Product.Stock,
				CreatedAt:   m.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}

		return c.JSON(resp)
	}
}
