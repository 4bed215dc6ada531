package loyalty

import (
	"fmt"

	"pdv-backend/internal/database"
	"pdv-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Valor de resgate: 1 ponto = R$ 0,10.
var pointValue = decimal.RequireFromString("0.10")

type RedeemRequest struct {
	Points int `json:"points"`
}

// GET /api/customers/:id/loyalty
func GetLoyaltyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var customer models.Customer
		if err := database.DB.First(&customer, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Cliente não encontrado")
		}

		var entries []models.LoyaltyEntry
		if err := database.DB.
			Where("customer_id = ?", customer.ID).
			Order("created_at DESC, id DESC").
			Limit(200).
			Find(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar os pontos")
		}

		return c.JSON(fiber.Map{
			"customer_id": customer.ID,
			"balance":     customer.LoyaltyPoints,
			"entries":     entries,
		})
	}
}

// POST /api/customers/:id/loyalty/redeem
// Resgate vira entrada negativa no ledger; o valor devolvido é o desconto
// que o operador aplica na venda.
func RedeemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var body RedeemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}
		if body.Points <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "points deve ser maior que zero")
		}

		var customer models.Customer
		if err := database.DB.First(&customer, "id = ? AND status = ?", id, models.StatusActive).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Cliente não encontrado")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			// Decremento condicional: duas requisições concorrentes não
			// resgatam o mesmo saldo duas vezes
			res := tx.Model(&models.Customer{}).
				Where("id = ? AND loyalty_points >= ?", customer.ID, body.Points).
				Update("loyalty_points", gorm.Expr("loyalty_points - ?", body.Points))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fiber.NewError(fiber.StatusConflict,
					fmt.Sprintf("Saldo insuficiente: %d pontos disponíveis", customer.LoyaltyPoints))
			}

			entry := models.LoyaltyEntry{
				CustomerID: customer.ID,
				Points:     -body.Points,
				Reason:     "resgate de pontos",
			}
			return tx.Create(&entry).Error
		})
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível resgatar os pontos")
		}

		value := pointValue.Mul(decimal.NewFromInt(int64(body.Points)))
		return c.JSON(fiber.Map{
			"customer_id":    customer.ID,
			"points":         body.Points,
			"discount_value": value,
			"balance":        customer.LoyaltyPoints - body.Points,
		})
	}
}
