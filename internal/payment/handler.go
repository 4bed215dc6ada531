package payment

import (
	"pdv-backend/internal/database"
	"pdv-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AuthorizeRequest struct {
	Method models.PaymentMethod `json:"method"`
	Amount decimal.Decimal      `json:"amount"`
	SaleID *uint                `json:"sale_id"`
}

// POST /api/payments/authorize
// Aprovada ou recusada, a transação fica registrada.
func AuthorizeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AuthorizeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}
		if body.Amount.IsNegative() || body.Amount.IsZero() {
			return fiber.NewError(fiber.StatusBadRequest, "Valor deve ser maior que zero")
		}

		gw, err := ForMethod(body.Method)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Método sem gateway (use CARTAO_CREDITO, CARTAO_DEBITO ou PIX)")
		}

		if body.SaleID != nil {
			var sale models.Sale
			if err := database.DB.First(&sale, *body.SaleID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Venda não encontrada")
			}
		}

		authz, err := gw.Authorize(body.Method, body.Amount)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Falha no gateway de pagamento")
		}

		txn := models.PaymentTransaction{
			UUID:              uuid.NewString(),
			SaleID:            body.SaleID,
			Gateway:           gw.Name(),
			Method:            body.Method,
			Amount:            body.Amount,
			Status:            models.PaymentTxApproved,
			AuthorizationCode: authz.AuthorizationCode,
			CardBrand:         authz.CardBrand,
			PixTxID:           authz.PixTxID,
			PixCopyCode:       authz.PixCopyCode,
		}
		if !authz.Approved {
			txn.Status = models.PaymentTxDeclined
			txn.AuthorizationCode = ""
		}

		if err := database.DB.Create(&txn).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível registrar a transação")
		}

		if txn.Status == models.PaymentTxDeclined {
			return c.Status(fiber.StatusPaymentRequired).JSON(txn)
		}
		return c.Status(fiber.StatusCreated).JSON(txn)
	}
}

// GET /api/payments?sale_id=1&status=APPROVED
func ListPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.PaymentTransaction{})

		if sid := c.QueryInt("sale_id"); sid > 0 {
			dbq = dbq.Where("sale_id = ?", sid)
		}
		if status := c.Query("status"); status != "" {
			switch models.PaymentTxStatus(status) {
			case models.PaymentTxApproved, models.PaymentTxDeclined:
				dbq = dbq.Where("status = ?", status)
			default:
				return fiber.NewError(fiber.StatusBadRequest, "status inválido (APPROVED|DECLINED)")
			}
		}

		var txns []models.PaymentTransaction
		if err := dbq.Order("created_at DESC").Limit(200).Find(&txns).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar as transações")
		}

		return c.JSON(txns)
	}
}
