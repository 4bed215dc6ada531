package cashier

import (
	"fmt"
	"time"

	"pdv-backend/internal/audit"
	"pdv-backend/internal/auth"
	"pdv-backend/internal/database"
	"pdv-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OpenSessionRequest struct {
	OpeningAmount decimal.Decimal `json:"opening_amount"`
}

type CloseSessionRequest struct {
	ClosingAmount decimal.Decimal `json:"closing_amount"`
}

// SessionSummary: conferência do caixa. Esperado = abertura + vendas em
// dinheiro; divergência = declarado − esperado (positivo = sobra).
type SessionSummary struct {
	OpeningAmount  decimal.Decimal  `json:"opening_amount"`
	TotalSales     decimal.Decimal  `json:"total_sales"`
	CashTotal      decimal.Decimal  `json:"cash_total"`
	ExpectedAmount decimal.Decimal  `json:"expected_amount"`
	ReportedAmount *decimal.Decimal `json:"reported_amount"`
	Discrepancy    *decimal.Decimal `json:"discrepancy"`
	SaleCount      int64            `json:"sale_count"`
}

// summarize agrega as vendas COMPLETED do funcionário desde a abertura.
// Só leitura: a mesma conta vale para a consulta da sessão corrente e
// para o fechamento.
func summarize(db *gorm.DB, session *models.CashSession) (*SessionSummary, error) {
	base := db.Model(&models.Sale{}).
		Where("employee_id = ? AND status = ? AND created_at >= ?",
			session.EmployeeID, models.SaleCompleted, session.OpenedAt)

	var saleCount int64
	if err := base.Session(&gorm.Session{}).Count(&saleCount).Error; err != nil {
		return nil, err
	}

	type sumRow struct {
		Total decimal.Decimal `gorm:"column:total"`
	}

	var totalRow sumRow
	if err := base.Session(&gorm.Session{}).
		Select("COALESCE(SUM(total), 0) as total").
		Scan(&totalRow).Error; err != nil {
		return nil, err
	}

	var cashRow sumRow
	if err := base.Session(&gorm.Session{}).
		Where("payment_method = ?", models.PaymentCash).
		Select("COALESCE(SUM(total), 0) as total").
		Scan(&cashRow).Error; err != nil {
		return nil, err
	}

	return &SessionSummary{
		OpeningAmount:  session.OpeningAmount,
		TotalSales:     totalRow.Total,
		CashTotal:      cashRow.Total,
		ExpectedAmount: session.OpeningAmount.Add(cashRow.Total),
		SaleCount:      saleCount,
	}, nil
}

func openSessionFor(empID uint) (*models.CashSession, error) {
	var session models.CashSession
	err := database.DB.
		Where("employee_id = ? AND status = ?", empID, models.CashSessionOpen).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// POST /api/cash-sessions/open
func OpenSessionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body OpenSessionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}
		if body.OpeningAmount.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "Valor de abertura não pode ser negativo")
		}

		empID, err := auth.EmployeeID(c)
		if err != nil {
			return err
		}

		session := models.CashSession{
			EmployeeID:    empID,
			OpeningAmount: body.OpeningAmount,
			OpenedAt:      time.Now(),
			Status:        models.CashSessionOpen,
		}

		// Checagem e criação na mesma transação: no máximo uma OPEN por operador
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.CashSession{}).
				Where("employee_id = ? AND status = ?", empID, models.CashSessionOpen).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return fiber.NewError(fiber.StatusConflict, "Você já tem um caixa aberto")
			}
			return tx.Create(&session).Error
		})
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível abrir o caixa")
		}

		return c.Status(fiber.StatusCreated).JSON(session)
	}
}

// GET /api/cash-sessions/current
// Mesma agregação do fechamento, sem mutar nada.
func CurrentSessionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		empID, err := auth.EmployeeID(c)
		if err != nil {
			return err
		}

		session, err := openSessionFor(empID)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Nenhum caixa aberto para você")
		}

		summary, err := summarize(database.DB, session)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível calcular o resumo")
		}

		return c.JSON(fiber.Map{
			"session": session,
			"summary": summary,
		})
	}
}

// POST /api/cash-sessions/close
func CloseSessionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CloseSessionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}
		if body.ClosingAmount.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "Valor de fechamento não pode ser negativo")
		}

		empID, err := auth.EmployeeID(c)
		if err != nil {
			return err
		}

		// Agregação e fechamento na mesma transação: uma venda commitada no
		// meio entraria na janela da sessão sem aparecer no esperado, e dois
		// fechamentos concorrentes fechariam o mesmo caixa duas vezes.
		var session *models.CashSession
		var summary *SessionSummary
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var open models.CashSession
			if err := tx.
				Where("employee_id = ? AND status = ?", empID, models.CashSessionOpen).
				First(&open).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Nenhum caixa aberto para você")
			}

			sum, err := summarize(tx, &open)
			if err != nil {
				return err
			}

			reported := body.ClosingAmount
			discrepancy := reported.Sub(sum.ExpectedAmount)
			sum.ReportedAmount = &reported
			sum.Discrepancy = &discrepancy

			now := time.Now()
			res := tx.Model(&models.CashSession{}).
				Where("id = ? AND status = ?", open.ID, models.CashSessionOpen).
				Updates(map[string]any{
					"closing_amount":  reported,
					"expected_amount": sum.ExpectedAmount,
					"discrepancy":     discrepancy,
					"closed_at":       now,
					"status":          models.CashSessionClosed,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fiber.NewError(fiber.StatusConflict, "Este caixa já foi fechado")
			}

			open.ClosingAmount = &reported
			open.ExpectedAmount = &sum.ExpectedAmount
			open.Discrepancy = &discrepancy
			open.ClosedAt = &now
			open.Status = models.CashSessionClosed

			session = &open
			summary = sum
			return nil
		})
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível fechar o caixa")
		}

		var emp models.Employee
		if err := database.DB.First(&emp, empID).Error; err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				EmployeeID:   empID,
				EmployeeName: emp.Name,
				EntityType:   "cash_session",
				EntityID:     session.ID,
				Action:       models.AuditActionUpdate,
				Description: fmt.Sprintf("Caixa fechado: esperado %s, declarado %s, divergência %s",
					summary.ExpectedAmount.StringFixed(2), summary.ReportedAmount.StringFixed(2), summary.Discrepancy.StringFixed(2)),
				After: summary,
			})
		}

		return c.JSON(fiber.Map{
			"session": session,
			"summary": summary,
		})
	}
}

// GET /api/cash-sessions (histórico, admin)
func ListSessionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.CashSession{})

		if status := c.Query("status"); status != "" {
			switch models.CashSessionStatus(status) {
			case models.CashSessionOpen, models.CashSessionClosed:
				dbq = dbq.Where("status = ?", status)
			default:
				return fiber.NewError(fiber.StatusBadRequest, "status inválido (OPEN|CLOSED)")
			}
		}
		if eid := c.QueryInt("employee_id"); eid > 0 {
			dbq = dbq.Where("employee_id = ?", eid)
		}

		var sessions []models.CashSession
		if err := dbq.Order("opened_at DESC").Limit(200).Find(&sessions).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar os caixas")
		}

		return c.JSON(sessions)
	}
}
