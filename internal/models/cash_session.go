package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CashSessionStatus string

const (
	CashSessionOpen   CashSessionStatus = "OPEN"
	CashSessionClosed CashSessionStatus = "CLOSED"
)

// CashSession: período de trabalho de um operador no caixa.
// No máximo uma sessão OPEN por funcionário: além da checagem na
// transação de abertura, o índice único parcial garante no banco.
type CashSession struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	EmployeeID    uint            `gorm:"not null;index:idx_cash_sessions_open_employee,unique,where:status = 'OPEN'" json:"employee_id"`
	Employee      Employee        `json:"-"`
	OpeningAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"opening_amount"`
	OpenedAt      time.Time       `gorm:"not null" json:"opened_at"`
	// Preenchidos no fechamento
	ClosingAmount  *decimal.Decimal  `gorm:"type:decimal(12,2)" json:"closing_amount"`
	ExpectedAmount *decimal.Decimal  `gorm:"type:decimal(12,2)" json:"expected_amount"`
	Discrepancy    *decimal.Decimal  `gorm:"type:decimal(12,2)" json:"discrepancy"`
	ClosedAt       *time.Time        `json:"closed_at"`
	Status         CashSessionStatus `gorm:"size:10;not null;index" json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}
