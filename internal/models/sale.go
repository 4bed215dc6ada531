package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "DINHEIRO"
	PaymentCredit PaymentMethod = "CARTAO_CREDITO"
	PaymentDebit  PaymentMethod = "CARTAO_DEBITO"
	PaymentPix    PaymentMethod = "PIX"
)

func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentCash, PaymentCredit, PaymentDebit, PaymentPix:
		return true
	}
	return false
}

type SaleStatus string

const (
	SaleCompleted SaleStatus = "COMPLETED"
	SaleCancelled SaleStatus = "CANCELLED"
)

type Sale struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Number        int64           `gorm:"uniqueIndex;not null" json:"number"`
	CustomerID    *uint           `gorm:"index" json:"customer_id"`
	Customer      *Customer       `json:"customer,omitempty"`
	EmployeeID    uint            `gorm:"index;not null" json:"employee_id"`
	Employee      Employee        `json:"-"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Discount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	PaymentMethod PaymentMethod   `gorm:"size:20;not null" json:"payment_method"`
	Status        SaleStatus      `gorm:"size:20;not null;index" json:"status"`
	Items         []SaleItem      `gorm:"foreignKey:SaleID" json:"items"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// SaleItem congela o preço unitário no momento da venda;
// alterações posteriores no produto não mexem em vendas já feitas.
type SaleItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	SaleID    uint            `gorm:"index;not null" json:"sale_id"`
	ProductID uint            `gorm:"index;not null" json:"product_id"`
	Product   Product         `json:"-"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	LineTotal decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`
}
