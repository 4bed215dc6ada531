package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TabStatus string

const (
	TabOpen      TabStatus = "OPEN"
	TabClosed    TabStatus = "CLOSED"
	TabCancelled TabStatus = "CANCELLED"
)

// Tab (comanda): pré-venda mutável que vira uma Sale imutável ao fechar.
type Tab struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Number     int64           `gorm:"uniqueIndex;not null" json:"number"`
	Label      string          `gorm:"size:80;not null" json:"label"`
	CustomerID *uint           `gorm:"index" json:"customer_id"`
	Customer   *Customer       `json:"customer,omitempty"`
	EmployeeID uint            `gorm:"index;not null" json:"employee_id"`
	Subtotal   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Discount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Status     TabStatus       `gorm:"size:20;not null;index" json:"status"`
	// Preenchido no fechamento com a venda gerada
	SaleID    *uint     `gorm:"index" json:"sale_id"`
	Items     []TabItem `gorm:"foreignKey:TabID" json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TabItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	TabID     uint    `gorm:"index;not null" json:"tab_id"`
	ProductID uint    `gorm:"index;not null" json:"product_id"`
	Product   Product `json:"-"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	// Snapshot do preço de venda na hora em que o item entrou na comanda
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	LineTotal decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`
}
