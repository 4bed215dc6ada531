package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Code      string          `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Barcode   *string         `gorm:"size:50;uniqueIndex" json:"barcode"`
	Name      string          `gorm:"size:150;not null" json:"name"`
	Category  string          `gorm:"size:80;not null;index" json:"category"`
	CostPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"cost_price"`
	SalePrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"sale_price"`
	// Stock só muda via movimentação de estoque ou venda, nunca direto
	Stock     int          `gorm:"not null;default:0" json:"stock"`
	MinStock  int          `gorm:"not null;default:0" json:"min_stock"`
	Status    EntityStatus `gorm:"size:10;not null;default:'ACTIVE';index" json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
