package models

import "time"

// LoyaltyEntry: ledger de pontos do cliente, só-inserção como o estoque.
// Points é assinado: acúmulo positivo, resgate negativo.
type LoyaltyEntry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CustomerID uint      `gorm:"index;not null" json:"customer_id"`
	Customer   Customer  `json:"-"`
	SaleID     *uint     `gorm:"index" json:"sale_id"`
	Points     int       `gorm:"not null" json:"points"`
	Reason     string    `gorm:"size:255" json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}
