package models

import "time"

type MovementKind string

const (
	MovementIn     MovementKind = "IN"
	MovementOut    MovementKind = "OUT"
	MovementAdjust MovementKind = "ADJUST"
)

// StockMovement: trilha de auditoria do estoque. Nunca é alterada nem
// apagada; a quantidade é sempre positiva e a direção vem do Kind.
type StockMovement struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	ProductID  uint         `gorm:"index;not null" json:"product_id"`
	Product    Product      `json:"-"`
	Kind       MovementKind `gorm:"size:10;not null;index" json:"kind"`
	Quantity   int          `gorm:"not null" json:"quantity"`
	Reason     string       `gorm:"size:255" json:"reason"`
	EmployeeID uint         `gorm:"index;not null" json:"employee_id"`
	SaleID     *uint        `gorm:"index" json:"sale_id"`
	TabID      *uint        `gorm:"index" json:"tab_id"`
	CreatedAt  time.Time    `gorm:"index" json:"created_at"`
}
