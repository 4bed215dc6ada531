package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentTxStatus string

const (
	PaymentTxApproved PaymentTxStatus = "APPROVED"
	PaymentTxDeclined PaymentTxStatus = "DECLINED"
)

// PaymentTransaction: resultado de uma autorização no gateway (simulado).
type PaymentTransaction struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	UUID              string          `gorm:"size:36;uniqueIndex;not null" json:"uuid"`
	SaleID            *uint           `gorm:"index" json:"sale_id"`
	Gateway           string          `gorm:"size:40;not null" json:"gateway"`
	Method            PaymentMethod   `gorm:"size:20;not null" json:"method"`
	Amount            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status            PaymentTxStatus `gorm:"size:10;not null;index" json:"status"`
	AuthorizationCode string          `gorm:"size:20" json:"authorization_code"`
	// Só para cartão
	CardBrand string `gorm:"size:20" json:"card_brand,omitempty"`
	// Só para PIX
	PixTxID     string    `gorm:"size:36" json:"pix_tx_id,omitempty"`
	PixCopyCode string    `gorm:"size:255" json:"pix_copy_code,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
