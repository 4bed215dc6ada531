package models

import "time"

type Customer struct {
	ID    uint    `gorm:"primaryKey" json:"id"`
	Name  string  `gorm:"size:150;not null" json:"name"`
	CPF   *string `gorm:"size:14;uniqueIndex" json:"cpf"`
	Email string  `gorm:"size:100" json:"email"`
	Phone string  `gorm:"size:20" json:"phone"`
	// Saldo denormalizado: o ledger em LoyaltyEntry é a fonte da verdade
	LoyaltyPoints int          `gorm:"not null;default:0" json:"loyalty_points"`
	Status        EntityStatus `gorm:"size:10;not null;default:'ACTIVE';index" json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}
