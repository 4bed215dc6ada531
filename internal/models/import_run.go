package models

import "time"

// ImportRun: resumo de uma importação de produtos via CSV.
type ImportRun struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	Filename     string           `gorm:"size:255;not null" json:"filename"`
	EmployeeID   uint             `gorm:"index;not null" json:"employee_id"`
	RowCount     int              `gorm:"not null" json:"row_count"`
	SuccessCount int              `gorm:"not null" json:"success_count"`
	ErrorCount   int              `gorm:"not null" json:"error_count"`
	Errors       []ImportRowError `gorm:"foreignKey:ImportRunID" json:"errors"`
	CreatedAt    time.Time        `json:"created_at"`
}

type ImportRowError struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ImportRunID uint   `gorm:"index;not null" json:"import_run_id"`
	Row         int    `gorm:"not null" json:"row"`
	Message     string `gorm:"size:255;not null" json:"message"`
}
