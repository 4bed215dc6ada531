package database

import (
	"fmt"

	"pdv-backend/internal/models"

	"gorm.io/gorm"
)

// NextNumber aloca o próximo valor de uma sequência dentro da transação tx.
// O UPDATE segura o lock da linha até o commit, então duas transações
// concorrentes nunca recebem o mesmo número.
func NextNumber(tx *gorm.DB, name string) (int64, error) {
	res := tx.Model(&models.Counter{}).
		Where("name = ?", name).
		Update("value", gorm.Expr("value + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("contador %q não existe", name)
	}

	var counter models.Counter
	if err := tx.Where("name = ?", name).First(&counter).Error; err != nil {
		return 0, err
	}
	return counter.Value, nil
}
