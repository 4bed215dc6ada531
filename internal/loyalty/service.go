package loyalty

import (
	"fmt"

	"pdv-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Um ponto por real inteiro da venda.
func PointsForTotal(total decimal.Decimal) int {
	return int(total.IntPart())
}

// Accrue credita os pontos de uma venda dentro da transação da própria
// venda: entrada no ledger + saldo denormalizado juntos. O motivo usa o
// número da venda, o mesmo identificador das movimentações de estoque.
func Accrue(tx *gorm.DB, customerID uint, sale *models.Sale) error {
	points := PointsForTotal(sale.Total)
	if points <= 0 {
		return nil
	}

	entry := models.LoyaltyEntry{
		CustomerID: customerID,
		SaleID:     &sale.ID,
		Points:     points,
		Reason:     fmt.Sprintf("venda #%d", sale.Number),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return err
	}

	return tx.Model(&models.Customer{}).
		Where("id = ?", customerID).
		Update("loyalty_points", gorm.Expr("loyalty_points + ?", points)).Error
}
