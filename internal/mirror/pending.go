package mirror

import (
	"encoding/json"
	"fmt"
	"time"

	"pdv-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PendingOperation: operação feita offline aguardando replay contra o
// servidor. O replay em si não mora aqui; a fila só garante que nada se
// perde entre sessões.
type PendingOperation struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Kind      string     `gorm:"size:40;not null;index" json:"kind"`
	Payload   string     `gorm:"type:text;not null" json:"payload"`
	CreatedAt time.Time  `json:"created_at"`
	SyncedAt  *time.Time `json:"synced_at"`
}

const OpKindSale = "sale"

// OfflineSaleItem / OfflineSale: formato do payload gravado na fila.
type OfflineSaleItem struct {
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type OfflineSale struct {
	EmployeeID    uint                 `json:"employee_id"`
	CustomerID    *uint                `json:"customer_id"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Items         []OfflineSaleItem    `json:"items"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	Discount      decimal.Decimal      `json:"discount"`
	Total         decimal.Decimal      `json:"total"`
	SoldAt        time.Time            `json:"sold_at"`
}

// RecordSale registra uma venda offline: congela preços do snapshot local,
// baixa o estoque espelhado e enfileira o payload — tudo numa transação,
// igual ao caminho online.
func (m *Mirror) RecordSale(employeeID uint, customerID *uint, method models.PaymentMethod, discount decimal.Decimal, items []struct {
	ProductID uint
	Quantity  int
}) (*OfflineSale, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("venda sem itens")
	}
	if !models.ValidPaymentMethod(method) {
		return nil, fmt.Errorf("método de pagamento inválido: %s", method)
	}
	if discount.IsNegative() {
		return nil, fmt.Errorf("desconto negativo")
	}

	sale := &OfflineSale{
		EmployeeID:    employeeID,
		CustomerID:    customerID,
		PaymentMethod: method,
		Discount:      discount,
		Subtotal:      decimal.Zero,
		SoldAt:        time.Now(),
	}

	err := m.db.Transaction(func(tx *gorm.DB) error {
		for _, it := range items {
			if it.Quantity <= 0 {
				return fmt.Errorf("quantidade inválida para o produto %d", it.ProductID)
			}
			var product models.Product
			if err := tx.First(&product, it.ProductID).Error; err != nil {
				return fmt.Errorf("produto %d não está no espelho local", it.ProductID)
			}
			if it.Quantity > product.Stock {
				return fmt.Errorf("estoque local insuficiente para %s: disponível %d", product.Name, product.Stock)
			}

			lineTotal := product.SalePrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
			sale.Items = append(sale.Items, OfflineSaleItem{
				ProductID: product.ID,
				Quantity:  it.Quantity,
				UnitPrice: product.SalePrice,
				LineTotal: lineTotal,
			})
			sale.Subtotal = sale.Subtotal.Add(lineTotal)

			if err := tx.Model(&models.Product{}).
				Where("id = ?", product.ID).
				Update("stock", gorm.Expr("stock - ?", it.Quantity)).Error; err != nil {
				return err
			}
		}

		if discount.GreaterThan(sale.Subtotal) {
			return fmt.Errorf("desconto maior que o subtotal")
		}
		sale.Total = sale.Subtotal.Sub(discount)

		payload, err := json.Marshal(sale)
		if err != nil {
			return err
		}
		op := PendingOperation{Kind: OpKindSale, Payload: string(payload)}
		return tx.Create(&op).Error
	})
	if err != nil {
		return nil, err
	}

	return sale, nil
}

// Pending lista as operações ainda não sincronizadas, na ordem de criação.
func (m *Mirror) Pending() ([]PendingOperation, error) {
	var ops []PendingOperation
	err := m.db.Where("synced_at IS NULL").Order("created_at ASC, id ASC").Find(&ops).Error
	return ops, err
}

// MarkSynced marca a operação como replicada no servidor.
func (m *Mirror) MarkSynced(id uint) error {
	now := time.Now()
	res := m.db.Model(&PendingOperation{}).
		Where("id = ? AND synced_at IS NULL", id).
		Update("synced_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("operação %d não existe ou já foi sincronizada", id)
	}
	return nil
}
