package models

// Counter: sequências monotônicas (número de venda, número de comanda).
// O incremento acontece via UPDATE atômico dentro da mesma transação que
// cria a entidade, evitando colisão sob requisições concorrentes.
type Counter struct {
	ID    uint   `gorm:"primaryKey"`
	Name  string `gorm:"size:40;uniqueIndex;not null"`
	Value int64  `gorm:"not null;default:0"`
}

const (
	CounterSaleNumber = "sale_number"
	CounterTabNumber  = "tab_number"
)
