package database

import (
	"log"

	"pdv-backend/internal/config"
	"pdv-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Não foi possível conectar ao banco: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("Erro no AutoMigrate: %v", err)
	}

	log.Println("Conexão com o banco OK. Migration concluída.")
}

// Migrate roda o AutoMigrate de todos os models. Separado do Init para os
// testes poderem migrar um banco em memória.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Employee{},
		&models.Customer{},
		&models.Product{},
		&models.Counter{},
		&models.Sale{},
		&models.SaleItem{},
		&models.Tab{},
		&models.TabItem{},
		&models.CashSession{},
		&models.StockMovement{},
		&models.PaymentTransaction{},
		&models.LoyaltyEntry{},
		&models.ImportRun{},
		&models.ImportRowError{},
		&models.AuditLog{},
	); err != nil {
		return err
	}

	// Garante as linhas de contador (venda e comanda) sem estourar em restart
	for _, name := range []string{models.CounterSaleNumber, models.CounterTabNumber} {
		var count int64
		db.Model(&models.Counter{}).Where("name = ?", name).Count(&count)
		if count == 0 {
			if err := db.Create(&models.Counter{Name: name, Value: 0}).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
