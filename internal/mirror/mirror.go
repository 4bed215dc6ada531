// Package mirror mantém o espelho SQLite local consumido pelo desktop
// (Electron) quando o servidor está fora do ar. O shell chama estes
// métodos por IPC; nada aqui passa por HTTP.
package mirror

import (
	"fmt"

	"pdv-backend/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Mirror struct {
	db *gorm.DB
}

// Open abre (ou cria) o banco local. path "file::memory:?cache=shared"
// serve para testes.
func Open(path string) (*Mirror, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("não foi possível abrir o espelho local: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Product{},
		&models.Customer{},
		&models.Employee{},
		&PendingOperation{},
	); err != nil {
		return nil, fmt.Errorf("migração do espelho falhou: %w", err)
	}

	return &Mirror{db: db}, nil
}

// SyncFromServer substitui o snapshot local pelo estado atual do servidor:
// produtos e clientes ativos mais o cadastro de funcionários (o hash de
// senha vai junto para permitir login offline). A fila pendente é mantida.
func (m *Mirror) SyncFromServer(server *gorm.DB) error {
	var products []models.Product
	if err := server.Where("status = ?", models.StatusActive).Find(&products).Error; err != nil {
		return err
	}
	var customers []models.Customer
	if err := server.Where("status = ?", models.StatusActive).Find(&customers).Error; err != nil {
		return err
	}
	var employees []models.Employee
	if err := server.Find(&employees).Error; err != nil {
		return err
	}

	return m.db.Transaction(func(tx *gorm.DB) error {
		for _, table := range []any{&models.Product{}, &models.Customer{}, &models.Employee{}} {
			if err := tx.Where("1 = 1").Delete(table).Error; err != nil {
				return err
			}
		}
		if len(products) > 0 {
			if err := tx.Create(&products).Error; err != nil {
				return err
			}
		}
		if len(customers) > 0 {
			if err := tx.Create(&customers).Error; err != nil {
				return err
			}
		}
		if len(employees) > 0 {
			if err := tx.Create(&employees).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Products: catálogo local para a tela de venda offline.
func (m *Mirror) Products() ([]models.Product, error) {
	var products []models.Product
	err := m.db.Order("name ASC").Find(&products).Error
	return products, err
}

func (m *Mirror) ProductByBarcode(code string) (*models.Product, error) {
	var product models.Product
	if err := m.db.First(&product, "barcode = ?", code).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (m *Mirror) Customers() ([]models.Customer, error) {
	var customers []models.Customer
	err := m.db.Order("name ASC").Find(&customers).Error
	return customers, err
}

func (m *Mirror) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
