package database

import (
	"fmt"
	"testing"

	"pdv-backend/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openSequenceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestNextNumberIsSequential(t *testing.T) {
	db := openSequenceTestDB(t)

	for want := int64(1); want <= 5; want++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			got, err := NextNumber(tx, models.CounterSaleNumber)
			if err != nil {
				return err
			}
			if got != want {
				t.Fatalf("expected %d got %d", want, got)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("tx: %v", err)
		}
	}
}

func TestNextNumberSequencesAreIndependent(t *testing.T) {
	db := openSequenceTestDB(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := NextNumber(tx, models.CounterSaleNumber); err != nil {
			return err
		}
		if _, err := NextNumber(tx, models.CounterSaleNumber); err != nil {
			return err
		}
		got, err := NextNumber(tx, models.CounterTabNumber)
		if err != nil {
			return err
		}
		if got != 1 {
			t.Fatalf("tab sequence must start at 1, got %d", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
}

func TestNextNumberUnknownCounter(t *testing.T) {
	db := openSequenceTestDB(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := NextNumber(tx, "inexistente")
		return err
	})
	if err == nil {
		t.Fatal("expected error for unknown counter")
	}
}

func TestMigrateSeedsCountersOnce(t *testing.T) {
	db := openSequenceTestDB(t)

	// Rodar de novo não pode duplicar nem zerar
	if err := db.Transaction(func(tx *gorm.DB) error {
		_, err := NextNumber(tx, models.CounterSaleNumber)
		return err
	}); err != nil {
		t.Fatalf("tx: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("re-migrate: %v", err)
	}

	var counters []models.Counter
	if err := db.Where("name = ?", models.CounterSaleNumber).Find(&counters).Error; err != nil {
		t.Fatalf("counters: %v", err)
	}
	if len(counters) != 1 {
		t.Fatalf("expected 1 counter row got %d", len(counters))
	}
	if counters[0].Value != 1 {
		t.Fatalf("value must survive re-migrate, got %d", counters[0].Value)
	}
}
