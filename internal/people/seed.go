package people

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	_names    = []string{"Mario", "Giulia", "Luca", "Francesca", "Marco", "Chiara", "Andrea", "Sara", "Matteo", "Elena"}
	_surnames = []string{"Rossi", "Russo", "Ferrari", "Esposito", "Bianchi", "Romano", "Colombo", "Ricci", "Marino", "Greco"}
	_cities   = []string{"Roma", "Milano", "Napoli", "Torino", "Palermo", "Genova", "Bologna", "Firenze", "Bari", "Catania"}
	_province = []string{"RM", "MI", "NA", "TO", "PA", "GE", "BO", "FI", "BA", "CT"}
)

// Migrate creates or updates the demo tables.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&Address{}, &Person{}); err != nil {
		return fmt.Errorf("failed to migrate people schema: %w", err)
	}

	return nil
}

// Seed inserts count people with IDs 1..count, each with its own address.
// Data is deterministic and rows that already exist are left alone, so
// seeding twice is harmless.
func Seed(ctx context.Context, db *gorm.DB, count int) error {
	if count <= 0 {
		return nil
	}

	addresses := make([]Address, 0, count)
	persons := make([]Person, 0, count)
	for i := 0; i < count; i++ {
		addresses = append(addresses, Address{
			ID:       i + 1,
			City:     _cities[i%len(_cities)],
			ZipCode:  fmt.Sprintf("%05d", 10100+i*37),
			Province: _province[i%len(_province)],
		})
		persons = append(persons, Person{
			ID:        i + 1,
			Surname:   _surnames[(i*3)%len(_surnames)],
			Name:      _names[i%len(_names)],
			AddressID: i + 1,
		})
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skipExisting := clause.OnConflict{DoNothing: true}
		if err := tx.Clauses(skipExisting).Create(&addresses).Error; err != nil {
			return fmt.Errorf("failed to seed addresses: %w", err)
		}
		if err := tx.Clauses(skipExisting).Omit("Address").Create(&persons).Error; err != nil {
			return fmt.Errorf("failed to seed persons: %w", err)
		}

		return nil
	})
}
