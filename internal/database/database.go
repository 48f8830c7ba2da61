package database

import (
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"bookadmin/internal/domain"
)

// Connect opens PostgreSQL for postgres:// DSNs, otherwise a local SQLite
// file (or :memory: in tests) through the cgo-free driver.
func Connect(dsn string) (*gorm.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}

	return gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		&gorm.Config{},
	)
}

// Migrate creates the schema plus the indexes the capacity and idempotence
// guarantees rely on.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Organization{},
		&domain.Service{},
		&domain.Slot{},
		&domain.Appointment{},
	); err != nil {
		return err
	}

	// Duplicate generation requests must not create duplicate slots.
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_slots_service_interval
		 ON slots (service_id, start_time, end_time)`,
	).Error; err != nil {
		return err
	}

	return db.Exec(
		`CREATE INDEX IF NOT EXISTS idx_appointments_slot_status
		 ON appointments (slot_id, status)`,
	).Error
}
