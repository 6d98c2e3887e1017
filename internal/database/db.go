package database

import (
	"fmt"

	"github.com/jinzhu/gorm"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Open opens the menu history database and runs migrations. Supported
// drivers: "sqlite3" and "postgres".
func Open(driver, source string) (*gorm.DB, error) {
	switch driver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}

	db, err := gorm.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if err := db.AutoMigrate(&MenuRecord{}).Error; err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate menu records: %w", err)
	}
	return db, nil
}
