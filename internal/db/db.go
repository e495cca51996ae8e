package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pulse/internal/command"
	"pulse/internal/content"
	"pulse/internal/inventory"
	"pulse/internal/order"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&command.Command{},
		&inventory.Item{},
		&order.Order{},
		&content.Creative{},
	); err != nil {
		return err
	}

	// Queue scans: claim looks for oldest pending, reclaim for stale claims.
	stmts := []string{
		`create index if not exists idx_commands_claim on commands(status, created_at);`,
		`create index if not exists idx_commands_stale on commands(status, claimed_at);`,
		`create index if not exists idx_inventory_review on pulse_inventory(status, created_at desc);`,
		`create index if not exists idx_orders_status on orders(status, created_at desc);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
