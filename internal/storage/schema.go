// Package storage handles all database operations for the catalog backend.
package storage

import (
	"database/sql"
	"fmt"
)

// DefaultSettingsID is the id of the singleton site settings row seeded by InitSchema.
const DefaultSettingsID = 1

// productColumns lists the catalog columns shared by the live and staging tables.
const productColumns = "id, title, description, images, tag, fav, views, sort_order, created_at, user_id"

// InitSchema creates all required tables and indexes.
// This is idempotent - safe to call multiple times.
func InitSchema(db *sql.DB) error {
	// Execute all DDL statements
	ddlStatements := []string{
		// products table: the live catalog shown in the public feed
		`CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			images TEXT NOT NULL DEFAULT '[]',
			tag TEXT,
			fav INTEGER NOT NULL DEFAULT 300,
			views INTEGER NOT NULL DEFAULT 3000,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			user_id TEXT
		)`,

		// Index on sort_order for the ordered feed
		`CREATE INDEX IF NOT EXISTS idx_products_sort_order ON products(sort_order)`,

		// products_staging table: rows of an in-progress restore, swapped in on commit
		`CREATE TABLE IF NOT EXISTS products_staging (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id INTEGER UNIQUE,
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			images TEXT NOT NULL DEFAULT '[]',
			tag TEXT,
			fav INTEGER NOT NULL DEFAULT 300,
			views INTEGER NOT NULL DEFAULT 3000,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			user_id TEXT
		)`,

		// site_settings table: about/contact texts, one row per id
		`CREATE TABLE IF NOT EXISTS site_settings (
			id INTEGER PRIMARY KEY,
			about_text TEXT NOT NULL DEFAULT '',
			contact_text TEXT NOT NULL DEFAULT ''
		)`,

		// Seed the singleton settings row
		fmt.Sprintf(`INSERT OR IGNORE INTO site_settings (id, about_text, contact_text) VALUES (%d, '', '')`, DefaultSettingsID),

		// backups table: labelled snapshots, never mutated after insert
		`CREATE TABLE IF NOT EXISTS backups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			label TEXT NOT NULL,
			record_count INTEGER NOT NULL,
			data TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Index on created_at for newest-first listing
		`CREATE INDEX IF NOT EXISTS idx_backups_created_at ON backups(created_at)`,

		// restore_lock table: at most one row while a restore is running
		`CREATE TABLE IF NOT EXISTS restore_lock (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			holder TEXT NOT NULL,
			acquired_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	// Execute each DDL statement
	for _, stmt := range ddlStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute DDL: %w", err)
		}
	}

	return nil
}

// MigrateSchema checks current schema version and applies migrations.
// There is only one schema version so far.
func MigrateSchema(db *sql.DB) error {
	return InitSchema(db)
}
