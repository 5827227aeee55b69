package database

import (
	"context"
	"fmt"
	"strings"
)

// Column types written as {{placeholders}} in the table definitions below.
var dialectTypes = map[Dialect]map[string]string{
	MySQL: {
		"{{pk}}":     "BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY",
		"{{ref}}":    "BIGINT UNSIGNED",
		"{{float}}":  "DOUBLE",
		"{{blob}}":   "LONGTEXT",
		"{{time}}":   "DATETIME",
		"{{engine}}": " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
	},
	SQLite: {
		"{{pk}}":     "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ref}}":    "INTEGER",
		"{{float}}":  "REAL",
		"{{blob}}":   "TEXT",
		"{{time}}":   "DATETIME",
		"{{engine}}": "",
	},
	Postgres: {
		"{{pk}}":     "BIGSERIAL PRIMARY KEY",
		"{{ref}}":    "BIGINT",
		"{{float}}":  "DOUBLE PRECISION",
		"{{blob}}":   "TEXT",
		"{{time}}":   "TIMESTAMP",
		"{{engine}}": "",
	},
}

// tables are listed parent-first so foreign keys always resolve.
var tables = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id {{pk}},
		username VARCHAR(255) NOT NULL,
		password VARCHAR(255) NOT NULL,
		points BIGINT NOT NULL DEFAULT 0,
		volunteered_minutes BIGINT NOT NULL DEFAULT 0,
		CONSTRAINT uq_users_username UNIQUE (username)
	){{engine}}`,
	`CREATE TABLE IF NOT EXISTS parks (
		id {{pk}},
		name VARCHAR(255) NOT NULL,
		longitude {{float}} NOT NULL,
		latitude {{float}} NOT NULL
	){{engine}}`,
	`CREATE TABLE IF NOT EXISTS spots (
		id {{pk}},
		name VARCHAR(255) NOT NULL,
		longitude {{float}} NOT NULL,
		latitude {{float}} NOT NULL,
		park_id {{ref}} NOT NULL,
		suggester_id {{ref}} NULL,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		CONSTRAINT fk_spots_park FOREIGN KEY (park_id) REFERENCES parks (id),
		CONSTRAINT fk_spots_suggester FOREIGN KEY (suggester_id) REFERENCES users (id)
	){{engine}}`,
	`CREATE TABLE IF NOT EXISTS actions (
		id {{pk}},
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		spot_id {{ref}} NOT NULL,
		time {{time}} NOT NULL,
		minute_duration BIGINT NOT NULL DEFAULT 0,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		CONSTRAINT fk_actions_spot FOREIGN KEY (spot_id) REFERENCES spots (id)
	){{engine}}`,
	`CREATE TABLE IF NOT EXISTS action_categories (
		id {{pk}},
		name VARCHAR(255) NOT NULL,
		point BIGINT NOT NULL DEFAULT 0,
		CONSTRAINT uq_action_categories_name UNIQUE (name)
	){{engine}}`,
	`CREATE TABLE IF NOT EXISTS action_users (
		action_id {{ref}} NOT NULL,
		user_id {{ref}} NOT NULL,
		PRIMARY KEY (action_id, user_id),
		CONSTRAINT fk_action_users_action FOREIGN KEY (action_id) REFERENCES actions (id),
		CONSTRAINT fk_action_users_user FOREIGN KEY (user_id) REFERENCES users (id)
	){{engine}}`,
	`CREATE TABLE IF NOT EXISTS action_category_links (
		action_id {{ref}} NOT NULL,
		category_id {{ref}} NOT NULL,
		PRIMARY KEY (action_id, category_id),
		CONSTRAINT fk_action_category_links_action FOREIGN KEY (action_id) REFERENCES actions (id),
		CONSTRAINT fk_action_category_links_category FOREIGN KEY (category_id) REFERENCES action_categories (id)
	){{engine}}`,
	`CREATE TABLE IF NOT EXISTS shopping_items (
		id {{pk}},
		name VARCHAR(255) NOT NULL,
		price {{float}} NOT NULL,
		description TEXT NOT NULL
	){{engine}}`,
	`CREATE TABLE IF NOT EXISTS images (
		id {{pk}},
		payload {{blob}} NOT NULL,
		shopping_item_id {{ref}} NULL,
		action_id {{ref}} NULL,
		spot_id {{ref}} NULL,
		user_id {{ref}} NULL,
		CONSTRAINT fk_images_shopping_item FOREIGN KEY (shopping_item_id) REFERENCES shopping_items (id),
		CONSTRAINT fk_images_action FOREIGN KEY (action_id) REFERENCES actions (id),
		CONSTRAINT fk_images_spot FOREIGN KEY (spot_id) REFERENCES spots (id),
		CONSTRAINT fk_images_user FOREIGN KEY (user_id) REFERENCES users (id)
	){{engine}}`,
}

// InnoDB indexes foreign key columns on its own; the other engines need
// explicit indexes for the lookups the repositories run.
var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_spots_park ON spots (park_id, is_verified)`,
	`CREATE INDEX IF NOT EXISTS idx_spots_suggester ON spots (suggester_id)`,
	`CREATE INDEX IF NOT EXISTS idx_actions_spot ON actions (spot_id, is_verified)`,
	`CREATE INDEX IF NOT EXISTS idx_action_users_user ON action_users (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_action_category_links_category ON action_category_links (category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_images_action ON images (action_id)`,
	`CREATE INDEX IF NOT EXISTS idx_images_spot ON images (spot_id)`,
	`CREATE INDEX IF NOT EXISTS idx_images_user ON images (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_images_shopping_item ON images (shopping_item_id)`,
}

// Statements returns the DDL for d in execution order.
func Statements(d Dialect) []string {
	types, ok := dialectTypes[d]
	if !ok {
		return nil
	}
	pairs := make([]string, 0, len(types)*2)
	for k, v := range types {
		pairs = append(pairs, k, v)
	}
	r := strings.NewReplacer(pairs...)

	out := make([]string, 0, len(tables)+len(indexes))
	for _, t := range tables {
		out = append(out, r.Replace(t))
	}
	if d != MySQL {
		out = append(out, indexes...)
	}
	return out
}

// Migrate creates every table and index that does not exist yet.  It is
// safe to run on every start.
func Migrate(ctx context.Context, db *DB) error {
	stmts := Statements(db.Dialect)
	if len(stmts) == 0 {
		return fmt.Errorf("no schema for dialect %q", db.Dialect)
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
