package database

import (
	"context"
	"database/sql"
)

// DDL statements executed at startup. Both tables are created lazily so a
// fresh database needs no external migration step. Notes cascade when their
// owner row is removed.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		username      VARCHAR(255)    NOT NULL,
		password_hash VARCHAR(255)    NOT NULL,
		current_note  TEXT            NOT NULL,
		created_at    TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_username (username)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS notes (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		username   VARCHAR(255)    NOT NULL,
		body       TEXT            NOT NULL,
		image_url  VARCHAR(512)    NULL,
		link_url   VARCHAR(2048)   NULL,
		created_at TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_notes_created (created_at, id),
		KEY idx_notes_username (username),
		CONSTRAINT fk_notes_user FOREIGN KEY (username)
			REFERENCES users (username) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
