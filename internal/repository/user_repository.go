package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/dstav/slate/internal/utils"
)

// User mirrors the 'users' table. CurrentNote is the denormalized body of
// the user's latest note, kept in step by NoteRepo.CreateTx and reset by
// the clear paths.
type User struct {
	ID           uint64
	Username     string
	PasswordHash string
	CurrentNote  string
	CreatedAt    time.Time
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user with an empty current note and returns its ID.
func (r *UserRepo) Create(ctx context.Context, username, password string, cost int) (uint64, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, current_note) VALUES (?,?,'')",
		username, hash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrUserExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by normalized username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	var u User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,password_hash,current_note,created_at FROM users WHERE username=? LIMIT 1",
		username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CurrentNote, &u.CreatedAt)
	return u, err
}

// List returns all users ordered by username. Password hashes are not
// included; the result feeds the admin listing only.
func (r *UserRepo) List(ctx context.Context) ([]User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,username,current_note,created_at FROM users ORDER BY username")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.CurrentNote, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SetCurrentNoteTx updates one user's denormalized latest note inside the
// caller's transaction.
func (r *UserRepo) SetCurrentNoteTx(ctx context.Context, tx *sql.Tx, username, note string) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE users SET current_note=? WHERE username=?", note, username)
	return err
}

// ResetCurrentNotesTx blanks current_note for every user. Used by the clear
// executor after the notes table has been emptied in the same transaction.
func (r *UserRepo) ResetCurrentNotesTx(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, "UPDATE users SET current_note=''")
	return err
}

// DeleteTx removes a user row inside the caller's transaction. The notes
// foreign key cascades, but callers delete notes explicitly first so image
// blobs can be released.
func (r *UserRepo) DeleteTx(ctx context.Context, tx *sql.Tx, username string) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE username=?", username)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
