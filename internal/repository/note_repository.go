package repository

import (
	"context"
	"database/sql"
	"time"
)

// NoteRecord mirrors the schema of the notes table. ImageURL and LinkURL
// are nullable; a nil pointer means the note carries no image or link.
type NoteRecord struct {
	ID        uint64
	Username  string
	Body      string
	ImageURL  *string
	LinkURL   *string
	CreatedAt time.Time
}

// NoteRepo provides data access to the shared note feed. Multi-statement
// operations take a *sql.Tx so callers control atomicity; a note insert and
// the owner's current_note update must land together, and the clear sweep
// must empty notes and reset users as one unit.
type NoteRepo struct {
	db *sql.DB
}

// NewNoteRepo returns a new NoteRepo bound to the given database.
func NewNoteRepo(db *sql.DB) *NoteRepo { return &NoteRepo{db: db} }

// CreateTx inserts a note and mirrors its body into the owner's
// current_note column within the provided transaction. It populates the
// generated ID and creation timestamp on the record. The caller must
// commit or rollback the transaction.
func (r *NoteRepo) CreateTx(ctx context.Context, tx *sql.Tx, n *NoteRecord) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO notes (username, body, image_url, link_url) VALUES (?,?,?,?)",
		n.Username, n.Body, n.ImageURL, n.LinkURL)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET current_note=? WHERE username=?", n.Body, n.Username); err != nil {
		return err
	}
	// Query back the generated timestamp so the response mirrors the row.
	return tx.QueryRowContext(ctx,
		"SELECT created_at FROM notes WHERE id=?", n.ID).Scan(&n.CreatedAt)
}

// ListAll returns the whole feed, newest first. Ties on created_at are
// broken by id so insertion order is never reshuffled within one second.
func (r *NoteRepo) ListAll(ctx context.Context) ([]NoteRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id,username,body,image_url,link_url,created_at FROM notes ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []NoteRecord
	for rows.Next() {
		var n NoteRecord
		var img, link sql.NullString
		if err := rows.Scan(&n.ID, &n.Username, &n.Body, &img, &link, &n.CreatedAt); err != nil {
			return nil, err
		}
		if img.Valid {
			v := img.String
			n.ImageURL = &v
		}
		if link.Valid {
			v := link.String
			n.LinkURL = &v
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// DeleteOne removes a single note owned by the given user and returns the
// image reference the row carried, if any, so the caller can release the
// blob. ErrNotFound is returned when the note does not exist or belongs to
// another user; the two cases are indistinguishable on purpose.
func (r *NoteRepo) DeleteOne(ctx context.Context, id uint64, username string) (*string, error) {
	var imageURL *string
	err := WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var img sql.NullString
		err := tx.QueryRowContext(ctx,
			"SELECT image_url FROM notes WHERE id=? AND username=?", id, username).Scan(&img)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			"DELETE FROM notes WHERE id=? AND username=?", id, username)
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
		if img.Valid {
			v := img.String
			imageURL = &v
		}
		// The owner may have deleted their latest note; recompute the
		// mirrored body from whatever remains.
		return syncCurrentNoteTx(ctx, tx, username)
	})
	if err != nil {
		return nil, err
	}
	return imageURL, nil
}

// ImageRefs returns every image reference currently attached to a note.
// The clear executor snapshots these before the authoritative delete.
func (r *NoteRepo) ImageRefs(ctx context.Context) ([]string, error) {
	return r.imageRefs(ctx, "SELECT image_url FROM notes WHERE image_url IS NOT NULL")
}

// ImageRefsByUser returns the image references attached to one user's notes.
func (r *NoteRepo) ImageRefsByUser(ctx context.Context, username string) ([]string, error) {
	return r.imageRefs(ctx,
		"SELECT image_url FROM notes WHERE username=? AND image_url IS NOT NULL", username)
}

func (r *NoteRepo) imageRefs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// DeleteByUserTx removes all notes owned by one user and blanks their
// current_note within the caller's transaction.
func (r *NoteRepo) DeleteByUserTx(ctx context.Context, tx *sql.Tx, username string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM notes WHERE username=?", username); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, "UPDATE users SET current_note='' WHERE username=?", username)
	return err
}

// DeleteAllTx empties the notes table within the caller's transaction and
// reports how many rows were swept.
func (r *NoteRepo) DeleteAllTx(ctx context.Context, tx *sql.Tx) (int64, error) {
	res, err := tx.ExecContext(ctx, "DELETE FROM notes")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// syncCurrentNoteTx rewrites users.current_note from the owner's newest
// surviving note, or '' when none remain.
func syncCurrentNoteTx(ctx context.Context, tx *sql.Tx, username string) error {
	var body string
	err := tx.QueryRowContext(ctx,
		"SELECT body FROM notes WHERE username=? ORDER BY created_at DESC, id DESC LIMIT 1",
		username).Scan(&body)
	if err == sql.ErrNoRows {
		body = ""
	} else if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE users SET current_note=? WHERE username=?", body, username)
	return err
}
