package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dstav/slate/internal/blob"
	"github.com/dstav/slate/internal/board"
	"github.com/dstav/slate/internal/middleware"
	"github.com/dstav/slate/internal/repository"
)

// NoteHandler exposes the shared feed: posting, listing and deleting notes.
// Posting is only accepted while the board's daily window is open.
type NoteHandler struct {
	DB    *sql.DB
	Notes *repository.NoteRepo
	Clock *board.Clock
	Blobs blob.Store
	Now   func() time.Time
}

func NewNoteHandler(db *sql.DB, notes *repository.NoteRepo, clock *board.Clock, blobs blob.Store) *NoteHandler {
	return &NoteHandler{DB: db, Notes: notes, Clock: clock, Blobs: blobs, Now: time.Now}
}

// ----- DTOs -----

type postNoteReq struct {
	Note     string `json:"note"`
	ImageURL string `json:"image_url"`
	LinkURL  string `json:"link_url"`
}

type noteResp struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Note      string    `json:"note"`
	ImageURL  *string   `json:"image_url"`
	LinkURL   *string   `json:"link_url"`
	CreatedAt time.Time `json:"created_at"`
}

func toNoteResp(n repository.NoteRecord) noteResp {
	return noteResp{
		ID:        n.ID,
		Username:  n.Username,
		Note:      n.Body,
		ImageURL:  n.ImageURL,
		LinkURL:   n.LinkURL,
		CreatedAt: n.CreatedAt,
	}
}

// Post handles POST /v1/notes. Outside the posting window the request is
// rejected with 403 and nothing is written. The note insert and the
// owner's current_note update land in one transaction.
func (h *NoteHandler) Post(c echo.Context) error {
	username, ok := middleware.Username(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Clock.CheckOpen(h.Now()); errors.Is(err, board.ErrWindowClosed) {
		return c.JSON(http.StatusForbidden, echo.Map{
			"error": "window_closed",
			"message": "The board is closed. Notes can be posted between 9am and 9pm.",
		})
	}
	var req postNoteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	rec := repository.NoteRecord{Username: username, Body: req.Note}
	if req.ImageURL != "" {
		rec.ImageURL = &req.ImageURL
	}
	if req.LinkURL != "" {
		rec.LinkURL = &req.LinkURL
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := repository.WithTx(ctx, h.DB, func(tx *sql.Tx) error {
		return h.Notes.CreateTx(ctx, tx, &rec)
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save note failed"})
	}
	return c.JSON(http.StatusCreated, toNoteResp(rec))
}

// List handles GET /v1/notes and returns the whole feed newest first.
func (h *NoteHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	notes, err := h.Notes.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]noteResp, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteResp(n))
	}
	return c.JSON(http.StatusOK, echo.Map{"notes": out})
}

// DeleteOne handles DELETE /v1/notes/:id. Only the owner can delete a
// note; a missing note and someone else's note both answer 404. The blob
// behind an attached image is released best-effort after the row is gone.
func (h *NoteHandler) DeleteOne(c echo.Context) error {
	username, ok := middleware.Username(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	imageRef, err := h.Notes.DeleteOne(ctx, id, username)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if imageRef != nil {
		board.ReleaseBlobs(h.Blobs, []string{*imageRef})
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteMine handles DELETE /v1/notes: it wipes all of the caller's notes,
// releases their image blobs, and blanks their current note. Blob cleanup
// runs against a snapshot taken before the authoritative delete.
func (h *NoteHandler) DeleteMine(c echo.Context) error {
	username, ok := middleware.Username(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	refs, err := h.Notes.ImageRefsByUser(ctx, username)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	board.ReleaseBlobs(h.Blobs, refs)

	err = repository.WithTx(ctx, h.DB, func(tx *sql.Tx) error {
		return h.Notes.DeleteByUserTx(ctx, tx, username)
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
