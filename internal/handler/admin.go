package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dstav/slate/internal/blob"
	"github.com/dstav/slate/internal/board"
	"github.com/dstav/slate/internal/config"
	"github.com/dstav/slate/internal/middleware"
	"github.com/dstav/slate/internal/repository"
	"github.com/dstav/slate/internal/utils"
)

// AdminHandler implements the user management surface. Routes using it
// sit behind RequireRole(RoleAdmin).
type AdminHandler struct {
	Cfg   config.Config
	DB    *sql.DB
	Users *repository.UserRepo
	Notes *repository.NoteRepo
	Blobs blob.Store
}

func NewAdminHandler(cfg config.Config, db *sql.DB, u *repository.UserRepo, n *repository.NoteRepo, b blob.Store) *AdminHandler {
	return &AdminHandler{Cfg: cfg, DB: db, Users: u, Notes: n, Blobs: b}
}

type adminUserPart struct {
	Username string `json:"username"`
	Note     string `json:"note"`
	IsAdmin  bool   `json:"is_admin"`
}

// ListUsers handles GET /v1/admin/users.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]adminUserPart, 0, len(users))
	for _, u := range users {
		out = append(out, adminUserPart{
			Username: u.Username,
			Note:     u.CurrentNote,
			IsAdmin:  h.Cfg.IsAdmin(u.Username),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

// DeleteUser handles DELETE /v1/admin/users/:username. It removes the user
// along with their notes and image blobs. Admin accounts and the caller's
// own account are refused, so an admin cannot saw off the branch they sit
// on.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	caller, ok := middleware.Username(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	target, err := utils.NormalizeUsername(c.Param("username"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if h.Cfg.IsAdmin(target) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete admin user"})
	}
	if target == caller {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete your own account"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	refs, err := h.Notes.ImageRefsByUser(ctx, target)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	board.ReleaseBlobs(h.Blobs, refs)

	err = repository.WithTx(ctx, h.DB, func(tx *sql.Tx) error {
		if err := h.Notes.DeleteByUserTx(ctx, tx, target); err != nil {
			return err
		}
		return h.Users.DeleteTx(ctx, tx, target)
	})
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
