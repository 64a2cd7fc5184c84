package handler

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstav/slate/internal/config"
	"github.com/dstav/slate/internal/repository"
)

func newAdminHandler(t *testing.T) (*AdminHandler, sqlmock.Sqlmock, *fakeBlobs) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{AdminUsers: map[string]bool{"root@example.com": true}}
	blobs := &fakeBlobs{}
	h := NewAdminHandler(cfg, db, repository.NewUserRepo(db), repository.NewNoteRepo(db), blobs)
	return h, mock, blobs
}

func newAdminCtx(t *testing.T, target, caller string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/v1/admin/users/"+target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("username", caller)
	c.SetParamNames("username")
	c.SetParamValues(target)
	return c, rec
}

func TestAdminHandler_ListUsers(t *testing.T) {
	h, mock, _ := newAdminHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id,username,current_note,created_at FROM users ORDER BY username")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "current_note", "created_at"}).
			AddRow(1, "ana@example.com", "hi", time.Now()).
			AddRow(2, "root@example.com", "", time.Now()))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/users", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.ListUsers(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ana@example.com"`)
	assert.Contains(t, rec.Body.String(), `"is_admin":true`)
}

func TestAdminHandler_DeleteUser_Cascades(t *testing.T) {
	h, mock, blobs := newAdminHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT image_url FROM notes WHERE username=? AND image_url IS NOT NULL")).
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"image_url"}).AddRow("/uploads/a.png"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notes WHERE username=?")).
		WithArgs("ana@example.com").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET current_note='' WHERE username=?")).
		WithArgs("ana@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE username=?")).
		WithArgs("ana@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := newAdminCtx(t, "ana@example.com", "root@example.com")
	require.NoError(t, h.DeleteUser(c))
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"/uploads/a.png"}, blobs.deleted)
}

func TestAdminHandler_DeleteUser_RefusesAdminTarget(t *testing.T) {
	h, mock, _ := newAdminHandler(t)

	c, rec := newAdminCtx(t, "root@example.com", "root@example.com")
	require.NoError(t, h.DeleteUser(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminHandler_DeleteUser_RefusesSelf(t *testing.T) {
	h, mock, _ := newAdminHandler(t)

	// The caller is an admin not on the allow-list check path for the
	// target; self-deletion is still refused.
	c, rec := newAdminCtx(t, "other@example.com", "other@example.com")
	require.NoError(t, h.DeleteUser(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminHandler_DeleteUser_Missing(t *testing.T) {
	h, mock, _ := newAdminHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT image_url FROM notes")).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"image_url"}))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notes WHERE username=?")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET current_note='' WHERE username=?")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE username=?")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	c, rec := newAdminCtx(t, "ghost@example.com", "root@example.com")
	require.NoError(t, h.DeleteUser(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
