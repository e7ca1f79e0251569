package users

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/illBeRoy/andromeda/dispatch"
	"github.com/illBeRoy/andromeda/httperr"
	"github.com/illBeRoy/andromeda/internal/component"
)

func newApp(t *testing.T, withDB bool) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	d := dispatch.New("userstest", dispatch.WithLogger(zap.NewNop()), dispatch.WithMetrics(false))
	var mock sqlmock.Sqlmock
	if withDB {
		db, m := newMock(t)
		mock = m
		require.NoError(t, d.AddContext(ContextKey, db))
	}
	require.NoError(t, component.Install(d, Comp{}))
	return d.Freeze(), mock
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func errBody(t *testing.T, w *httptest.ResponseRecorder) httperr.Body {
	t.Helper()
	var b httperr.Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	return b
}

func TestItemGet(t *testing.T) {
	h, mock := newApp(t, true)
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(selectUser)).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(1, "Ada", "ada@example.com", now))

	w := do(h, http.MethodGet, "/users/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"name":"Ada","email":"ada@example.com","created_at":"2024-01-02T03:04:05Z"}`, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemErrors(t *testing.T) {
	h, mock := newApp(t, true)
	mock.ExpectQuery(regexp.QuoteMeta(selectUser)).WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(userCols))

	w := do(h, http.MethodGet, "/users/2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, httperr.Body{Status: 404, Message: "user not found"}, errBody(t, w))

	w = do(h, http.MethodGet, "/users/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(h, http.MethodPost, "/users/2", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemPutValidation(t *testing.T) {
	h, mock := newApp(t, true)

	w := do(h, http.MethodPut, "/users/1", `{"name":"Ada","email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errBody(t, w).Message, `"email"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemPutAndDelete(t *testing.T) {
	h, mock := newApp(t, true)
	now := time.Now().UTC().Truncate(time.Second)

	mock.ExpectExec(regexp.QuoteMeta(updateUser)).WithArgs("Ada L", "ada@example.com", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectUser)).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(1, "Ada L", "ada@example.com", now))
	mock.ExpectExec(regexp.QuoteMeta(deleteUser)).WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := do(h, http.MethodPut, "/users/1", `{"name":"Ada L","email":"ada@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Ada L"`)

	w = do(h, http.MethodDelete, "/users/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":1}`, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectionPost(t *testing.T) {
	h, mock := newApp(t, true)
	now := time.Now().UTC().Truncate(time.Second)

	mock.ExpectExec(regexp.QuoteMeta(insertUser)).WithArgs("Bob", "bob@example.com").
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectUser)).WithArgs(int64(12)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(12, "Bob", "bob@example.com", now))

	w := do(h, http.MethodPost, "/users", `{"name":"Bob","email":"bob@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/users/12", w.Header().Get("Location"))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectionList(t *testing.T) {
	h, mock := newApp(t, true)
	mock.ExpectQuery(regexp.QuoteMeta(selectUsers)).WithArgs(defaultLimit, 0).
		WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectQuery(regexp.QuoteMeta(selectUsers)).WithArgs(5, 10).
		WillReturnRows(sqlmock.NewRows(userCols))

	w := do(h, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(h, http.MethodGet, "/users?limit=5&offset=10", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(h, http.MethodGet, "/users?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithoutDatabase(t *testing.T) {
	h, _ := newApp(t, false)

	for _, tc := range []struct{ method, target, body string }{
		{http.MethodGet, "/users/1", ""},
		{http.MethodGet, "/users", ""},
		{http.MethodPost, "/users", `{"name":"Bob","email":"bob@example.com"}`},
	} {
		w := do(h, tc.method, tc.target, tc.body)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, tc.method+" "+tc.target)
		assert.Equal(t, "database unavailable", errBody(t, w).Message)
	}
}
