package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

type noteView struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Pinned  int    `json:"pinned"`
	Mtime   int64  `json:"mtime"`
}

func TestNoteEndpointsRequireAuth(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	resp := doJSON(t, router, http.MethodGet, "/api/v1/notes", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = doJSON(t, router, http.MethodGet, "/api/v1/notes", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestNoteLifecycle(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()
	token := registerAndLogin(t, router)

	resp := doJSON(t, router, http.MethodPost, "/api/v1/notes", token, map[string]string{
		"title":   "Groceries",
		"content": "- milk",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	var created noteView
	decodeData(t, resp, &created)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Groceries", created.Title)
	require.NotZero(t, created.Mtime)

	resp = doJSON(t, router, http.MethodGet, "/api/v1/notes", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var listed []noteView
	decodeData(t, resp, &listed)
	require.Len(t, listed, 1)

	resp = doJSON(t, router, http.MethodPut, "/api/v1/notes/"+created.ID, token, map[string]string{
		"title":   "Groceries",
		"content": "- milk\n- eggs",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	var updated noteView
	decodeData(t, resp, &updated)
	require.Equal(t, "- milk\n- eggs", updated.Content)
	require.GreaterOrEqual(t, updated.Mtime, created.Mtime)

	resp = doJSON(t, router, http.MethodPut, "/api/v1/notes/"+created.ID+"/pin", token, map[string]bool{"pinned": true})
	require.Equal(t, http.StatusOK, resp.Code)
	var pinned noteView
	decodeData(t, resp, &pinned)
	require.Equal(t, 1, pinned.Pinned)

	resp = doJSON(t, router, http.MethodDelete, "/api/v1/notes/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doJSON(t, router, http.MethodGet, "/api/v1/notes/"+created.ID, token, nil)
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestNoteEmptyTitleGetsDefault(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()
	token := registerAndLogin(t, router)

	resp := doJSON(t, router, http.MethodPost, "/api/v1/notes", token, map[string]string{})
	require.Equal(t, http.StatusOK, resp.Code)
	var created noteView
	decodeData(t, resp, &created)
	require.Equal(t, "Untitled Note", created.Title)
}

func TestNoteIsolationBetweenUsers(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()
	tokenA := registerAndLogin(t, router)
	tokenB := registerAndLogin(t, router)

	resp := doJSON(t, router, http.MethodPost, "/api/v1/notes", tokenA, map[string]string{"title": "mine"})
	require.Equal(t, http.StatusOK, resp.Code)
	var created noteView
	decodeData(t, resp, &created)

	resp = doJSON(t, router, http.MethodGet, "/api/v1/notes/"+created.ID, tokenB, nil)
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestNoteExport(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()
	token := registerAndLogin(t, router)

	resp := doJSON(t, router, http.MethodPost, "/api/v1/notes", token, map[string]string{
		"title":   "Groceries",
		"content": "- milk",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	var created noteView
	decodeData(t, resp, &created)

	resp = doJSON(t, router, http.MethodGet, "/api/v1/notes/"+created.ID+"/export", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Header().Get("Content-Type"), "text/html")
	require.Contains(t, resp.Header().Get("Content-Disposition"), "Groceries.html")
	require.Contains(t, resp.Body.String(), "<li>milk</li>")
}
