package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/notaflow/notaflow/internal/config"
	"github.com/notaflow/notaflow/internal/filestore"
	"github.com/notaflow/notaflow/internal/handler"
	"github.com/notaflow/notaflow/internal/middleware"
	"github.com/notaflow/notaflow/internal/repo"
	"github.com/notaflow/notaflow/internal/service"
	"github.com/notaflow/notaflow/test/testutil"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupRouter(t *testing.T) (http.Handler, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, cleanup := testutil.OpenTestDB(t)
	userRepo := repo.NewUserRepo(db)
	noteRepo := repo.NewNoteRepo(db)
	profileRepo := repo.NewProfileRepo(db)
	imageRepo := repo.NewImageRepo(db)

	jwtSecret := []byte("test-secret")

	tmpDir, err := os.MkdirTemp("", "notaflow-upload-*")
	require.NoError(t, err)

	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{
			"dir": tmpDir,
		},
	})
	require.NoError(t, err)

	deps := handler.RouterDeps{
		Auth:           handler.NewAuthHandler(service.NewAuthService(userRepo, profileRepo, jwtSecret, time.Hour)),
		Notes:          handler.NewNoteHandler(service.NewNoteService(noteRepo)),
		Profiles:       handler.NewProfileHandler(service.NewProfileService(profileRepo, store, "http://localhost")),
		Images:         handler.NewImageHandler(service.NewImageService(imageRepo, store, "http://localhost")),
		Files:          handler.NewFileHandler(store),
		Export:         handler.NewExportHandler(service.NewExportService(noteRepo)),
		JWTSecret:      jwtSecret,
		AuthRateWindow: time.Millisecond,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)

	return engine, func() {
		cleanup()
		_ = os.RemoveAll(tmpDir)
	}
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	require.Equal(t, 0, env.Code, "message: %s", env.Message)
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
}

func registerAndLogin(t *testing.T, router http.Handler) string {
	t.Helper()
	email := uuid.NewString() + "@example.com"
	creds := map[string]string{"email": email, "password": "secret123"}

	resp := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", creds)
	require.Equal(t, http.StatusOK, resp.Code)
	// rate limiter window must elapse between auth calls
	time.Sleep(5 * time.Millisecond)

	resp = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", creds)
	require.Equal(t, http.StatusOK, resp.Code)
	var auth struct {
		Token string `json:"token"`
	}
	decodeData(t, resp, &auth)
	require.NotEmpty(t, auth.Token)
	return auth.Token
}
