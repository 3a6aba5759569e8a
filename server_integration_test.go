package main

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"

	"vitrine/pkg/notify"
	"vitrine/pkg/receipt"

	"github.com/gin-gonic/gin"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	tmp := t.TempDir()
	_ = os.Setenv("UPLOAD_BASE", tmp)
	cfg = loadConfig()
	jwtSecret = []byte(cfg.JWTSecret)
	validator = receipt.New(cfg.Receipt, receipt.TesseractRecognizer{})
	notifier = notify.LogNotifier{}
	initDB()
	r := gin.Default()
	setupRoutes(r)
	return r
}

func TestFullFlow(t *testing.T) {
	r := setupTestServer(t)

	// 1. Register user
	regBody, _ := json.Marshal(map[string]string{"username": "client1", "password": "pass123"})
	resp := performRequest(r, http.MethodPost, "/register", bytes.NewBuffer(regBody), "", "application/json")
	if resp.Code != 200 && resp.Code != 409 {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 2. Login
	loginBody, _ := json.Marshal(map[string]string{"username": "client1", "password": "pass123"})
	resp = performRequest(r, http.MethodPost, "/login", bytes.NewBuffer(loginBody), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var loginResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatalf("empty token in login response: %+v", loginResp)
	}

	// 3. Create profile
	profBody, _ := json.Marshal(map[string]string{"name": "Client One", "email": "c1@example.com"})
	resp = performRequest(r, http.MethodPost, "/profile", bytes.NewBuffer(profBody), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("create profile failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 4. Submit a project request
	projBody, _ := json.Marshal(map[string]any{"title": "Company site", "description": "5 pages", "quote": 1500})
	resp = performRequest(r, http.MethodPost, "/projects", bytes.NewBuffer(projBody), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("create project failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var projResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &projResp)
	ref, _ := projResp["reference"].(string)
	if ref == "" {
		t.Fatalf("project has no reference: %+v", projResp)
	}
	projID := int(projResp["id"].(float64))

	// 5. Upload a receipt that is not an image; validator must refuse it
	// with a user-facing 400 rather than recording a payment.
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	w, _ := mw.CreateFormFile("file", "receipt.jpg")
	_, _ = w.Write([]byte("NOT AN IMAGE"))
	_ = mw.Close()
	path := "/projects/" + strconv.Itoa(projID) + "/receipts"
	resp = performRequest(r, http.MethodPost, path, buf, token, mw.FormDataContentType())
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unreadable receipt got %d body=%s", resp.Code, resp.Body.String())
	}

	// 6. List projects
	resp = performRequest(r, http.MethodGet, "/projects", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("list projects failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 7. Project receipt history (empty, the bad upload was not recorded)
	resp = performRequest(r, http.MethodGet, path, nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("list project receipts failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 8. Review queue is admin-only
	resp = performRequest(r, http.MethodGet, "/receipts", nil, token, "")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for client review queue got %d", resp.Code)
	}

	// 9. Unauthorized access to protected endpoint should be 401
	unauth := performRequest(r, http.MethodGet, "/projects", nil, "", "")
	if unauth.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unauthorized list projects got %d", unauth.Code)
	}
}

func TestMigrateCommand(t *testing.T) {
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	cfg = loadConfig()
	initDB()
}
