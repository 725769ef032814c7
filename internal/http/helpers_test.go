package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"

	"gitshop/internal/config"
	"gitshop/internal/documents"
	"gitshop/internal/http/handlers"
	"gitshop/internal/repos"
	"gitshop/internal/services"
)

type testApp struct {
	app  *fiber.App
	db   *sqlx.DB
	deps *handlers.Deps
}

// newApp wires the real API on an in-memory database. Invoices are rendered
// into a temp dir so downloads can be exercised end to end.
func newApp(t *testing.T, opt handlers.Options) *testApp {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if opt.DocStore == nil {
		store := documents.NewLocalStore(t.TempDir())
		opt.DocStore = store
		opt.Docs = documents.NewInvoiceGenerator(store)
	}
	cfg := config.Config{SessionTTL: time.Hour, Currency: "USD"}
	deps := handlers.NewDeps(db, cfg, opt)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler, BodyLimit: 1 << 20})
	app.Use(requestid.New())
	handlers.Mount(app, deps)
	return &testApp{app: app, db: db, deps: deps}
}

// login opens a session for a seeded account and returns its bearer token.
func (a *testApp) login(t *testing.T, email string) string {
	t.Helper()
	_, sid, err := a.deps.AuthSvc.Login(context.Background(), email, "Passw0rd!")
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return sid
}

// signup registers a fresh consumer and returns its token.
func (a *testApp) signup(t *testing.T, email string) string {
	t.Helper()
	_, err := a.deps.AuthSvc.Register(context.Background(), services.Signup{
		Email: email, Password: "Passw0rd!", FullName: "Test User",
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return a.login(t, email)
}

func newJSONRequest(t *testing.T, method, path, token string, body any) *http.Request {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (a *testApp) send(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := a.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	out, _ := io.ReadAll(resp.Body)
	return resp, out
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	return a.send(t, newJSONRequest(t, method, path, token, body))
}

func decode(t *testing.T, b []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("decode %s: %v", string(b), err)
	}
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	UserID string         `json:"user_id"`
	Fields map[string]any `json:"fields"`
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu sync.Mutex
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

// captureLogs swaps the standard logger output while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedWriter{w: &buf})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) *logEntry {
	for i := range entries {
		if entries[i].Action == action {
			return &entries[i]
		}
	}
	return nil
}
