package command

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/stockvoice-go/internal/cli/gateway"
	"github.com/yndnr/stockvoice-go/internal/cli/session"
)

const (
	testToken  = "tok-ana"
	testUserID = "u-ana"
	testEmail  = "ana@loja.com"
)

// mockServer is a test backend with handlers keyed by "METHOD /path".
type mockServer struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	calls    []string
}

// newMockServer creates a new mock server, closed with the test.
func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	m := &mockServer{
		handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		m.mu.Lock()
		m.calls = append(m.calls, key)
		handler, ok := m.handlers[key]
		m.mu.Unlock()

		if !ok {
			errorResponse(w, http.StatusNotFound, "rota não encontrada")
			return
		}
		handler(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

// handle registers a handler for "METHOD /path".
func (m *mockServer) handle(pattern string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[pattern] = handler
}

// authed registers a handler that answers 401 unless the test token is sent.
func (m *mockServer) authed(pattern string, handler http.HandlerFunc) {
	m.handle(pattern, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(gateway.HeaderAuthToken) != testToken {
			errorResponse(w, http.StatusUnauthorized, "Token inválido")
			return
		}
		handler(w, r)
	})
}

func (m *mockServer) callLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// jsonResponse writes a JSON response.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// errorResponse writes a {message} error body.
func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"message": message})
}

// loginResponse is what /auth/login answers for the test user.
func loginResponse(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]any{
		"message": "Login realizado com sucesso!",
		"token":   testToken,
		"user":    map[string]string{"id": testUserID, "email": testEmail},
	})
}

// testEnv runs the application against a mock server and an in-memory store.
type testEnv struct {
	t          *testing.T
	server     *mockServer
	store      *session.MemoryStore
	configPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{"STOCKVOICE_CONFIG", "STOCKVOICE_SERVER_ADDRESS", "STOCKVOICE_OUTPUT_FORMAT", "STOCKVOICE_PASSWORD"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	return &testEnv{
		t:          t,
		server:     newMockServer(t),
		store:      session.NewMemoryStore(),
		configPath: filepath.Join(home, ".stockvoice", "cli.yaml"),
	}
}

// signIn stores the test session directly.
func (e *testEnv) signIn() {
	e.t.Helper()
	err := e.store.Establish(session.Session{Token: testToken, UserID: testUserID, UserEmail: testEmail})
	if err != nil {
		e.t.Fatal(err)
	}
}

// run executes one command line and returns stdout, stderr and the error.
func (e *testEnv) run(input string, args ...string) (string, string, error) {
	e.t.Helper()
	return e.exec(input, []Option{WithStore(e.store)}, args...)
}

// runDurable executes one command line against the on-disk session store
// under the test home directory.
func (e *testEnv) runDurable(input string, args ...string) (string, string, error) {
	e.t.Helper()
	return e.exec(input, nil, args...)
}

func (e *testEnv) exec(input string, opts []Option, args ...string) (string, string, error) {
	e.t.Helper()
	var out, errOut bytes.Buffer
	opts = append(opts, WithIO(strings.NewReader(input), &out, &errOut))
	app := App(opts...)
	app.ExitErrHandler = func(*cli.Context, error) {}

	full := append([]string{"stockvoice-cli", "--config", e.configPath, "--server", e.server.URL}, args...)
	err := app.Run(full)
	return out.String(), errOut.String(), err
}

// writeFile writes content, creating parent directories.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

// decodeBody decodes a JSON request body.
func decodeBody(t *testing.T, r *http.Request, target any) {
	t.Helper()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		t.Errorf("decode request body: %v", err)
	}
}
