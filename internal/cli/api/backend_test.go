package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"

	"github.com/yndnr/stockvoice-go/internal/cli/gateway"
	"github.com/yndnr/stockvoice-go/internal/cli/session"
	"github.com/yndnr/stockvoice-go/internal/telemetry/logger"
)

// fakeBackend is an in-memory stand-in for the stock voice backend.
type fakeBackend struct {
	t *testing.T

	mu       sync.Mutex
	users    map[string]string // email -> password
	tokens   map[string]string // token -> user id
	clients  map[string]ClientConfig
	products []Product
	artifact PairingArtifact
	calls    []string
	lastBody []byte
	lastRaw  string
	failPut  int
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()

	fb := &fakeBackend{
		t:       t,
		users:   map[string]string{},
		tokens:  map[string]string{},
		clients: map[string]ClientConfig{},
	}

	r := mux.NewRouter()
	r.Use(fb.record)
	r.HandleFunc("/auth/register", fb.register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", fb.login).Methods(http.MethodPost)

	protected := r.NewRoute().Subrouter()
	protected.Use(fb.authenticate)
	protected.HandleFunc("/clients/{id}", fb.getClient).Methods(http.MethodGet)
	protected.HandleFunc("/clients/{id}", fb.putClient).Methods(http.MethodPut)
	protected.HandleFunc("/clients", fb.postClient).Methods(http.MethodPost)
	protected.HandleFunc("/products", fb.listProducts).Methods(http.MethodGet)
	protected.HandleFunc("/bot/qr", fb.botQR).Methods(http.MethodGet)
	protected.HandleFunc("/connect/whatsapp/{id}", fb.connect).Methods(http.MethodPost)
	protected.HandleFunc("/disconnect/whatsapp/{id}", fb.disconnect).Methods(http.MethodPost)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return fb, server
}

func (fb *fakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		fb.mu.Lock()
		fb.calls = append(fb.calls, r.Method+" "+r.URL.Path)
		fb.lastBody = body
		fb.lastRaw = r.URL.RawQuery
		fb.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (fb *fakeBackend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		_, ok := fb.tokens[r.Header.Get(gateway.HeaderAuthToken)]
		fb.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Token inválido"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// issue signs a token for userID that expires in one hour.
func (fb *fakeBackend) issue(userID string) string {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		fb.t.Fatalf("sign token: %v", err)
	}
	fb.tokens[token] = userID
	return token
}

// revokeAll simulates token expiry on the backend.
func (fb *fakeBackend) revokeAll() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.tokens = map[string]string{}
}

func (fb *fakeBackend) callLog() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.calls...)
}

func (fb *fakeBackend) authAnswer(w http.ResponseWriter, email, message string, status int) {
	userID := "u-" + strings.Split(email, "@")[0]
	token := fb.issue(userID)
	writeJSON(w, status, map[string]any{
		"message": message,
		"token":   token,
		"user":    map[string]string{"id": userID, "email": email},
	})
}

func (fb *fakeBackend) register(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	json.NewDecoder(r.Body).Decode(&creds)

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if _, exists := fb.users[creds.Email]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Usuário já existe"})
		return
	}
	fb.users[creds.Email] = creds.Password
	fb.authAnswer(w, creds.Email, "Usuário registrado com sucesso!", http.StatusCreated)
}

func (fb *fakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	json.NewDecoder(r.Body).Decode(&creds)

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if pw, ok := fb.users[creds.Email]; !ok || pw != creds.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Credenciais inválidas"})
		return
	}
	fb.authAnswer(w, creds.Email, "Login realizado com sucesso!", http.StatusOK)
}

func (fb *fakeBackend) getClient(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	cfg, ok := fb.clients[mux.Vars(r)["id"]]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Cliente não encontrado"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"client": cfg})
}

func (fb *fakeBackend) putClient(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.failPut != 0 {
		writeJSON(w, fb.failPut, map[string]string{"message": "falha interna"})
		return
	}
	id := mux.Vars(r)["id"]
	if _, ok := fb.clients[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Cliente não encontrado"})
		return
	}
	var cfg ClientConfig
	json.NewDecoder(r.Body).Decode(&cfg)
	fb.clients[id] = cfg
	writeJSON(w, http.StatusOK, map[string]string{"message": "Cliente atualizado"})
}

func (fb *fakeBackend) postClient(w http.ResponseWriter, r *http.Request) {
	var cfg ClientConfig
	json.NewDecoder(r.Body).Decode(&cfg)

	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.clients[cfg.UserID] = cfg
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Cliente cadastrado"})
}

func (fb *fakeBackend) listProducts(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	search := strings.ToLower(r.URL.Query().Get("search"))
	out := []Product{}
	for _, p := range fb.products {
		if search == "" || strings.Contains(strings.ToLower(p.Name), search) {
			out = append(out, p)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (fb *fakeBackend) botQR(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	writeJSON(w, http.StatusOK, fb.artifact)
}

func (fb *fakeBackend) connect(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.artifact = PairingArtifact{Message: "Escaneie o QR code", QRCode: "2@abc,def,ghi"}
	writeJSON(w, http.StatusOK, fb.artifact)
}

func (fb *fakeBackend) disconnect(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.artifact = PairingArtifact{}
	writeJSON(w, http.StatusOK, map[string]string{"message": "WhatsApp desconectado"})
}

// newTestService wires a real gateway against the fake backend.
func newTestService(t *testing.T) (*Service, *fakeBackend, session.Store) {
	t.Helper()
	fb, server := newFakeBackend(t)

	store := session.NewMemoryStore()
	gw, err := gateway.New(store, gateway.Options{
		BaseAddress: server.URL,
		Logger:      logger.New(logger.Config{Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("gateway.New() error = %v", err)
	}
	return New(gw, store), fb, store
}

// loggedIn returns a service with a registered and logged in user.
func loggedIn(t *testing.T) (*Service, *fakeBackend, session.Store) {
	t.Helper()
	svc, fb, store := newTestService(t)
	_, err := svc.Register(t.Context(), RegisterInput{
		Email:           "ana@loja.com",
		Password:        "segredo1",
		ConfirmPassword: "segredo1",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return svc, fb, store
}

func (fb *fakeBackend) setProducts(products []Product) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.products = products
}

func (fb *fakeBackend) setClient(cfg ClientConfig) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.clients[cfg.UserID] = cfg
}

func (fb *fakeBackend) client(userID string) ClientConfig {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.clients[userID]
}

func (fb *fakeBackend) setFailPut(status int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.failPut = status
}
