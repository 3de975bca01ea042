// Package backendfake is an in-process stand-in for the banking REST
// backend, implementing the same contract the console talks to: JWT
// bearer auth, role-gated account endpoints and {"message": ...} error
// bodies. Tests use it instead of a fake per call site.
package backendfake

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type userRecord struct {
	id           string
	name         string
	email        string
	role         string
	passwordHash []byte
}

type accountRecord struct {
	ID         string  `json:"id"`
	OwnerEmail string  `json:"ownerEmail"`
	Balance    float64 `json:"balance"`
}

// Backend is a fake banking backend served over httptest.
type Backend struct {
	mu        sync.Mutex
	secret    []byte
	tokenTTL  time.Duration
	users     map[string]*userRecord
	accounts  []*accountRecord
	revoked   map[string]struct{}
	creditFee float64
	requests  map[string]int
	total     int

	// BeforeHandle, when set, runs at the start of every request.
	// Tests use it to hold a request open. Set it before issuing
	// traffic.
	BeforeHandle func(r *http.Request)

	server *httptest.Server
}

func New() *Backend {
	b := &Backend{
		secret:   []byte("backendfake-signing-secret"),
		tokenTTL: time.Hour,
		users:    make(map[string]*userRecord),
		revoked:  make(map[string]struct{}),
		requests: make(map[string]int),
	}
	b.server = httptest.NewServer(b.handler())
	return b
}

func (b *Backend) URL() string {
	return b.server.URL
}

func (b *Backend) Close() {
	b.server.Close()
}

// SetTokenTTL controls the expiresIn returned by login and the exp
// claim of minted tokens.
func (b *Backend) SetTokenTTL(ttl time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokenTTL = ttl
}

// SetCreditFee makes every credit apply a fee, so the authoritative
// balance differs from what a client would compute.
func (b *Backend) SetCreditFee(fee float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.creditFee = fee
}

func (b *Backend) AddUser(name, email, password, role string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[email] = &userRecord{
		id:           uuid.NewString(),
		name:         name,
		email:        email,
		role:         role,
		passwordHash: hash,
	}
}

// AddAccount seeds an account and returns its id.
func (b *Backend) AddAccount(ownerEmail string, balance float64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	account := &accountRecord{
		ID:         uuid.NewString(),
		OwnerEmail: ownerEmail,
		Balance:    balance,
	}
	b.accounts = append(b.accounts, account)
	return account.ID
}

// Balance returns the current balance of the account with id.
func (b *Backend) Balance(id string) (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if account := b.findAccountLocked(id); account != nil {
		return account.Balance, true
	}
	return 0, false
}

// TotalRequests returns how many requests reached the backend.
func (b *Backend) TotalRequests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

// RequestsTo returns how many requests hit the given URL path.
func (b *Backend) RequestsTo(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[path]
}

func (b *Backend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", b.handleLogin)
	mux.HandleFunc("POST /auth/logout", b.handleLogout)
	mux.HandleFunc("GET /auth/me", b.handleMe)
	mux.HandleFunc("POST /bank/accounts/create", b.handleCreate)
	mux.HandleFunc("GET /bank/accounts/all", b.handleAll)
	mux.HandleFunc("GET /bank/accounts/mine", b.handleMine)
	mux.HandleFunc("PATCH /bank/accounts/{id}/credit", b.handleMutate)
	mux.HandleFunc("PATCH /bank/accounts/{id}/debit", b.handleMutate)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.total++
		b.requests[r.URL.Path]++
		hook := b.BeforeHandle
		b.mu.Unlock()

		if hook != nil {
			hook(r)
		}
		mux.ServeHTTP(w, r)
	})
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}

	b.mu.Lock()
	user := b.users[req.Email]
	ttl := b.tokenTTL
	b.mu.Unlock()

	if user == nil || bcrypt.CompareHashAndPassword(user.passwordHash, []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.email,
		"exp": jwt.NewNumericDate(time.Now().Add(ttl)),
	}).SignedString(b.secret)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Token generation failed.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":     token,
		"expiresIn": ttl.Milliseconds(),
	})
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	raw, _, ok := b.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token.")
		return
	}
	b.mu.Lock()
	b.revoked[raw] = struct{}{}
	b.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) handleMe(w http.ResponseWriter, r *http.Request) {
	_, user, ok := b.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":    user.id,
		"name":  user.name,
		"email": user.email,
		"role":  user.role,
	})
}

func (b *Backend) handleCreate(w http.ResponseWriter, r *http.Request) {
	if !b.requireAdmin(w, r) {
		return
	}
	ownerEmail := r.URL.Query().Get("ownerEmail")
	if ownerEmail == "" {
		writeError(w, http.StatusBadRequest, "ownerEmail is required.")
		return
	}

	b.mu.Lock()
	for _, account := range b.accounts {
		if account.OwnerEmail == ownerEmail {
			b.mu.Unlock()
			writeError(w, http.StatusConflict, "The user '"+ownerEmail+"' already has a bank account.")
			return
		}
	}
	account := &accountRecord{ID: uuid.NewString(), OwnerEmail: ownerEmail}
	b.accounts = append(b.accounts, account)
	snapshot := *account
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, snapshot)
}

func (b *Backend) handleAll(w http.ResponseWriter, r *http.Request) {
	if !b.requireAdmin(w, r) {
		return
	}
	b.mu.Lock()
	accounts := make([]accountRecord, 0, len(b.accounts))
	for _, account := range b.accounts {
		accounts = append(accounts, *account)
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, accounts)
}

func (b *Backend) handleMine(w http.ResponseWriter, r *http.Request) {
	_, user, ok := b.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token.")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, account := range b.accounts {
		if account.OwnerEmail == user.email {
			writeJSON(w, http.StatusOK, *account)
			return
		}
	}
	writeError(w, http.StatusNotFound, "No account found for owner '"+user.email+"'.")
}

func (b *Backend) handleMutate(w http.ResponseWriter, r *http.Request) {
	if !b.requireAdmin(w, r) {
		return
	}
	amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
	if err != nil || amount <= 0 {
		writeError(w, http.StatusBadRequest, "Amount must be greater than zero.")
		return
	}

	credit := strings.HasSuffix(r.URL.Path, "/credit")

	b.mu.Lock()
	defer b.mu.Unlock()
	account := b.findAccountLocked(r.PathValue("id"))
	if account == nil {
		writeError(w, http.StatusNotFound, "No account found for id '"+r.PathValue("id")+"'.")
		return
	}
	if credit {
		account.Balance += amount - b.creditFee
	} else {
		account.Balance -= amount
	}
	writeJSON(w, http.StatusOK, *account)
}

func (b *Backend) findAccountLocked(id string) *accountRecord {
	for _, account := range b.accounts {
		if account.ID == id {
			return account
		}
	}
	return nil
}

// authenticate verifies the bearer token and resolves its user.
func (b *Backend) authenticate(r *http.Request) (raw string, user *userRecord, ok bool) {
	raw, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found || raw == "" {
		return "", nil, false
	}

	b.mu.Lock()
	_, revoked := b.revoked[raw]
	b.mu.Unlock()
	if revoked {
		return "", nil, false
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return b.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", nil, false
	}
	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", nil, false
	}

	b.mu.Lock()
	user = b.users[subject]
	b.mu.Unlock()
	if user == nil {
		return "", nil, false
	}
	return raw, user, true
}

func (b *Backend) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	_, user, ok := b.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token.")
		return false
	}
	if user.role != "ROLE_ADMIN" {
		writeError(w, http.StatusForbidden, "Operation not permitted for this role.")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
