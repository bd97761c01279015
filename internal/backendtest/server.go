// Package backendtest is an in-process stand-in for the hosted
// collaborator, implementing the slice of its auth and tabular REST
// protocol that the service speaks. It exists for package tests and
// local seeding only; the service proper never stores a password or a
// row itself.
package backendtest

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
)

const tokenLifetime = time.Hour

type userRecord struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Salt         string
}

// Server holds the fake collaborator's state behind one mutex.
type Server struct {
	mu        sync.Mutex
	apiKey    string
	jwtSecret []byte
	users     map[string]*userRecord
	rows      []bookRow
	baseTime  time.Time
	seq       int
}

// NewServer creates an empty collaborator accepting the given project
// API key.
func NewServer(apiKey string) *Server {
	return &Server{
		apiKey:    apiKey,
		jwtSecret: []byte("backendtest-signing-secret"),
		users:     make(map[string]*userRecord),
		baseTime:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Handler returns the HTTP surface of the fake.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/signup", s.handleSignup)
	mux.HandleFunc("/auth/v1/token", s.handleToken)
	mux.HandleFunc("/auth/v1/user", s.handleUser)
	mux.HandleFunc("/rest/v1/books", s.handleBooks)
	return mux
}

// RegisterUser creates an account directly, bypassing the HTTP surface.
func (s *Server) RegisterUser(email, password, fullName string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registerLocked(email, password, fullName).ID
}

func (s *Server) registerLocked(email, password, fullName string) *userRecord {
	hash, salt, _ := hashPassword(password)
	user := &userRecord{
		ID:           uuid.New().String(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		Salt:         salt,
	}
	s.users[strings.ToLower(email)] = user
	return user
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Data     struct {
			FullName string `json:"full_name"`
		} `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[strings.ToLower(req.Email)]; exists {
		writeError(w, http.StatusBadRequest, "User already registered", "")
		return
	}

	user := s.registerLocked(req.Email, req.Password, req.Data.FullName)
	writeJSON(w, http.StatusOK, map[string]any{
		"user": userJSON(user),
	})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	if r.URL.Query().Get("grant_type") != "password" {
		writeError(w, http.StatusBadRequest, "unsupported grant type", "")
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	s.mu.Lock()
	user, exists := s.users[strings.ToLower(req.Email)]
	s.mu.Unlock()

	if !exists {
		writeError(w, http.StatusBadRequest, "Invalid login credentials", "")
		return
	}
	if ok, err := verifyPassword(req.Password, user.Salt, user.PasswordHash); err != nil || !ok {
		writeError(w, http.StatusBadRequest, "Invalid login credentials", "")
		return
	}

	token, err := s.issueToken(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  token,
		"refresh_token": uuid.New().String(),
		"expires_in":    int(tokenLifetime.Seconds()),
		"token_type":    "bearer",
		"user":          userJSON(user),
	})
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	user := s.userFromRequest(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "invalid JWT", "")
		return
	}
	writeJSON(w, http.StatusOK, userJSON(user))
}

// issueToken signs an HS256 access token for the account.
func (s *Server) issueToken(user *userRecord) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenLifetime)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// userFromRequest resolves a bearer token back to its account, or nil.
func (s *Server) userFromRequest(r *http.Request) *userRecord {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil
	}
	raw := strings.TrimPrefix(header, "Bearer ")

	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ID == claims.Subject {
			return user
		}
	}
	return nil
}

// authorizedForRows accepts a valid user token or the project API key
// itself (service-role semantics, used by the seeder).
func (s *Server) authorizedForRows(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	if header == "Bearer "+s.apiKey {
		return true
	}
	return s.userFromRequest(r) != nil
}

func userJSON(user *userRecord) map[string]any {
	meta := map[string]any{}
	if user.FullName != "" {
		meta["full_name"] = user.FullName
	}
	return map[string]any{
		"id":            user.ID,
		"email":         user.Email,
		"user_metadata": meta,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, map[string]string{"message": message, "code": code})
}

// hashPassword generates a salted Argon2id hash of the password.
func hashPassword(password string) (string, string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", "", err
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)

	return base64.StdEncoding.EncodeToString(hash), base64.StdEncoding.EncodeToString(salt), nil
}

// verifyPassword compares a password with a salted hash.
func verifyPassword(password, salt, hash string) (bool, error) {
	decodedSalt, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return false, err
	}
	decodedHash, err := base64.StdEncoding.DecodeString(hash)
	if err != nil {
		return false, err
	}

	comparison := argon2.IDKey([]byte(password), decodedSalt, 1, 64*1024, 4, 32)
	return string(decodedHash) == string(comparison), nil
}
