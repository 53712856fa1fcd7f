package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrGateDisabled  = errors.New("admin gate disabled: no PIN configured")
	ErrNotAdminAgent = errors.New("agent may not unlock the admin panel")
	ErrPINMismatch   = errors.New("incorrect PIN")
	ErrInvalidToken  = errors.New("invalid admin session")
)

const issuer = "teamops"

// Claims identifies an admin session
type Claims struct {
	Agent string `json:"agent"`
	jwt.RegisteredClaims
}

// Gate unlocks admin sessions with a static shared PIN. Sessions are signed
// with a key generated at startup and tracked in memory, so none survive a
// restart. Attempts are never rate limited.
type Gate struct {
	adminAgent string
	pin        string
	ttl        time.Duration
	secret     []byte
	now        func() time.Time

	sessions map[string]time.Time // session id -> expiry
	mu       sync.Mutex
}

// NewGate creates a gate for adminAgent. An empty pin disables unlocking.
func NewGate(adminAgent, pin string, ttl time.Duration) (*Gate, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate session key: %w", err)
	}
	return &Gate{
		adminAgent: adminAgent,
		pin:        pin,
		ttl:        ttl,
		secret:     secret,
		now:        time.Now,
		sessions:   make(map[string]time.Time),
	}, nil
}

// Enabled reports whether a PIN is configured
func (g *Gate) Enabled() bool {
	return g.pin != ""
}

// AdminAgent returns the only agent allowed to unlock
func (g *Gate) AdminAgent() string {
	return g.adminAgent
}

// Unlock checks the PIN for agent and issues a session token
func (g *Gate) Unlock(agent, pin string) (string, time.Time, error) {
	if !g.Enabled() {
		return "", time.Time{}, ErrGateDisabled
	}
	if agent != g.adminAgent {
		return "", time.Time{}, ErrNotAdminAgent
	}
	if subtle.ConstantTimeCompare([]byte(pin), []byte(g.pin)) != 1 {
		return "", time.Time{}, ErrPINMismatch
	}

	now := g.now()
	expires := now.Add(g.ttl)
	id := uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Agent: agent,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    issuer,
			Subject:   agent,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session: %w", err)
	}

	g.mu.Lock()
	g.pruneLocked(now)
	g.sessions[id] = expires
	g.mu.Unlock()

	return signed, expires, nil
}

// Verify returns the claims of a live session
func (g *Gate) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.sessions[claims.ID]; !ok {
		return nil, fmt.Errorf("%w: session ended", ErrInvalidToken)
	}
	return claims, nil
}

// Lock ends the session carried by tokenString. Unknown tokens are ignored.
func (g *Gate) Lock(tokenString string) {
	claims, err := g.Verify(tokenString)
	if err != nil {
		return
	}
	g.mu.Lock()
	delete(g.sessions, claims.ID)
	g.mu.Unlock()
}

func (g *Gate) pruneLocked(now time.Time) {
	for id, expires := range g.sessions {
		if now.After(expires) {
			delete(g.sessions, id)
		}
	}
}
