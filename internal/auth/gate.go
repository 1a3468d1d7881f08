package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"studentperf/internal/config"
)

const issuer = "spts"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrSessionEnded       = errors.New("session ended")
)

// Claims is the payload of the session cookie. The token only points at a
// server-side session through its ID (jti); it carries no authority alone.
type Claims struct {
	jwt.RegisteredClaims
}

// Gate checks the admin credential pair and maps session tokens to
// authenticated sessions.
type Gate struct {
	username     []byte
	passwordHash []byte
	secret       []byte
	sessions     *SessionStore
}

// NewGate hashes the configured password once. Matching stays an exact
// comparison: bcrypt is applied to the SHA-256 digest, so passwords longer
// than bcrypt's 72 byte limit are still compared in full.
func NewGate(cfg *config.AuthConfig, sessions *SessionStore) (*Gate, error) {
	hash, err := bcrypt.GenerateFromPassword(digest(cfg.Password), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &Gate{
		username:     []byte(cfg.Username),
		passwordHash: hash,
		secret:       []byte(cfg.Secret),
		sessions:     sessions,
	}, nil
}

func digest(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(hex.EncodeToString(sum[:]))
}

// Login opens a session when username and password match the admin pair and
// returns the signed token for the session cookie.
func (g *Gate) Login(username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), g.username) == 1
	passOK := bcrypt.CompareHashAndPassword(g.passwordHash, digest(password)) == nil
	if !userOK || !passOK {
		return "", ErrInvalidCredentials
	}

	s := g.sessions.Create(username)
	token, err := g.sign(s)
	if err != nil {
		g.sessions.Delete(s.ID)
		return "", err
	}
	return token, nil
}

// Authenticate resolves a token to its live session.
func (g *Gate) Authenticate(token string) (Session, error) {
	claims, err := g.parse(token)
	if err != nil {
		return Session{}, err
	}
	s, ok := g.sessions.Get(claims.ID)
	if !ok {
		return Session{}, ErrSessionEnded
	}
	return s, nil
}

// Logout ends the session behind token. Unknown or invalid tokens are ignored.
func (g *Gate) Logout(token string) {
	claims, err := g.parse(token)
	if err != nil {
		return
	}
	g.sessions.Delete(claims.ID)
}

func (g *Gate) sign(s Session) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       s.ID,
			Subject:  s.Username,
			Issuer:   issuer,
			IssuedAt: jwt.NewNumericDate(s.CreatedAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

func (g *Gate) parse(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithLeeway(time.Minute),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
