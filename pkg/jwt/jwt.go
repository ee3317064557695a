package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token has expired")
)

// Purpose separates session tokens from single-use email tokens signed with the same key.
type Purpose string

const (
	PurposeAccess      Purpose = "access"
	PurposeVerifyEmail Purpose = "verify_email"
)

// Claims are the claims carried by every token this package issues.
// The subject is the user ID.
type Claims struct {
	Username string  `json:"username,omitempty"`
	Email    string  `json:"email,omitempty"`
	Purpose  Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrTokenInvalid
	}
	return uint(id), nil
}

// Manager issues and validates HS256 tokens.
type Manager struct {
	secret    []byte
	accessTTL time.Duration
	verifyTTL time.Duration
}

// NewManager creates a token manager.
func NewManager(secret string, accessTTL, verifyTTL time.Duration) *Manager {
	return &Manager{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		verifyTTL: verifyTTL,
	}
}

// GenerateAccessToken creates a session token for a logged-in user.
func (m *Manager) GenerateAccessToken(userID uint, username, email string) (string, error) {
	return m.sign(userID, Claims{
		Username: username,
		Email:    email,
		Purpose:  PurposeAccess,
	}, m.accessTTL)
}

// GenerateVerificationToken creates the token embedded in the email verification link.
func (m *Manager) GenerateVerificationToken(userID uint, email string) (string, error) {
	return m.sign(userID, Claims{
		Email:   email,
		Purpose: PurposeVerifyEmail,
	}, m.verifyTTL)
}

// ParseAccessToken validates a session token.
func (m *Manager) ParseAccessToken(tokenString string) (*Claims, error) {
	return m.parse(tokenString, PurposeAccess)
}

// ParseVerificationToken validates an email verification token.
func (m *Manager) ParseVerificationToken(tokenString string) (*Claims, error) {
	return m.parse(tokenString, PurposeVerifyEmail)
}

func (m *Manager) sign(userID uint, claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) parse(tokenString string, purpose Purpose) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.Purpose != purpose {
		return nil, ErrTokenInvalid
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}
