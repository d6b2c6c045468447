package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/mohammedtarek206/elamid/internal/models"
)

const issuer = "elamid"

var (
	ErrInvalidToken = errors.New("invalid token")

	// NowFunc is swapped in tests.
	NowFunc = time.Now
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	Role      models.UserRole `json:"role"`
	Grade     models.Grade    `json:"grade,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
}

// PrincipalID returns the numeric id carried in the subject claim.
func (c *Claims) PrincipalID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

type TokenConfig struct {
	Secret          []byte
	StudentTokenTTL time.Duration
	AdminTokenTTL   time.Duration
}

// TokenIssuer mints and verifies HS256 session tokens. Verification is stateless:
// it does not consult the session store.
type TokenIssuer struct {
	secret     []byte
	studentTTL time.Duration
	adminTTL   time.Duration
}

func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	studentTTL := cfg.StudentTokenTTL
	if studentTTL <= 0 {
		studentTTL = 7 * 24 * time.Hour
	}
	adminTTL := cfg.AdminTokenTTL
	if adminTTL <= 0 {
		adminTTL = 24 * time.Hour
	}
	return &TokenIssuer{
		secret:     cfg.Secret,
		studentTTL: studentTTL,
		adminTTL:   adminTTL,
	}
}

func (t *TokenIssuer) StudentTTL() time.Duration { return t.studentTTL }
func (t *TokenIssuer) AdminTTL() time.Duration   { return t.adminTTL }

// IssueStudent signs a token bound to the given session fingerprint.
func (t *TokenIssuer) IssueStudent(student *models.Student, fingerprint string) (string, error) {
	if fingerprint == "" {
		return "", errors.New("issuing student token: empty fingerprint")
	}
	claims := &Claims{
		RegisteredClaims: t.registered(student.ID, t.studentTTL),
		Role:             models.RoleStudent,
		Grade:            student.Grade,
		SessionID:        fingerprint,
	}
	return t.sign(claims)
}

func (t *TokenIssuer) IssueAdmin(admin *models.Admin) (string, error) {
	claims := &Claims{
		RegisteredClaims: t.registered(admin.ID, t.adminTTL),
		Role:             models.RoleAdmin,
	}
	return t.sign(claims)
}

// Verify checks signature, algorithm and expiry and returns the decoded claims.
// Every failure is reported as ErrInvalidToken.
func (t *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	// jwt/v4 treats a missing exp as valid; session tokens must always expire.
	if claims.ExpiresAt == nil || !claims.ExpiresAt.Time.After(NowFunc()) {
		return nil, ErrInvalidToken
	}
	if _, err := claims.PrincipalID(); err != nil {
		return nil, ErrInvalidToken
	}

	switch claims.Role {
	case models.RoleAdmin:
		return claims, nil
	case models.RoleStudent:
		if claims.SessionID == "" {
			return nil, ErrInvalidToken
		}
		return claims, nil
	default:
		return nil, ErrInvalidToken
	}
}

func (t *TokenIssuer) registered(id uint, ttl time.Duration) jwt.RegisteredClaims {
	now := NowFunc()
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   strconv.FormatUint(uint64(id), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (t *TokenIssuer) sign(claims jwt.Claims) (string, error) {
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return ss, nil
}

// NewFingerprint returns 16 random bytes rendered as hex.
func NewFingerprint() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session fingerprint: %w", err)
	}
	return hex.EncodeToString(b), nil
}
