package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAdminSubject is the reserved subject that marks an administrator.
const DefaultAdminSubject = "admin_statefree"

var (
	// ErrUnauthenticated indicates a missing, malformed, expired, or badly signed credential.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden indicates a valid credential without the required privilege.
	ErrForbidden = errors.New("forbidden")

	errMissingSecret = errors.New("jwt secret not configured")
)

// Identity is the caller derived from a verified credential. It lives for one request only.
type Identity struct {
	Subject string
	IsAdmin bool
}

// Validator verifies HS256 bearer tokens signed with a single shared secret.
type Validator struct {
	secret       []byte
	adminSubject string
	parser       *jwt.Parser
	now          func() time.Time
}

// NewValidator constructs a Validator. An empty adminSubject falls back to DefaultAdminSubject.
func NewValidator(secret []byte, adminSubject string) (*Validator, error) {
	if len(secret) == 0 {
		return nil, errMissingSecret
	}
	adminSubject = strings.TrimSpace(adminSubject)
	if adminSubject == "" {
		adminSubject = DefaultAdminSubject
	}
	v := &Validator{
		secret:       append([]byte(nil), secret...),
		adminSubject: adminSubject,
		now:          time.Now,
	}
	v.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return v.now() }),
	)
	return v, nil
}

// Validate verifies the credential and returns the caller identity.
func (v *Validator) Validate(credential string) (Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return Identity{}, fmt.Errorf("%w: missing credential", ErrUnauthenticated)
	}

	claims := &jwt.RegisteredClaims{}
	token, err := v.parser.ParseWithClaims(credential, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrUnauthenticated)
	}

	return Identity{Subject: subject, IsAdmin: subject == v.adminSubject}, nil
}

// RequireAdmin validates the credential and rejects non-administrators.
func (v *Validator) RequireAdmin(credential string) (Identity, error) {
	id, err := v.Validate(credential)
	if err != nil {
		return Identity{}, err
	}
	if !id.IsAdmin {
		return Identity{}, ErrForbidden
	}
	return id, nil
}

// Issue signs a token for subject. A non-positive ttl produces a token without expiry.
func (v *Validator) Issue(subject string, ttl time.Duration) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("subject is required")
	}
	now := v.now()
	claims := jwt.RegisteredClaims{
		Subject:  subject,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// AdminSubject returns the reserved administrator subject.
func (v *Validator) AdminSubject() string {
	return v.adminSubject
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", fmt.Errorf("%w: missing authorization header", ErrUnauthenticated)
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", fmt.Errorf("%w: expected bearer scheme", ErrUnauthenticated)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: empty bearer token", ErrUnauthenticated)
	}
	return token, nil
}
