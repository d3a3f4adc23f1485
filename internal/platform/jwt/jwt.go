package jwt

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

const (
	issuer   = "userdesk"
	audience = "userdesk-forms"
	formType = "form"
)

var ErrInvalidToken = errors.New("invalid form token")

// FormClaims identify one rendered form: the session it belongs to and the
// record it edits ("" for a new record).
type FormClaims struct {
	FormID   string
	RecordID string
}

type Signer interface {
	SignForm(formID, recordID string) (string, error)
	ParseForm(tokenStr string) (FormClaims, error)
}

// HS256 signs form tokens with a key derived from the application secret.
type HS256 struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewHS256 derives the signing key from secret. An empty secret gets a
// random key, so tokens do not survive a restart.
func NewHS256(secret []byte, ttl time.Duration) (*HS256, error) {
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate secret: %w", err)
		}
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte("userdesk form token")), key); err != nil {
		return nil, fmt.Errorf("derive form key: %w", err)
	}
	return &HS256{key: key, ttl: ttl, now: time.Now}, nil
}

func (h *HS256) SignForm(formID, recordID string) (string, error) {
	now := h.now()
	claims := jwt.MapClaims{
		"sub":  formID,
		"rid":  recordID,
		"type": formType,
		"iat":  now.Unix(),
		"exp":  now.Add(h.ttl).Unix(),
		"iss":  issuer,
		"aud":  audience,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(h.key)
}

func (h *HS256) ParseForm(tokenStr string) (FormClaims, error) {
	t, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return h.key, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(h.now),
	)
	if err != nil || !t.Valid {
		return FormClaims{}, ErrInvalidToken
	}

	claims := t.Claims.(jwt.MapClaims)
	if tType, ok := claims["type"]; !ok || tType != formType {
		return FormClaims{}, ErrInvalidToken
	}
	formID, _ := claims["sub"].(string)
	recordID, _ := claims["rid"].(string)
	if formID == "" {
		return FormClaims{}, ErrInvalidToken
	}
	return FormClaims{FormID: formID, RecordID: recordID}, nil
}
