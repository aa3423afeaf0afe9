package shared

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

const (
	// CSRFCookieName is the cookie carrying the issued token.
	CSRFCookieName = "uniconnect_csrf"
	// CSRFFormField is the form field name carrying the CSRF token.
	CSRFFormField = "csrf_token"
	// CSRFHeader is the header alternative to CSRFFormField.
	CSRFHeader = "X-CSRF-Token"
)

var (
	ErrCSRFTokenMissing  = errors.New("csrf token missing")
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// CSRFManager issues signed tokens bound to a cookie and verifies that
// state-changing requests echo them back.
type CSRFManager struct {
	secret       []byte
	secureCookie bool
}

// NewCSRFManager returns a CSRFManager using the provided secret key. An
// empty secret is replaced by a random one, so tokens do not survive a restart.
func NewCSRFManager(secret string, secureCookie bool) *CSRFManager {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
	}
	return &CSRFManager{secret: key, secureCookie: secureCookie}
}

// EnsureToken returns the request's valid token or issues a new one, setting
// the cookie on w. It must run before the response header is written.
func (m *CSRFManager) EnsureToken(w http.ResponseWriter, r *http.Request) string {
	if m == nil {
		return ""
	}
	if cookie, err := r.Cookie(CSRFCookieName); err == nil && m.valid(cookie.Value) {
		return cookie.Value
	}
	token := m.generateToken()
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	return token
}

// VerifyRequest checks that the submitted token matches a validly signed cookie.
func (m *CSRFManager) VerifyRequest(r *http.Request) error {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return ErrCSRFTokenMissing
	}
	token := r.PostFormValue(CSRFFormField)
	if token == "" {
		token = r.Header.Get(CSRFHeader)
	}
	if token == "" {
		return ErrCSRFTokenMissing
	}
	if !m.valid(cookie.Value) || !hmac.Equal([]byte(cookie.Value), []byte(token)) {
		return ErrCSRFTokenMismatch
	}
	return nil
}

func (m *CSRFManager) generateToken() string {
	nonce := make([]byte, 16)
	_, _ = rand.Read(nonce)
	encoded := base64.RawURLEncoding.EncodeToString(nonce)
	return encoded + "." + m.sign(encoded)
}

func (m *CSRFManager) valid(token string) bool {
	nonce, sig, ok := strings.Cut(token, ".")
	if !ok || nonce == "" {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(m.sign(nonce)))
}

func (m *CSRFManager) sign(nonce string) string {
	mac := hmac.New(sha256.New, m.secret)
	_, _ = mac.Write([]byte(nonce))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
