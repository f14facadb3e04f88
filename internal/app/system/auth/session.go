package auth

import (
	"fmt"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const sessionTokenKey = "access_token"

// SessionManager keeps the access token in a signed cookie session so browser
// clients do not need to handle the token themselves.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewSessionManager builds the cookie store. In production (secure=true)
// cookies are Secure + SameSite=None; in dev, Lax over plain http.
func NewSessionManager(sessionKey, name, domain string, maxAgeSeconds int, secure bool, logger *zap.Logger) (*SessionManager, error) {
	keyBytes := []byte(sessionKey)
	switch {
	case sessionKey == "" && secure:
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	case sessionKey == "":
		// Dev only: sessions will not survive a restart.
		keyBytes = securecookie.GenerateRandomKey(32)
		logger.Warn("session key not set; using an ephemeral random key")
	case len(sessionKey) < 32:
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore(keyBytes)
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   maxAgeSeconds,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		store.Options.SameSite = http.SameSiteNoneMode
	}

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// Token returns the token stored in the session, if any.
func (m *SessionManager) Token(r *http.Request) string {
	sess, err := m.store.Get(r, m.name)
	if err != nil {
		return ""
	}
	s, _ := sess.Values[sessionTokenKey].(string)
	return s
}

// SetToken stores token in the session cookie.
func (m *SessionManager) SetToken(w http.ResponseWriter, r *http.Request, token string) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values[sessionTokenKey] = token
	return sess.Save(r, w)
}

// Clear expires the session cookie.
func (m *SessionManager) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, m.name)
	delete(sess.Values, sessionTokenKey)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}
