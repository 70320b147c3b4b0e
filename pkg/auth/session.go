package auth

import (
	"crypto/sha256"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

// SessionName is the name of the dev session cookie.
const SessionName = "crm-session"

// Session value keys.
const (
	SessionKeyUserID = "user_id"
	SessionKeyRole   = "role"
)

// SessionStore keeps the acting user in a signed cookie. It is only consulted
// when token verification is disabled, so a developer can pick which CRM user
// to act as without an identity provider.
type SessionStore struct {
	store *sessions.CookieStore
}

// NewSessionStore initializes the cookie-based session store.
//
// The secret parameter is used to sign session cookies. It can be any
// passphrase - it will be SHA-256 hashed to derive a 32-byte key.
// The secret must be consistent across server restarts.
func NewSessionStore(secret string, cookies CookieSettings) *SessionStore {
	key := sha256.Sum256([]byte(secret))

	store := sessions.NewCookieStore(key[:])
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   cookies.Domain,
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionStore{store: store}
}

// SetActor records actor in the session cookie.
func (s *SessionStore) SetActor(w http.ResponseWriter, r *http.Request, actor *Actor) error {
	session, err := s.store.Get(r, SessionName)
	if err != nil && session == nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	session.Values[SessionKeyUserID] = actor.UserID.String()
	session.Values[SessionKeyRole] = actor.Role
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Actor returns the acting user stored in the session, if any.
func (s *SessionStore) Actor(r *http.Request) (*Actor, bool) {
	session, err := s.store.Get(r, SessionName)
	if err != nil || session == nil {
		return nil, false
	}
	raw, ok := session.Values[SessionKeyUserID].(string)
	if !ok {
		return nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}
	role, _ := session.Values[SessionKeyRole].(string)
	return &Actor{UserID: id, Role: role}, true
}

// Clear expires the session cookie.
func (s *SessionStore) Clear(w http.ResponseWriter, r *http.Request) error {
	session, err := s.store.Get(r, SessionName)
	if err != nil && session == nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	session.Values = map[interface{}]interface{}{}
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
