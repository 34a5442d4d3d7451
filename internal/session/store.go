// Package session identifies browser sessions with a signed cookie and keeps
// one checkout session per browser in memory.
package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-toko/internal/common"
)

const (
	// CookieName is the name of the storefront session cookie.
	CookieName = "storefront_session"

	idKey = "sid"
)

// Options configures the cookie store.
type Options struct {
	AuthKey  []byte
	EncKey   []byte
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
	Logger   zerolog.Logger
}

// Store issues and reads the session id cookie.
type Store struct {
	cookies *sessions.CookieStore
	logger  zerolog.Logger
}

// NewStore builds a cookie store. A missing auth key is replaced by a random
// one, which invalidates sessions on restart.
func NewStore(opts Options) *Store {
	authKey := opts.AuthKey
	if len(authKey) == 0 {
		authKey = securecookie.GenerateRandomKey(32)
		opts.Logger.Warn().Msg("SESSION_AUTH_KEY not set, using an ephemeral key")
	}
	keyPairs := [][]byte{authKey}
	if len(opts.EncKey) > 0 {
		keyPairs = append(keyPairs, opts.EncKey)
	}
	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}
	sameSite := opts.SameSite
	if sameSite == http.SameSiteDefaultMode {
		sameSite = http.SameSiteLaxMode
	}
	store := sessions.NewCookieStore(keyPairs...)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: sameSite,
	}
	return &Store{cookies: store, logger: opts.Logger}
}

// Middleware ensures every request carries a session id and stores it on the
// request context.
func (s *Store) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.cookies.Get(r, CookieName)
		if err != nil {
			// tampered or rotated-key cookie; start over with a fresh one
			s.logger.Debug().Err(err).Msg("discarding unreadable session cookie")
		}
		id, _ := sess.Values[idKey].(string)
		if _, parseErr := uuid.Parse(id); parseErr != nil {
			id = uuid.NewString()
			sess.Values[idKey] = id
			if err := sess.Save(r, w); err != nil {
				s.logger.Error().Err(err).Msg("save session cookie")
				common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "session unavailable", nil)
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(common.WithSessionID(r.Context(), id)))
	})
}
