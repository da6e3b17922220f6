// Package session keeps the one uploaded dataset each browser session may
// hold. Entries expire after a period of inactivity and the store is bounded.
package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"salesdash/internal/cache"
	"salesdash/internal/core"
	"salesdash/internal/log"
)

// CookieName identifies the session cookie.
const CookieName = "salesdash_session"

// Store maps session ids to uploaded datasets.
type Store struct {
	entries *cache.LRUCache[*core.Dataset]
	ttl     time.Duration
	secure  bool
	logger  *log.Logger
}

// NewStore creates a store holding at most maxSessions uploads, each
// dropped after ttl without access.
func NewStore(maxSessions int, ttl time.Duration, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default(log.ComponentSession)
	}
	return &Store{
		entries: cache.NewLRUCache[*core.Dataset](maxSessions, ttl),
		ttl:     ttl,
		logger:  logger.WithComponent(log.ComponentSession),
	}
}

// SetSecure marks issued cookies as HTTPS-only.
func (s *Store) SetSecure(secure bool) { s.secure = secure }

// Cleaner exposes the underlying cache for periodic expiry sweeps.
func (s *Store) Cleaner() cache.Cleaner { return s.entries }

// Dataset returns the upload held by session id and keeps it alive for
// another ttl.
func (s *Store) Dataset(id string) (*core.Dataset, bool) {
	if id == "" {
		return nil, false
	}
	return s.entries.Touch(id)
}

// Put stores ds for id, replacing any earlier upload.
func (s *Store) Put(id string, ds *core.Dataset) {
	s.entries.Set(id, ds)
	s.logger.Debug("Session dataset stored",
		log.FieldSessionID, id,
		log.FieldDatasetHash, ds.Hash,
		log.FieldRows, ds.Len())
}

// Clear drops the upload for id so the default dataset applies again.
func (s *Store) Clear(id string) {
	s.entries.Delete(id)
}

// Len returns the number of live sessions holding an upload.
func (s *Store) Len() int { return s.entries.Size() }

// ID returns the request's session id, or "" when it carries none or the
// cookie is not a valid id.
func ID(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return ""
	}
	return c.Value
}

// Ensure returns the request's session id, issuing a new cookie when the
// request has none.
func (s *Store) Ensure(w http.ResponseWriter, r *http.Request) string {
	if id := ID(r); id != "" {
		return id
	}
	id := uuid.NewString()
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if s.ttl > 0 {
		cookie.MaxAge = int(s.ttl.Seconds())
	}
	http.SetCookie(w, cookie)
	s.logger.Debug("Session issued", log.FieldSessionID, id)
	return id
}
