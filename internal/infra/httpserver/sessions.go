package httpserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/session"
	"github.com/bryanwahyu/repo-analyzer/internal/presentation"
)

const sessionCookie = "repo_analyzer_session"

// browserSession is the state of one browser: its machine plus the view
// built for the latest settled result.
type browserSession struct {
	machine *session.Machine

	mu      sync.Mutex
	viewSeq uint64
	view    *presentation.View
}

// viewFor builds the view for snap once per submission.
func (b *browserSession) viewFor(ctx context.Context, snap session.Snapshot, p *presentation.Presenter) *presentation.View {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.view != nil && b.viewSeq == snap.Seq {
		return b.view
	}
	// cached for later requests, so not tied to this one
	v := p.Build(context.WithoutCancel(ctx), snap.Result, snap.Request.StorageModel)
	b.view, b.viewSeq = &v, snap.Seq
	return b.view
}

// sessionStore keeps sessions in memory only; they expire after ttl of
// inactivity and the least recently used are evicted past size.
type sessionStore struct {
	lru *expirable.LRU[string, *browserSession]
	ttl time.Duration
}

func newSessionStore(size int, ttl time.Duration) *sessionStore {
	if size <= 0 {
		size = 1024
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &sessionStore{lru: expirable.NewLRU[string, *browserSession](size, nil, ttl), ttl: ttl}
}

// get returns the caller's session, starting a new one when the cookie is
// missing or has expired.
func (s *sessionStore) get(w http.ResponseWriter, r *http.Request) *browserSession {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if b, ok := s.lru.Get(c.Value); ok {
			s.lru.Add(c.Value, b)
			return b
		}
	}
	id := uuid.NewString()
	b := &browserSession{machine: session.NewMachine()}
	s.lru.Add(id, b)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return b
}

func (s *sessionStore) Len() int { return s.lru.Len() }
