package cache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/tsukikage-sato/contact-web/internal/contactform"
	"github.com/tsukikage-sato/contact-web/pkg/logger"
	"github.com/tsukikage-sato/contact-web/pkg/metrics"
)

// Session is one visitor's contact page: its controller and the route the
// controller navigated to, if any.
type Session struct {
	ID         string
	Controller *contactform.Controller

	mu       sync.Mutex
	redirect string
}

// Navigate records route as the visitor's pending navigation
func (s *Session) Navigate(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.redirect = route
}

// Redirect returns the route the controller navigated to, or ""
func (s *Session) Redirect() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.redirect
}

// ControllerFactory builds a controller that navigates through nav
type ControllerFactory func(nav contactform.Navigator) *contactform.Controller

// SessionCache keeps visitor sessions in memory. A session lives for ttl
// after its last use; when it goes, its controller is closed.
type SessionCache struct {
	cache   *gocache.Cache
	ttl     time.Duration
	factory ControllerFactory
	mu      sync.Mutex
}

// NewSessionCache creates a session cache
func NewSessionCache(ttl time.Duration, factory ControllerFactory) *SessionCache {
	c := gocache.New(ttl, time.Minute)
	c.OnEvicted(func(id string, value interface{}) {
		if session, ok := value.(*Session); ok {
			session.Controller.Close()
		}
		metrics.ActiveSessions.Dec()
		logger.Debug("Contact session closed", zap.String("session_id", id))
	})

	return &SessionCache{
		cache:   c,
		ttl:     ttl,
		factory: factory,
	}
}

// Get returns the session for id, refreshing its lifetime
func (sc *SessionCache) Get(id string) (*Session, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.touch(id)
}

// GetOrCreate returns the session for id, creating a fresh one on a miss
func (sc *SessionCache) GetOrCreate(id string) *Session {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if session, ok := sc.touch(id); ok {
		return session
	}

	// An expired entry may still be held until the janitor runs; delete it
	// so its controller is closed before being replaced.
	sc.cache.Delete(id)

	session := &Session{ID: id}
	session.Controller = sc.factory(session)
	sc.cache.Set(id, session, gocache.DefaultExpiration)
	metrics.ActiveSessions.Inc()
	logger.Debug("Contact session created", zap.String("session_id", id))
	return session
}

// Drop ends the session for id and closes its controller
func (sc *SessionCache) Drop(id string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.cache.Delete(id)
}

// Len returns the number of live sessions
func (sc *SessionCache) Len() int {
	return sc.cache.ItemCount()
}

// Flush closes every session
func (sc *SessionCache) Flush() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for id := range sc.cache.Items() {
		sc.cache.Delete(id)
	}
}

func (sc *SessionCache) touch(id string) (*Session, bool) {
	value, found := sc.cache.Get(id)
	if !found {
		return nil, false
	}
	session, ok := value.(*Session)
	if !ok {
		logger.Error("Invalid session cache data type", zap.String("session_id", id))
		sc.cache.Delete(id)
		return nil, false
	}
	sc.cache.Set(id, session, gocache.DefaultExpiration)
	return session, true
}
