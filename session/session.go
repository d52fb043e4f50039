package session

import (
	"time"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
)

// Session is the key/value state of one visitor, scoped to a request.
// Changes are persisted by Save at the end of the request.
type Session interface {
	ID() string
	Get(key string) interface{}
	Set(key string, value interface{})
	Delete(key string)
	// Regenerate keeps the data under a fresh id.
	Regenerate() error
	// Destroy drops the data and expires the cookie.
	Destroy() error
	Save() error
}

// Store loads the session of a request.
type Store interface {
	Get(c *fiber.Ctx) (Session, error)
}

// Config tunes the cookie backed store.
type Config struct {
	CookieName string
	Lifetime   time.Duration
	Secure     bool
	// Storage defaults to fiber's in-memory storage. Pass a Redis backed
	// fiber.Storage to share sessions between instances.
	Storage fiber.Storage
}

// FiberStore adapts fiber's session middleware to Store.
type FiberStore struct {
	store *fibersession.Store
}

func NewStore(cfg Config) *FiberStore {
	if cfg.CookieName == "" {
		cfg.CookieName = "crm_session"
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = time.Hour
	}

	store := fibersession.New(fibersession.Config{
		Expiration:     cfg.Lifetime,
		Storage:        cfg.Storage,
		KeyLookup:      "cookie:" + cfg.CookieName,
		CookieHTTPOnly: true,
		CookieSecure:   cfg.Secure,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
	})
	store.RegisterType(Identity{})
	store.RegisterType(Flash{})

	return &FiberStore{store: store}
}

func (s *FiberStore) Get(c *fiber.Ctx) (Session, error) {
	sess, err := s.store.Get(c)
	if err != nil {
		return nil, err
	}
	return &fiberSession{sess: sess}, nil
}

type fiberSession struct {
	sess      *fibersession.Session
	destroyed bool
}

func (s *fiberSession) ID() string                        { return s.sess.ID() }
func (s *fiberSession) Get(key string) interface{}        { return s.sess.Get(key) }
func (s *fiberSession) Set(key string, value interface{}) { s.sess.Set(key, value) }
func (s *fiberSession) Delete(key string)                 { s.sess.Delete(key) }
func (s *fiberSession) Regenerate() error                 { return s.sess.Regenerate() }

func (s *fiberSession) Destroy() error {
	s.destroyed = true
	return s.sess.Destroy()
}

// Save writes the data back to storage. A destroyed session is not
// written again, so its expired cookie stays expired.
func (s *fiberSession) Save() error {
	if s.destroyed {
		return nil
	}
	return s.sess.Save()
}
