package session

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
)

// Session keys.
const (
	KeyUserID      = "userId"
	KeyLoggedIn    = "loggedIn"
	KeyDeletedPost = "deletedPost"
)

// Config configures the session Manager.
type Config struct {
	// Storage persists session data. Nil selects Fiber's in-memory storage.
	Storage      fiber.Storage
	CookieName   string
	CookieSecure bool
	TTL          time.Duration
}

// Manager reads and writes the typed values kept in a browser session. A
// session is only persisted (and its cookie issued) on the first write.
type Manager struct {
	store *session.Store
}

// NewManager builds a Manager over Fiber's session store.
func NewManager(cfg Config) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = "microblog_session"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}

	store := session.New(session.Config{
		Expiration:     cfg.TTL,
		Storage:        cfg.Storage,
		KeyLookup:      "cookie:" + cfg.CookieName,
		CookieSecure:   cfg.CookieSecure,
		CookieHTTPOnly: true,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		KeyGenerator:   uuid.NewString,
	})

	return &Manager{store: store}
}

// UserID returns the logged-in user id, or 0 for anonymous sessions.
func (m *Manager) UserID(c *fiber.Ctx) (uint, error) {
	sess, err := m.store.Get(c)
	if err != nil {
		return 0, fmt.Errorf("load session: %w", err)
	}
	if loggedIn, _ := sess.Get(KeyLoggedIn).(bool); !loggedIn {
		return 0, nil
	}
	id, _ := sess.Get(KeyUserID).(uint)
	return id, nil
}

// Login binds the session to userID under a fresh session id.
func (m *Manager) Login(c *fiber.Ctx, userID uint) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if !sess.Fresh() {
		if err := sess.Regenerate(); err != nil {
			return fmt.Errorf("regenerate session: %w", err)
		}
	}
	sess.Set(KeyUserID, userID)
	sess.Set(KeyLoggedIn, true)
	if err := sess.Save(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Logout destroys the session and expires its cookie.
func (m *Manager) Logout(c *fiber.Ctx) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if err := sess.Destroy(); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

// SetFlash stores a message shown once on the next profile view.
func (m *Manager) SetFlash(c *fiber.Ctx, msg string) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	sess.Set(KeyDeletedPost, msg)
	if err := sess.Save(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// ConsumeFlash returns and clears the pending flash message.
func (m *Manager) ConsumeFlash(c *fiber.Ctx) (string, error) {
	sess, err := m.store.Get(c)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	msg, ok := sess.Get(KeyDeletedPost).(string)
	if !ok {
		return "", nil
	}
	sess.Delete(KeyDeletedPost)
	if err := sess.Save(); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return msg, nil
}
