package session

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisStorage_RoundTrip(t *testing.T) {
	mr, rdb := setupRedis(t)
	s := NewRedisStorage(rdb, "sess:")

	got, err := s.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Set("abc", []byte("data"), time.Minute))
	assert.True(t, mr.Exists("sess:abc"))

	got, err = s.Get("abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)

	mr.FastForward(2 * time.Minute)
	got, err = s.Get("abc")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Set("x", []byte("1"), 0))
	require.NoError(t, s.Delete("x"))
	assert.False(t, mr.Exists("sess:x"))
}

func TestRedisStorage_ResetOnlyTouchesPrefix(t *testing.T) {
	mr, rdb := setupRedis(t)
	s := NewRedisStorage(rdb, "sess:")

	require.NoError(t, s.Set("a", []byte("1"), 0))
	require.NoError(t, s.Set("b", []byte("2"), 0))
	require.NoError(t, mr.Set("other", "keep"))

	require.NoError(t, s.Reset())
	assert.False(t, mr.Exists("sess:a"))
	assert.False(t, mr.Exists("sess:b"))
	assert.True(t, mr.Exists("other"))
	assert.NoError(t, s.Close())
}

// newSessionApp exposes the Manager through tiny routes so tests can drive it with cookies.
func newSessionApp(m *Manager) *fiber.App {
	app := fiber.New()
	app.Get("/whoami", func(c *fiber.Ctx) error {
		id, err := m.UserID(c)
		if err != nil {
			return err
		}
		return c.SendString(strconv.FormatUint(uint64(id), 10))
	})
	app.Get("/login/:id", func(c *fiber.Ctx) error {
		id, _ := c.ParamsInt("id")
		return m.Login(c, uint(id))
	})
	app.Get("/logout", func(c *fiber.Ctx) error {
		return m.Logout(c)
	})
	app.Get("/flash", func(c *fiber.Ctx) error {
		return m.SetFlash(c, "Post deleted successfully")
	})
	app.Get("/consume", func(c *fiber.Ctx) error {
		msg, err := m.ConsumeFlash(c)
		if err != nil {
			return err
		}
		return c.SendString(msg)
	})
	return app
}

func sessionCookie(t *testing.T, resp *http.Response, name string) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func get(t *testing.T, app *fiber.App, path string, cookie *http.Cookie) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestManager_LoginLogout(t *testing.T) {
	tests := []struct {
		name    string
		storage func(t *testing.T) fiber.Storage
	}{
		{"memory", func(t *testing.T) fiber.Storage { return nil }},
		{"redis", func(t *testing.T) fiber.Storage {
			_, rdb := setupRedis(t)
			return NewRedisStorage(rdb, "sess:")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newSessionApp(NewManager(Config{Storage: tt.storage(t), CookieName: "sid"}))

			resp, body := get(t, app, "/whoami", nil)
			assert.Equal(t, "0", body)
			assert.Nil(t, sessionCookie(t, resp, "sid"), "visits must not create sessions")

			resp, _ = get(t, app, "/login/7", nil)
			cookie := sessionCookie(t, resp, "sid")
			require.NotNil(t, cookie)
			assert.True(t, cookie.HttpOnly)

			_, body = get(t, app, "/whoami", cookie)
			assert.Equal(t, "7", body)

			get(t, app, "/logout", cookie)
			_, body = get(t, app, "/whoami", cookie)
			assert.Equal(t, "0", body)
		})
	}
}

func TestManager_FlashIsOneShot(t *testing.T) {
	app := newSessionApp(NewManager(Config{CookieName: "sid"}))

	resp, _ := get(t, app, "/login/1", nil)
	cookie := sessionCookie(t, resp, "sid")
	require.NotNil(t, cookie)

	get(t, app, "/flash", cookie)

	_, body := get(t, app, "/consume", cookie)
	assert.Equal(t, "Post deleted successfully", body)

	_, body = get(t, app, "/consume", cookie)
	assert.Empty(t, strings.TrimSpace(body))

	_, body = get(t, app, "/whoami", cookie)
	assert.Equal(t, "1", body, "consuming the flash keeps the login")
}
