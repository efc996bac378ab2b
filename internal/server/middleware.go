package server

import (
	"errors"

	"microblog/internal/middleware"
	"microblog/internal/models"

	"github.com/gofiber/fiber/v2"
)

const identityLocal = "identity"

// ViewLocals exposes the values every page layout reads.
func (s *Server) ViewLocals() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("appName", s.config.AppName)
		c.Locals("copyrightYear", s.clock.Now().Year())
		c.Locals("postNeoType", "Post")
		c.Locals("loggedIn", false)
		c.Locals("userId", uint(0))
		return c.Next()
	}
}

// LoadIdentity resolves the session into a models.Identity for the request.
// Sessions pointing at a user that no longer exists are treated as anonymous.
func (s *Server) LoadIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if isStatelessPath(c.Path()) {
			return c.Next()
		}

		ctx := c.UserContext()
		userID, err := s.sessions.UserID(c)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "session unreadable, continuing anonymously", "error", err)
			userID = 0
		}

		identity, err := s.userService.Identify(ctx, userID)
		if err != nil {
			return err
		}

		c.Locals(identityLocal, identity)
		if !identity.IsZero() {
			c.Locals("userID", identity.UserID)
			c.Locals("userId", identity.UserID)
			c.Locals("loggedIn", true)
			c.SetUserContext(middleware.WithUserID(ctx, identity.UserID))
		}
		return c.Next()
	}
}

// AuthRequired sends anonymous visitors to the login page.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if identityFrom(c).IsZero() {
			return c.Redirect("/login")
		}
		return c.Next()
	}
}

func identityFrom(c *fiber.Ctx) models.Identity {
	identity, _ := c.Locals(identityLocal).(models.Identity)
	return identity
}

// handleError renders client errors in place and sends server failures to /error.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	if code < fiber.StatusInternalServerError {
		message := fe.Message
		if code == fiber.StatusNotFound {
			message = "Page not found"
		}
		return s.renderErrorPage(c, code, message)
	}

	middleware.Logger.ErrorContext(c.UserContext(), "request failed",
		"method", c.Method(), "path", c.Path(), "error", err)

	// Never bounce the error page onto itself
	if c.Path() == "/error" {
		return s.renderErrorPage(c, code, "")
	}
	return c.Redirect("/error")
}

func (s *Server) renderErrorPage(c *fiber.Ctx, status int, message string) error {
	bind := fiber.Map{
		"status":  status,
		"message": message,
	}
	// Errors raised before ViewLocals ran still need the layout values
	if c.Locals("appName") == nil {
		bind["appName"] = s.config.AppName
		bind["copyrightYear"] = s.clock.Now().Year()
		bind["loggedIn"] = false
		bind["userId"] = uint(0)
	}
	if err := c.Status(status).Render("error", bind); err != nil {
		return c.Status(status).SendString(fiber.ErrInternalServerError.Message)
	}
	return nil
}
