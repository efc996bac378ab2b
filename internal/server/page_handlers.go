package server

import (
	"microblog/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// Home handles GET /
func (s *Server) Home(c *fiber.Ctx) error {
	posts, err := s.postService.ListPosts(c.UserContext())
	if err != nil {
		return err
	}

	bind := fiber.Map{"posts": posts}
	if identity := identityFrom(c); !identity.IsZero() {
		bind["user"] = identity
	}
	return c.Render("home", bind)
}

// Profile handles GET /profile
func (s *Server) Profile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	identity := identityFrom(c)

	posts, err := s.postService.ListUserPosts(ctx, identity)
	if err != nil {
		return err
	}

	flash, err := s.sessions.ConsumeFlash(c)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to read flash message", "error", err)
	}

	bind := fiber.Map{
		"user":  identity,
		"posts": posts,
	}
	if flash != "" {
		bind["deletedPost"] = flash
	}

	user, err := s.userService.GetUserByID(ctx, identity.UserID)
	if err != nil {
		return err
	}
	if !user.MemberSince.IsZero() {
		bind["memberSince"] = user.MemberSince
	}

	return c.Render("profile", bind)
}

// ErrorPage handles GET /error
func (s *Server) ErrorPage(c *fiber.Ctx) error {
	return c.Render("error", fiber.Map{})
}
