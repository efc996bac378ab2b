package server

import (
	"errors"

	"microblog/internal/models"
	"microblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RegisterPage handles GET /register
func (s *Server) RegisterPage(c *fiber.Ctx) error {
	return c.Render("loginRegister", fiber.Map{
		"register": true,
		"regError": c.Query("error"),
	})
}

// LoginPage handles GET /login
func (s *Server) LoginPage(c *fiber.Ctx) error {
	return c.Render("loginRegister", fiber.Map{
		"register":   false,
		"loginError": c.Query("error"),
	})
}

// Register handles POST /register. A taken or invalid name returns the user
// to the form; success sends them to the login page.
func (s *Server) Register(c *fiber.Ctx) error {
	_, err := s.userService.Register(c.UserContext(), service.RegisterInput{
		Username: c.FormValue("username"),
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) &&
			(appErr.Code == models.CodeConflict || appErr.Code == models.CodeValidation) {
			return redirectWithError(c, "/register", appErr.Message)
		}
		return err
	}
	return c.Redirect("/login")
}

// Login handles POST /login
func (s *Server) Login(c *fiber.Ctx) error {
	user, err := s.userService.Login(c.UserContext(), service.LoginInput{
		Username: c.FormValue("username"),
	})
	if err != nil {
		if models.HasCode(err, models.CodeUnauthorized) {
			return redirectWithError(c, "/login", "Invalid username")
		}
		return err
	}

	if err := s.sessions.Login(c, user.ID); err != nil {
		return err
	}
	return c.Redirect("/")
}

// Logout handles GET /logout
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.sessions.Logout(c); err != nil {
		return err
	}
	return c.Redirect("/")
}
