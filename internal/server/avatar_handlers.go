package server

import (
	"net/url"

	"microblog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Avatar handles GET /avatar/:username. The image depends only on the first
// letter of the name, so clients may cache it for a day.
func (s *Server) Avatar(c *fiber.Ctx) error {
	username := c.Params("username")
	if decoded, err := url.PathUnescape(username); err == nil {
		username = decoded
	}

	img, err := s.avatarService.Render(c.UserContext(), username, c.Query("format"))
	if err != nil {
		if models.HasCode(err, models.CodeValidation) {
			return models.RespondWithError(c, fiber.StatusBadRequest, err)
		}
		return err
	}

	c.Set(fiber.HeaderContentType, img.ContentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	return c.Send(img.Data)
}
