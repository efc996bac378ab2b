package server

import (
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// parsePostID extracts the :id route parameter as a positive uint.
func parsePostID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// redirectWithError sends the browser back to a form with ?error=msg.
func redirectWithError(c *fiber.Ctx, path, msg string) error {
	return c.Redirect(path + "?error=" + url.PathEscape(msg))
}
