package server

import (
	"microblog/internal/middleware"
	"microblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

const deletedPostFlash = "Post deleted successfully"

// CreatePost handles POST /posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	_, err := s.postService.CreatePost(ctx, service.CreatePostInput{
		Author:  identityFrom(c),
		Title:   c.FormValue("title"),
		Content: c.FormValue("content"),
	})
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to create post", "error", err)
		return c.Redirect("/error")
	}
	return c.Redirect("/")
}

// LikePost handles POST /like/:id. Liking your own post, or a post that does
// not exist, changes nothing.
func (s *Server) LikePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	postID, ok := parsePostID(c)
	if !ok {
		return c.RedirectBack("/")
	}

	if _, err := s.postService.LikePost(ctx, service.LikePostInput{
		Actor:  identityFrom(c),
		PostID: postID,
	}); err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to like post", "post_id", postID, "error", err)
		return c.Redirect("/error")
	}
	return c.RedirectBack("/")
}

// DeletePost handles POST /delete/:id. Only the author's own posts are removed;
// the confirmation flash is set either way.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if postID, ok := parsePostID(c); ok {
		if _, err := s.postService.DeletePost(ctx, service.DeletePostInput{
			Actor:  identityFrom(c),
			PostID: postID,
		}); err != nil {
			middleware.Logger.ErrorContext(ctx, "failed to delete post", "post_id", postID, "error", err)
			return c.Redirect("/error")
		}
	}

	if err := s.sessions.SetFlash(c, deletedPostFlash); err != nil {
		return err
	}
	return c.Redirect("/profile")
}
