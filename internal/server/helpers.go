package server

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// authorView is the public part of a user shown next to posts.
type authorView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

func newAuthorView(u *models.User) *authorView {
	if u == nil {
		return nil
	}
	return &authorView{ID: u.ID, Username: u.Username, FullName: u.FullName()}
}

type groupView struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type postView struct {
	ID        uint        `json:"id"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"created_at"`
	Author    *authorView `json:"author"`
	Group     *groupView  `json:"group,omitempty"`
	Image     string      `json:"image,omitempty"`
}

func newPostView(p models.Post) postView {
	v := postView{
		ID:        p.ID,
		Text:      p.Text,
		CreatedAt: p.CreatedAt,
		Author:    newAuthorView(&p.Author),
		Image:     p.ImageRef,
	}
	if p.Group != nil {
		v.Group = &groupView{ID: p.Group.ID, Title: p.Group.Title, Slug: p.Group.Slug}
	}
	return v
}

type commentView struct {
	ID        uint        `json:"id"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"created_at"`
	Author    *authorView `json:"author"`
}

// viewer returns who is making the request.
func viewer(c *fiber.Ctx) models.Viewer {
	if uid, ok := middleware.UserID(c); ok {
		return models.ViewerOf(uid)
	}
	return models.Anonymous()
}

// respondError renders err for the page flow. Anonymous users are sent to
// the login page; other errors become JSON with the status of their code.
// Forbidden edits are redirected by the caller before reaching here.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	switch models.ErrorCode(err) {
	case models.CodeUnauthorized:
		return c.Redirect(middleware.LoginURL(c.OriginalURL()), fiber.StatusFound)
	case models.CodeNotFound, models.CodeValidation, models.CodeForbidden:
	case "":
		err = models.NewInternalError(err)
		fallthrough
	default:
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"method", c.Method(), "path", c.Path(), "error", err)
	}
	return models.RespondWithError(c, models.StatusFor(err), err)
}

// parseID extracts a route parameter by name as a positive uint.
// A malformed id cannot name a post, so it is a 404 like a missing one.
// On failure it writes the response and returns errResponseWritten.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Post", c.Params(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// postForm is the create/edit form. It binds urlencoded, multipart and JSON bodies.
type postForm struct {
	Text  string `json:"text" form:"text"`
	Group string `json:"group" form:"group"`
}

// readPostForm collects the submitted post fields and the optional "image" upload.
func readPostForm(c *fiber.Ctx) (service.PostInput, error) {
	var form postForm
	// an unparsable body is an empty form; validation reports the missing fields
	_ = c.BodyParser(&form)

	in := service.PostInput{Text: form.Text, Group: form.Group}

	fh, err := c.FormFile("image")
	if err != nil {
		return in, nil
	}
	f, err := fh.Open()
	if err != nil {
		return in, models.NewInternalError(err)
	}
	defer func() { _ = f.Close() }()

	if in.Image, err = io.ReadAll(f); err != nil {
		return in, models.NewInternalError(err)
	}
	return in, nil
}

func profileURL(username string) string {
	return "/profile/" + username + "/"
}

func postURL(id uint) string {
	return fmt.Sprintf("/posts/%d/", id)
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// websocketUpgrade rejects plain HTTP requests on websocket routes.
func websocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}
