package server

import (
	"errors"

	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

var postFormFields = []string{"text", "group", "image"}

// postFormResponse describes the create/edit form, with errors when a
// submission was rejected.
type postFormResponse struct {
	IsEdit bool              `json:"is_edit"`
	Post   *postView         `json:"post,omitempty"`
	Fields []string          `json:"fields"`
	Values map[string]string `json:"values,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
	Groups []groupView       `json:"groups"`
}

type postDetailResponse struct {
	Post            postView      `json:"post"`
	AuthorPostCount int64         `json:"author_post_count"`
	Comments        []commentView `json:"comments"`
	CommentForm     []string      `json:"comment_form"`
	CanEdit         bool          `json:"can_edit"`
}

func (s *Server) postFormResponse(c *fiber.Ctx, post *models.Post) (*postFormResponse, error) {
	groups, err := s.posts.Groups(c.UserContext())
	if err != nil {
		return nil, err
	}
	resp := &postFormResponse{Fields: postFormFields, Groups: make([]groupView, 0, len(groups))}
	for _, g := range groups {
		resp.Groups = append(resp.Groups, groupView{ID: g.ID, Title: g.Title, Slug: g.Slug})
	}
	if post != nil {
		v := newPostView(*post)
		resp.IsEdit = true
		resp.Post = &v
	}
	return resp, nil
}

// formInvalid re-renders the form with the rejected values and field errors.
func (s *Server) formInvalid(c *fiber.Ctx, post *models.Post, in service.PostInput, err error) error {
	resp, ferr := s.postFormResponse(c, post)
	if ferr != nil {
		return s.respondError(c, ferr)
	}
	var appErr *models.AppError
	errors.As(err, &appErr)
	resp.Values = map[string]string{"text": in.Text, "group": in.Group}
	resp.Errors = appErr.Fields
	return c.Status(fiber.StatusBadRequest).JSON(resp)
}

// PostDetail handles GET /posts/:id/
// @Summary Post detail
// @Description A post with its comments in the order they were written.
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} postDetailResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/ [get]
func (s *Server) PostDetail(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	detail, err := s.posts.Detail(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}

	resp := postDetailResponse{
		Post:            newPostView(*detail.Post),
		AuthorPostCount: detail.AuthorPostCount,
		Comments:        make([]commentView, 0, len(detail.Comments)),
		CommentForm:     []string{"text"},
		CanEdit:         viewer(c).Is(detail.Post.AuthorID),
	}
	for i := range detail.Comments {
		cm := &detail.Comments[i]
		resp.Comments = append(resp.Comments, commentView{
			ID:        cm.ID,
			Text:      cm.Text,
			CreatedAt: cm.CreatedAt,
			Author:    newAuthorView(&cm.Author),
		})
	}
	return c.JSON(resp)
}

// PostCreateForm handles GET /create/
// @Summary New post form
// @Tags posts
// @Produce json
// @Success 200 {object} postFormResponse
// @Failure 302 "Redirect to login"
// @Router /create/ [get]
func (s *Server) PostCreateForm(c *fiber.Ctx) error {
	resp, err := s.postFormResponse(c, nil)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(resp)
}

// PostCreate handles POST /create/
// @Summary Publish a post
// @Description Followers of the author get a live notice.
// @Tags posts
// @Accept x-www-form-urlencoded,mpfd
// @Produce json
// @Param text formData string true "Post text"
// @Param group formData string false "Group ID"
// @Param image formData file false "Image"
// @Success 302 "Redirect to the author's profile"
// @Failure 400 {object} postFormResponse
// @Router /create/ [post]
func (s *Server) PostCreate(c *fiber.Ctx) error {
	ctx := c.UserContext()
	in, err := readPostForm(c)
	if err != nil {
		return s.respondError(c, err)
	}

	post, err := s.posts.Create(ctx, viewer(c), in)
	if err != nil {
		if models.ErrorCode(err) == models.CodeValidation {
			return s.formInvalid(c, nil, in, err)
		}
		return s.respondError(c, err)
	}

	author, err := s.users.GetByID(ctx, post.AuthorID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Redirect(profileURL(author.Username), fiber.StatusFound)
}

// PostEditForm handles GET /posts/:id/edit/
// @Summary Edit post form
// @Description Only the author may edit; anyone else is sent to the post page.
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} postFormResponse
// @Success 302 "Redirect to the post for non-authors"
// @Router /posts/{id}/edit/ [get]
func (s *Server) PostEditForm(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.posts.ForEdit(c.UserContext(), viewer(c), id)
	if err != nil {
		if models.ErrorCode(err) == models.CodeForbidden {
			return c.Redirect(postURL(id), fiber.StatusFound)
		}
		return s.respondError(c, err)
	}
	resp, err := s.postFormResponse(c, post)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(resp)
}

// PostEdit handles POST /posts/:id/edit/
// @Summary Update a post
// @Tags posts
// @Accept x-www-form-urlencoded,mpfd
// @Produce json
// @Param id path int true "Post ID"
// @Param text formData string true "Post text"
// @Param group formData string false "Group ID, empty to clear"
// @Param image formData file false "Replacement image"
// @Success 302 "Redirect to the post"
// @Failure 400 {object} postFormResponse
// @Router /posts/{id}/edit/ [post]
func (s *Server) PostEdit(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	in, err := readPostForm(c)
	if err != nil {
		return s.respondError(c, err)
	}

	post, err := s.posts.Update(ctx, viewer(c), id, in)
	switch models.ErrorCode(err) {
	case "":
		if err != nil {
			return s.respondError(c, err)
		}
		return c.Redirect(postURL(post.ID), fiber.StatusFound)
	case models.CodeForbidden:
		return c.Redirect(postURL(id), fiber.StatusFound)
	case models.CodeValidation:
		current, ferr := s.posts.ForEdit(ctx, viewer(c), id)
		if ferr != nil {
			return s.respondError(c, ferr)
		}
		return s.formInvalid(c, current, in, err)
	default:
		return s.respondError(c, err)
	}
}

// PostDelete handles POST /posts/:id/delete/
// @Summary Delete a post
// @Description Removes the post and its comments. The cached global feed is not invalidated.
// @Tags posts
// @Param id path int true "Post ID"
// @Success 302 "Redirect to the author's profile, or to the post for non-authors"
// @Router /posts/{id}/delete/ [post]
func (s *Server) PostDelete(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.posts.Delete(c.UserContext(), viewer(c), id)
	if err != nil {
		if models.ErrorCode(err) == models.CodeForbidden {
			return c.Redirect(postURL(id), fiber.StatusFound)
		}
		return s.respondError(c, err)
	}
	return c.Redirect(profileURL(post.Author.Username), fiber.StatusFound)
}

// AddComment handles POST /posts/:id/comment/
// @Summary Comment on a post
// @Tags posts
// @Accept x-www-form-urlencoded
// @Produce json
// @Param id path int true "Post ID"
// @Param text formData string true "Comment text"
// @Success 302 "Redirect to the post"
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/{id}/comment/ [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var form struct {
		Text string `json:"text" form:"text"`
	}
	_ = c.BodyParser(&form)

	if _, err := s.posts.AddComment(c.UserContext(), viewer(c), id, form.Text); err != nil {
		return s.respondError(c, err)
	}
	return c.Redirect(postURL(id), fiber.StatusFound)
}
