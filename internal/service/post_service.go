package service

import (
	"context"
	"strconv"
	"strings"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"
)

const (
	msgRequired      = "This field is required."
	msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
)

// ImageSaver stores uploaded post images.
type ImageSaver interface {
	SaveImage(ctx context.Context, userID uint, content []byte) (string, error)
	Remove(ctx context.Context, ref string) error
}

// PostAnnouncer tells followers about a new post.
type PostAnnouncer interface {
	AnnounceNewPost(ctx context.Context, post *models.Post, author *models.User, followerIDs []uint)
}

// PostInput is a submitted post form. Group is the raw group id, empty for none.
type PostInput struct {
	Text  string
	Group string
	Image []byte
}

// PostDetail is everything the post page shows.
type PostDetail struct {
	Post            *models.Post
	Comments        []models.Comment
	AuthorPostCount int64
}

type PostService struct {
	posts     repository.PostRepository
	comments  repository.CommentRepository
	groups    repository.GroupRepository
	users     repository.UserRepository
	follows   repository.FollowRepository
	images    ImageSaver
	announcer PostAnnouncer
}

// NewPostService wires the post operations. images and announcer may be nil.
func NewPostService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	groups repository.GroupRepository,
	users repository.UserRepository,
	follows repository.FollowRepository,
	images ImageSaver,
	announcer PostAnnouncer,
) *PostService {
	return &PostService{
		posts:     posts,
		comments:  comments,
		groups:    groups,
		users:     users,
		follows:   follows,
		images:    images,
		announcer: announcer,
	}
}

// Groups lists the choices of the post form.
func (s *PostService) Groups(ctx context.Context) ([]models.Group, error) {
	return s.groups.List(ctx)
}

// Detail loads a post with its comments and the author's post count.
func (s *PostService) Detail(ctx context.Context, postID uint) (*PostDetail, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	count, err := s.posts.Count(ctx, repository.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		return nil, err
	}
	return &PostDetail{Post: post, Comments: comments, AuthorPostCount: count}, nil
}

// Create publishes a post by viewer and announces it to their followers.
func (s *PostService) Create(ctx context.Context, viewer models.Viewer, in PostInput) (*models.Post, error) {
	if !viewer.Authenticated() {
		return nil, models.NewUnauthorizedError("Sign in to write posts")
	}
	text, groupID, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}

	post := &models.Post{Text: text, AuthorID: viewer.ID, GroupID: groupID}
	if len(in.Image) > 0 {
		if post.ImageRef, err = s.saveImage(ctx, viewer.ID, in.Image); err != nil {
			return nil, err
		}
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "post created", "post_id", post.ID, "author_id", viewer.ID)

	s.announce(ctx, post)
	return post, nil
}

// ForEdit returns the post if viewer may edit it.
func (s *PostService) ForEdit(ctx context.Context, viewer models.Viewer, postID uint) (*models.Post, error) {
	if !viewer.Authenticated() {
		return nil, models.NewUnauthorizedError("Sign in to edit posts")
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !viewer.Is(post.AuthorID) {
		return nil, models.NewForbiddenError("Only the author can edit this post")
	}
	return post, nil
}

// Update rewrites text, group and optionally the image of viewer's post.
func (s *PostService) Update(ctx context.Context, viewer models.Viewer, postID uint, in PostInput) (*models.Post, error) {
	post, err := s.ForEdit(ctx, viewer, postID)
	if err != nil {
		return nil, err
	}
	text, groupID, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}

	oldImage := post.ImageRef
	post.Text = text
	post.GroupID = groupID
	if len(in.Image) > 0 {
		if post.ImageRef, err = s.saveImage(ctx, viewer.ID, in.Image); err != nil {
			return nil, err
		}
	}
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	if oldImage != post.ImageRef {
		s.removeImage(ctx, oldImage)
	}
	return s.posts.GetByID(ctx, post.ID)
}

// Delete removes viewer's post with its comments and returns it.
func (s *PostService) Delete(ctx context.Context, viewer models.Viewer, postID uint) (*models.Post, error) {
	if !viewer.Authenticated() {
		return nil, models.NewUnauthorizedError("Sign in to delete posts")
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !viewer.Is(post.AuthorID) {
		return nil, models.NewForbiddenError("Only the author can delete this post")
	}
	if err := s.posts.Delete(ctx, post.ID); err != nil {
		return nil, err
	}
	s.removeImage(ctx, post.ImageRef)
	middleware.Logger.InfoContext(ctx, "post deleted", "post_id", post.ID, "author_id", viewer.ID)
	return post, nil
}

// AddComment attaches viewer's comment to the post.
func (s *PostService) AddComment(ctx context.Context, viewer models.Viewer, postID uint, text string) (*models.Comment, error) {
	if !viewer.Authenticated() {
		return nil, models.NewUnauthorizedError("Sign in to comment")
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewFieldValidationError(map[string]string{"text": msgRequired})
	}
	comment := &models.Comment{PostID: post.ID, AuthorID: viewer.ID, Text: text}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *PostService) validate(ctx context.Context, in PostInput) (string, *uint, error) {
	fields := map[string]string{}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		fields["text"] = msgRequired
	}

	var groupID *uint
	if raw := strings.TrimSpace(in.Group); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			fields["group"] = msgInvalidChoice
		} else if group, err := s.groups.GetByID(ctx, uint(id)); err != nil {
			if models.ErrorCode(err) != models.CodeNotFound {
				return "", nil, err
			}
			fields["group"] = msgInvalidChoice
		} else {
			groupID = &group.ID
		}
	}

	if len(fields) > 0 {
		return "", nil, models.NewFieldValidationError(fields)
	}
	return text, groupID, nil
}

func (s *PostService) saveImage(ctx context.Context, userID uint, content []byte) (string, error) {
	if s.images == nil {
		return "", models.NewFieldValidationError(map[string]string{"image": "Image uploads are disabled."})
	}
	return s.images.SaveImage(ctx, userID, content)
}

func (s *PostService) removeImage(ctx context.Context, ref string) {
	if s.images == nil || ref == "" {
		return
	}
	if err := s.images.Remove(ctx, ref); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to remove post image", "ref", ref, "error", err)
	}
}

func (s *PostService) announce(ctx context.Context, post *models.Post) {
	if s.announcer == nil {
		return
	}
	followers, err := s.follows.FollowerIDs(ctx, post.AuthorID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to load followers for notice", "post_id", post.ID, "error", err)
		return
	}
	if len(followers) == 0 {
		return
	}
	author, err := s.users.GetByID(ctx, post.AuthorID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to load author for notice", "post_id", post.ID, "error", err)
		return
	}
	s.announcer.AnnounceNewPost(ctx, post, author, followers)
}
