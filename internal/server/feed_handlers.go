package server

import (
	"encoding/json"

	"yatube/internal/cache"
	"yatube/internal/models"
	"yatube/internal/pagination"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// feedResponse is the JSON rendering of a feed page.
type feedResponse struct {
	Kind      service.FeedKind          `json:"kind"`
	Group     *groupView                `json:"group,omitempty"`
	Author    *authorView               `json:"author,omitempty"`
	PostCount *int                      `json:"post_count,omitempty"`
	Following *bool                     `json:"following,omitempty"`
	Page      pagination.Page[postView] `json:"page"`
}

func (s *Server) renderFeed(c *fiber.Ctx, feed service.Feed) (*feedResponse, error) {
	page, err := s.feeds.Page(c.UserContext(), feed, c.Query("page"))
	if err != nil {
		return nil, err
	}
	return &feedResponse{
		Kind: feed.Kind,
		Page: pagination.Map(page, newPostView),
	}, nil
}

// Index handles GET /
// @Summary Global feed
// @Description All posts, newest first. Pages are cached for LISTING_CACHE_TTL_SECONDS
// @Description and are not invalidated by writes.
// @Tags feeds
// @Produce json
// @Param page query string false "1-based page number; invalid values show page 1"
// @Success 200 {object} feedResponse
// @Router / [get]
func (s *Server) Index(c *fiber.Ctx) error {
	ctx := c.UserContext()
	key := cache.IndexKey(c.Query("page"))

	if body, ok := s.listings.Get(ctx, key); ok {
		c.Set("X-Cache", "HIT")
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(body)
	}

	resp, err := s.renderFeed(c, s.feeds.GlobalFeed(ctx))
	if err != nil {
		return s.respondError(c, err)
	}
	body, err := json.Marshal(resp)
	if err != nil {
		return s.respondError(c, models.NewInternalError(err))
	}
	s.listings.Put(ctx, key, body, s.config.ListingCacheTTL())

	c.Set("X-Cache", "MISS")
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// GroupPosts handles GET /group/:slug/
// @Summary Group feed
// @Tags feeds
// @Produce json
// @Param slug path string true "Group slug"
// @Param page query string false "Page number"
// @Success 200 {object} feedResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /group/{slug}/ [get]
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	feed, err := s.feeds.GroupFeed(c.UserContext(), c.Params("slug"))
	if err != nil {
		return s.respondError(c, err)
	}
	resp, err := s.renderFeed(c, feed)
	if err != nil {
		return s.respondError(c, err)
	}
	resp.Group = &groupView{ID: feed.Group.ID, Title: feed.Group.Title, Slug: feed.Group.Slug}
	return c.JSON(resp)
}

// Profile handles GET /profile/:username/
// @Summary Author feed
// @Description Posts of one author with their post count and whether the viewer follows them.
// @Tags feeds
// @Produce json
// @Param username path string true "Username"
// @Param page query string false "Page number"
// @Success 200 {object} feedResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{username}/ [get]
func (s *Server) Profile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	feed, err := s.feeds.AuthorFeed(ctx, c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	resp, err := s.renderFeed(c, feed)
	if err != nil {
		return s.respondError(c, err)
	}
	following, err := s.feeds.IsFollowing(ctx, viewer(c), feed.Author.ID)
	if err != nil {
		return s.respondError(c, err)
	}

	count := resp.Page.TotalItems
	resp.Author = newAuthorView(feed.Author)
	resp.PostCount = &count
	resp.Following = &following
	return c.JSON(resp)
}

// FollowIndex handles GET /follow/
// @Summary Follow feed
// @Description Posts by authors the signed-in user follows.
// @Tags feeds
// @Produce json
// @Param page query string false "Page number"
// @Success 200 {object} feedResponse
// @Failure 302 "Redirect to login"
// @Router /follow/ [get]
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	feed, err := s.feeds.FollowFeed(c.UserContext(), viewer(c))
	if err != nil {
		return s.respondError(c, err)
	}
	resp, err := s.renderFeed(c, feed)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(resp)
}

// ProfileFollow handles GET /profile/:username/follow/
// @Summary Follow an author
// @Description Idempotent. Following yourself does nothing.
// @Tags follows
// @Param username path string true "Username"
// @Success 302 "Redirect to the profile"
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{username}/follow/ [get]
func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	author, err := s.follows.Follow(c.UserContext(), viewer(c), c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Redirect(profileURL(author.Username), fiber.StatusFound)
}

// ProfileUnfollow handles GET /profile/:username/unfollow/
// @Summary Unfollow an author
// @Description Unfollowing an author you do not follow does nothing.
// @Tags follows
// @Param username path string true "Username"
// @Success 302 "Redirect to the profile"
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{username}/unfollow/ [get]
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	author, err := s.follows.Unfollow(c.UserContext(), viewer(c), c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Redirect(profileURL(author.Username), fiber.StatusFound)
}
