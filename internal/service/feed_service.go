// Package service implements the feed, follow, post and account operations.
package service

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/pagination"
	"yatube/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FeedKind names one of the four listing modes.
type FeedKind string

const (
	FeedGlobal FeedKind = "global"
	FeedGroup  FeedKind = "group"
	FeedAuthor FeedKind = "author"
	FeedFollow FeedKind = "follow"
)

// Feed is a resolved listing. Group and Author are set for their kinds.
type Feed struct {
	Kind   FeedKind
	Group  *models.Group
	Author *models.User
	filter repository.PostFilter
}

// FeedService composes ordered post listings.
type FeedService struct {
	posts    repository.PostRepository
	users    repository.UserRepository
	groups   repository.GroupRepository
	follows  repository.FollowRepository
	pageSize int
}

func NewFeedService(
	posts repository.PostRepository,
	users repository.UserRepository,
	groups repository.GroupRepository,
	follows repository.FollowRepository,
	pageSize int,
) *FeedService {
	if pageSize < 1 {
		pageSize = pagination.DefaultPageSize
	}
	return &FeedService{
		posts:    posts,
		users:    users,
		groups:   groups,
		follows:  follows,
		pageSize: pageSize,
	}
}

// PageSize is the number of posts on every feed page.
func (s *FeedService) PageSize() int { return s.pageSize }

// GlobalFeed lists every post.
func (s *FeedService) GlobalFeed(_ context.Context) Feed {
	return Feed{Kind: FeedGlobal}
}

// GroupFeed lists the posts of the group with slug.
func (s *FeedService) GroupFeed(ctx context.Context, slug string) (Feed, error) {
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		return Feed{}, err
	}
	return Feed{Kind: FeedGroup, Group: group, filter: repository.PostFilter{GroupID: group.ID}}, nil
}

// AuthorFeed lists the posts written by username.
func (s *FeedService) AuthorFeed(ctx context.Context, username string) (Feed, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return Feed{}, err
	}
	return Feed{Kind: FeedAuthor, Author: author, filter: repository.PostFilter{AuthorID: author.ID}}, nil
}

// FollowFeed lists posts by authors the viewer follows.
func (s *FeedService) FollowFeed(_ context.Context, viewer models.Viewer) (Feed, error) {
	if !viewer.Authenticated() {
		return Feed{}, models.NewUnauthorizedError("Sign in to see posts of authors you follow")
	}
	return Feed{Kind: FeedFollow, filter: repository.PostFilter{FollowedBy: viewer.ID}}, nil
}

// IsFollowing reports whether viewer follows authorID. Anonymous viewers follow nobody.
func (s *FeedService) IsFollowing(ctx context.Context, viewer models.Viewer, authorID uint) (bool, error) {
	if !viewer.Authenticated() {
		return false, nil
	}
	return s.follows.Exists(ctx, viewer.ID, authorID)
}

// PostIDs returns the full ordered id sequence of feed.
func (s *FeedService) PostIDs(ctx context.Context, feed Feed) ([]uint, error) {
	return s.posts.IDs(ctx, feed.filter)
}

// Count returns the number of posts in feed.
func (s *FeedService) Count(ctx context.Context, feed Feed) (int64, error) {
	return s.posts.Count(ctx, feed.filter)
}

// Page returns page requested of feed. requested is the raw query value.
func (s *FeedService) Page(ctx context.Context, feed Feed, requested string) (page pagination.Page[models.Post], err error) {
	ctx, finish := observability.StartSpan(ctx, "FeedService.Page",
		attribute.String("feed.kind", string(feed.Kind)),
		attribute.String("feed.page", requested),
	)
	defer func() { finish(err) }()

	observability.FeedPageRequests.WithLabelValues(string(feed.Kind)).Inc()

	total, err := s.posts.Count(ctx, feed.filter)
	if err != nil {
		return page, err
	}
	w := pagination.Resolve(int(total), s.pageSize, requested)

	var posts []models.Post
	if w.Limit > 0 {
		posts, err = s.posts.List(ctx, feed.filter, w.Limit, w.Offset)
		if err != nil {
			return page, err
		}
	}
	return pagination.NewPage(posts, w, s.pageSize), nil
}
