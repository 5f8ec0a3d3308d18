package service

import (
	"context"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"
)

// FollowService toggles follow edges between users.
type FollowService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
}

func NewFollowService(users repository.UserRepository, follows repository.FollowRepository) *FollowService {
	return &FollowService{users: users, follows: follows}
}

// Follow makes viewer follow username and returns the target. Following
// yourself or someone already followed changes nothing.
func (s *FollowService) Follow(ctx context.Context, viewer models.Viewer, username string) (*models.User, error) {
	target, err := s.resolve(ctx, viewer, username)
	if err != nil {
		return nil, err
	}
	if viewer.Is(target.ID) {
		return target, nil
	}
	created, err := s.follows.Create(ctx, viewer.ID, target.ID)
	if err != nil {
		return nil, err
	}
	if created {
		middleware.Logger.InfoContext(ctx, "user followed", "follower_id", viewer.ID, "followee_id", target.ID)
	}
	return target, nil
}

// Unfollow removes the edge if present and returns the target.
func (s *FollowService) Unfollow(ctx context.Context, viewer models.Viewer, username string) (*models.User, error) {
	target, err := s.resolve(ctx, viewer, username)
	if err != nil {
		return nil, err
	}
	removed, err := s.follows.Delete(ctx, viewer.ID, target.ID)
	if err != nil {
		return nil, err
	}
	if removed {
		middleware.Logger.InfoContext(ctx, "user unfollowed", "follower_id", viewer.ID, "followee_id", target.ID)
	}
	return target, nil
}

func (s *FollowService) resolve(ctx context.Context, viewer models.Viewer, username string) (*models.User, error) {
	if !viewer.Authenticated() {
		return nil, models.NewUnauthorizedError("Sign in to follow authors")
	}
	return s.users.GetByUsername(ctx, username)
}
