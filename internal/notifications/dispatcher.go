package notifications

import (
	"context"
	"encoding/json"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"
)

const (
	NoticeNewPost  = "new_post"
	noticeTextRune = 140
)

// NewPostNotice is sent to followers when an author they follow publishes.
type NewPostNotice struct {
	Type      string    `json:"type"`
	PostID    uint      `json:"post_id"`
	AuthorID  uint      `json:"author_id"`
	Author    string    `json:"author"`
	Excerpt   string    `json:"excerpt"`
	CreatedAt time.Time `json:"created_at"`
}

// Dispatcher fans new-post notices out to followers. With Redis every
// instance receives them through pub/sub; without it only local
// connections are reached.
type Dispatcher struct {
	notifier *Notifier
	hub      *Hub
}

// NewDispatcher returns a dispatcher. notifier may be disabled and hub may be nil.
func NewDispatcher(notifier *Notifier, hub *Hub) *Dispatcher {
	return &Dispatcher{notifier: notifier, hub: hub}
}

// AnnounceNewPost notifies every follower of post's author. Failures are logged.
func (d *Dispatcher) AnnounceNewPost(ctx context.Context, post *models.Post, author *models.User, followerIDs []uint) {
	if len(followerIDs) == 0 {
		return
	}

	payload, err := json.Marshal(NewPostNotice{
		Type:      NoticeNewPost,
		PostID:    post.ID,
		AuthorID:  post.AuthorID,
		Author:    author.Username,
		Excerpt:   excerpt(post.Text, noticeTextRune),
		CreatedAt: post.CreatedAt,
	})
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to encode new post notice", "post_id", post.ID, "error", err)
		return
	}

	for _, id := range followerIDs {
		if d.notifier.Enabled() {
			if err := d.notifier.PublishUser(ctx, id, string(payload)); err != nil {
				middleware.Logger.WarnContext(ctx, "failed to publish new post notice",
					"post_id", post.ID, "follower_id", id, "error", err)
			}
			continue
		}
		if d.hub != nil {
			d.hub.Broadcast(id, string(payload))
		}
	}
}

func excerpt(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "…"
}
