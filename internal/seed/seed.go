// Package seed fills a development database with demo users, groups, posts,
// comments and follows.
package seed

import (
	"fmt"
	"strings"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DemoPassword is the password of every seeded user.
const DemoPassword = "password123"

// Options configuration for the seeder
type Options struct {
	NumUsers        int
	NumPosts        int
	CommentsPerPost int
	FollowsPerUser  int
	// MaxDays spreads post dates over this many days back from now.
	MaxDays int
}

// Summary reports what a run created.
type Summary struct {
	Users    int
	Groups   int
	Posts    int
	Comments int
	Follows  int
}

// Seeder writes demo data.
type Seeder struct {
	db         *gorm.DB
	faker      *gofakeit.Faker
	bcryptCost int
	now        func() time.Time
}

// NewSeeder returns a seeder whose fake data is reproducible for a given seed.
func NewSeeder(db *gorm.DB, seed int64) *Seeder {
	return &Seeder{
		db:         db,
		faker:      gofakeit.New(seed),
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// ClearAll deletes every row the seeder can create, children first.
func (s *Seeder) ClearAll() error {
	for _, model := range []interface{}{&models.Follow{}, &models.Comment{}, &models.Post{}, &models.Group{}, &models.User{}} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	middleware.Logger.Info("database cleared")
	return nil
}

// Run creates groups from fixtures and the requested amount of demo content.
func (s *Seeder) Run(opts Options) (Summary, error) {
	var sum Summary

	groups, err := Groups(s.db)
	if err != nil {
		return sum, err
	}
	sum.Groups = len(groups)

	users, err := s.seedUsers(opts.NumUsers)
	if err != nil {
		return sum, err
	}
	sum.Users = len(users)
	if len(users) == 0 {
		return sum, nil
	}

	posts, err := s.seedPosts(users, groups, opts.NumPosts, opts.MaxDays)
	if err != nil {
		return sum, err
	}
	sum.Posts = len(posts)

	if sum.Comments, err = s.seedComments(users, posts, opts.CommentsPerPost); err != nil {
		return sum, err
	}
	if sum.Follows, err = s.seedFollows(users, opts.FollowsPerUser); err != nil {
		return sum, err
	}

	middleware.Logger.Info("seed complete",
		"users", sum.Users, "groups", sum.Groups, "posts", sum.Posts,
		"comments", sum.Comments, "follows", sum.Follows)
	return sum, nil
}

func (s *Seeder) seedUsers(n int) ([]models.User, error) {
	if n <= 0 {
		return nil, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		first, last := s.faker.FirstName(), s.faker.LastName()
		username := usernameOf(first, last, i)
		users = append(users, models.User{
			Username:  username,
			Email:     username + "@example.com",
			FirstName: first,
			LastName:  last,
			Password:  string(hash),
			// the first demo user can clear the listing cache
			IsStaff: i == 0,
		})
	}
	if err := s.db.CreateInBatches(&users, 100).Error; err != nil {
		return nil, fmt.Errorf("create users: %w", err)
	}
	return users, nil
}

func (s *Seeder) seedPosts(users []models.User, groups []models.Group, n, maxDays int) ([]models.Post, error) {
	if n <= 0 {
		return nil, nil
	}
	if maxDays <= 0 {
		maxDays = 90
	}

	now := s.now()
	posts := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		author := users[s.faker.IntRange(0, len(users)-1)]
		post := models.Post{
			Text:      s.faker.Paragraph(1, 3, 12, "\n"),
			AuthorID:  author.ID,
			CreatedAt: now.Add(-time.Duration(s.faker.IntRange(0, maxDays*24*60)) * time.Minute),
		}
		// about a third of the posts are not in any group
		if len(groups) > 0 && s.faker.IntRange(0, 2) > 0 {
			id := groups[s.faker.IntRange(0, len(groups)-1)].ID
			post.GroupID = &id
		}
		posts = append(posts, post)
	}
	if err := s.db.Omit("Author", "Group", "Comments").CreateInBatches(&posts, 100).Error; err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	return posts, nil
}

func (s *Seeder) seedComments(users []models.User, posts []models.Post, perPost int) (int, error) {
	if perPost <= 0 || len(posts) == 0 {
		return 0, nil
	}
	comments := make([]models.Comment, 0, len(posts)*perPost)
	for _, p := range posts {
		count := s.faker.IntRange(0, perPost)
		for j := 0; j < count; j++ {
			comments = append(comments, models.Comment{
				PostID:    p.ID,
				AuthorID:  users[s.faker.IntRange(0, len(users)-1)].ID,
				Text:      s.faker.Sentence(8),
				CreatedAt: p.CreatedAt.Add(time.Duration(j+1) * time.Hour),
			})
		}
	}
	if len(comments) == 0 {
		return 0, nil
	}
	if err := s.db.Omit("Author").CreateInBatches(&comments, 200).Error; err != nil {
		return 0, fmt.Errorf("create comments: %w", err)
	}
	return len(comments), nil
}

func (s *Seeder) seedFollows(users []models.User, perUser int) (int, error) {
	if perUser <= 0 || len(users) < 2 {
		return 0, nil
	}
	created := 0
	for _, follower := range users {
		for j := 0; j < perUser; j++ {
			followee := users[s.faker.IntRange(0, len(users)-1)]
			if followee.ID == follower.ID {
				continue
			}
			res := s.db.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID})
			if res.Error != nil {
				return created, fmt.Errorf("create follow: %w", res.Error)
			}
			created += int(res.RowsAffected)
		}
	}
	return created, nil
}

func usernameOf(first, last string, i int) string {
	clean := func(s string) string {
		return strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
				return r
			}
			return -1
		}, strings.ToLower(s))
	}
	return fmt.Sprintf("%s.%s%d", clean(first), clean(last), i)
}
