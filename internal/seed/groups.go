package seed

import (
	_ "embed"
	"fmt"

	"yatube/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed groups.yml
var groupsYAML []byte

// GroupFixture is one entry of groups.yml.
type GroupFixture struct {
	Title       string `yaml:"title"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

// LoadGroups parses group fixtures from YAML.
func LoadGroups(data []byte) ([]GroupFixture, error) {
	var doc struct {
		Groups []GroupFixture `yaml:"groups"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse group fixtures: %w", err)
	}
	seen := make(map[string]bool, len(doc.Groups))
	for _, g := range doc.Groups {
		if g.Slug == "" || g.Title == "" {
			return nil, fmt.Errorf("group fixture %q needs a title and a slug", g.Title)
		}
		if seen[g.Slug] {
			return nil, fmt.Errorf("duplicate group slug %q", g.Slug)
		}
		seen[g.Slug] = true
	}
	return doc.Groups, nil
}

// Groups creates the built-in groups. Existing slugs are left alone.
func Groups(db *gorm.DB) ([]models.Group, error) {
	fixtures, err := LoadGroups(groupsYAML)
	if err != nil {
		return nil, err
	}
	for _, f := range fixtures {
		group := models.Group{Title: f.Title, Slug: f.Slug, Description: f.Description}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoNothing: true,
		}).Create(&group).Error; err != nil {
			return nil, fmt.Errorf("create group %s: %w", f.Slug, err)
		}
	}

	var groups []models.Group
	if err := db.Order("id ASC").Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}
