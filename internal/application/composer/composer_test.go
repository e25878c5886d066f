package composer

import (
	"testing"

	"github.com/community-notify/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCompose_NewsUpdate(t *testing.T) {
	p := Compose(domain.ContentChangeEvent{
		EntityType: domain.EntityNews,
		Action:     domain.ActionUpdate,
		Entity: domain.EntitySnapshot{
			ID:    "42",
			Slug:  "summer-fair",
			Title: "Summer fair moved to Saturday",
			Image: "https://cdn.example.com/fair.jpg",
		},
	})

	assert.Equal(t, "News updated", p.Title)
	assert.Equal(t, "Summer fair moved to Saturday", p.Body)
	assert.Equal(t, "https://cdn.example.com/fair.jpg", p.Icon)
	assert.Equal(t, "/news/summer-fair", p.TargetURL)
	assert.Equal(t, "news-update-42", p.Tag)
}

func TestCompose_ActionVerbs(t *testing.T) {
	tests := []struct {
		action string
		want   string
	}{
		{domain.ActionCreate, "Event published"},
		{domain.ActionUpdate, "Event updated"},
		{domain.ActionDelete, "Event removed"},
		{"archive", "Event updated"}, // unknown action falls back
	}
	for _, tt := range tests {
		p := Compose(domain.ContentChangeEvent{EntityType: domain.EntityEvent, Action: tt.action})
		assert.Equal(t, tt.want, p.Title, "action %q", tt.action)
	}
}

// Totality: a snapshot with every optional field missing still yields a
// well-formed payload.
func TestCompose_EmptySnapshot(t *testing.T) {
	p := Compose(domain.ContentChangeEvent{
		EntityType: domain.EntityPolicy,
		Action:     domain.ActionCreate,
	})

	assert.Equal(t, "Policy published", p.Title)
	assert.Equal(t, fallbackBody, p.Body)
	assert.Empty(t, p.Icon)
	assert.Empty(t, p.Image)
	assert.Equal(t, "/policies", p.TargetURL)
	assert.Equal(t, "policy-create-unknown", p.Tag)
}

func TestCompose_UnknownEntityType_RoutesToRoot(t *testing.T) {
	p := Compose(domain.ContentChangeEvent{
		EntityType: "newsletter",
		Action:     domain.ActionUpdate,
		Entity:     domain.EntitySnapshot{Slug: "march"},
	})

	assert.Equal(t, "Newsletter updated", p.Title)
	assert.Equal(t, "/", p.TargetURL)
	assert.Equal(t, "newsletter-update-march", p.Tag)
}

func TestCompose_IDFallsBackToSlug(t *testing.T) {
	p := Compose(domain.ContentChangeEvent{
		EntityType: domain.EntityAdvertisement,
		Action:     domain.ActionDelete,
		Entity:     domain.EntitySnapshot{Slug: "bake-sale", Name: "Bake sale"},
	})

	assert.Equal(t, "advertisement-delete-bake-sale", p.Tag)
	assert.Equal(t, "Bake sale", p.Body)
	assert.Equal(t, "/ads/bake-sale", p.TargetURL)
}
