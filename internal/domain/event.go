package domain

// Content-change actions emitted by the content backend.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Entity types the community site publishes.
const (
	EntityNews          = "news"
	EntityEvent         = "event"
	EntityAdvertisement = "advertisement"
	EntityPolicy        = "policy"
)

// EntitySnapshot is the backend's view of the changed entity at the time
// of the change. Every field is optional; the composer degrades missing
// fields to documented defaults.
type EntitySnapshot struct {
	ID    string `json:"id,omitempty"`
	Slug  string `json:"slug,omitempty"`
	Title string `json:"title,omitempty"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
}

// ContentChangeEvent is the transient change signal that triggers a
// fan-out. It is consumed exactly once and never persisted.
type ContentChangeEvent struct {
	EntityType string         `json:"entity_type" validate:"required,max=64"`
	Action     string         `json:"action" validate:"required,oneof=create update delete"`
	Entity     EntitySnapshot `json:"entity"`
}
