package domain

// NotificationPayload is the display payload delivered to every
// subscription of one fan-out. Tag lets the platform notification shade
// coalesce duplicate deliveries for the same change.
type NotificationPayload struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Icon      string `json:"icon,omitempty"`
	Image     string `json:"image,omitempty"`
	TargetURL string `json:"target_url"`
	Tag       string `json:"tag"`
}
