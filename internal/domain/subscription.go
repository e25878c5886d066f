package domain

import "time"

// Device kinds recorded at registration. Informational only: delivery
// never branches on them.
const (
	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
)

// SubscriptionKeys holds the client key material needed to encrypt a
// push message for one endpoint.
type SubscriptionKeys struct {
	P256dh string `json:"p256dh" dynamodbav:"p256dh" validate:"required"`
	Auth   string `json:"auth" dynamodbav:"auth" validate:"required"`
}

// Subscription is one registered push endpoint. The endpoint URL is the
// only identity; registering the same endpoint twice updates the row.
type Subscription struct {
	Endpoint  string           `json:"endpoint" dynamodbav:"endpoint"`
	Keys      SubscriptionKeys `json:"keys" dynamodbav:"keys"`
	Device    string           `json:"device" dynamodbav:"device"`
	UserAgent string           `json:"user_agent,omitempty" dynamodbav:"user_agent"`
	CreatedAt time.Time        `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time        `json:"updated" dynamodbav:"updated_at"`
}

// RegisterSubscriptionRequest is the registration payload sent by clients.
type RegisterSubscriptionRequest struct {
	Endpoint  string           `json:"endpoint" validate:"required,url"`
	Keys      SubscriptionKeys `json:"keys" validate:"required"`
	Device    string           `json:"device" validate:"omitempty,oneof=mobile desktop"`
	UserAgent string           `json:"user_agent" validate:"omitempty,max=512"`
}

// UnregisterSubscriptionRequest identifies the row to remove.
type UnregisterSubscriptionRequest struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
}
