package handlers

import (
	"context"

	"receptionist/models"
	"receptionist/services/conversation"
)

// Receptionist is the conversation surface the HTTP layer drives.
type Receptionist interface {
	Greeting() string
	StartSession(ctx context.Context, sessionID, callSID, caller string) (*models.Session, error)
	HandleUtterance(ctx context.Context, sessionID, text string) (conversation.Reply, error)
	EndSession(ctx context.Context, sessionID string) error
	Session(ctx context.Context, sessionID string) (*models.Session, error)
}

var _ Receptionist = (*conversation.Agent)(nil)

// HandlerBundle groups the endpoint handlers and the settings their
// middleware needs.
type HandlerBundle struct {
	Voice  *VoiceHandler
	Demo   *DemoHandler
	Admin  *AdminHandler // nil when the admin API is disabled
	Health *HealthHandler

	TwilioAuthToken string
	PublicBaseURL   string
	JWTSecret       []byte
	RequestsPerMin  int
}
