package analytics

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Event type constants
const (
	TypeAdminLogin   = "analytics:admin_login"
	TypeAdminLogout  = "analytics:admin_logout"
	TypeAdminCreated = "analytics:admin_created"
	TypeAuthError    = "analytics:auth_error"
	TypePageView     = "analytics:page_view"
)

// EventPayload is the common payload for all analytics events. Detail is
// the event-specific tag: the provider error code for auth errors, the page
// name for page views, empty otherwise.
type EventPayload struct {
	Detail string `json:"detail,omitempty"`
}

// NewEventTask creates an analytics task of the given type
func NewEventTask(eventType, detail string) (*asynq.Task, error) {
	payload, err := json.Marshal(EventPayload{Detail: detail})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(eventType, payload), nil
}

// ParseEventPayload parses an analytics payload from an Asynq task
func ParseEventPayload(task *asynq.Task) (EventPayload, error) {
	var payload EventPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
