// Package analytics emits the console's fire-and-forget usage events onto
// the task queue. Emission never blocks the auth flow and never surfaces
// errors to callers; a nil emitter is a valid no-op collaborator.
package analytics

import (
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Emitter is the analytics collaborator consumed by the auth flow
type Emitter interface {
	AdminLogin()
	AdminLogout()
	AdminCreated()
	AuthError(code string)
	PageView(name string)
}

// QueueEmitter enqueues analytics events onto the low-priority queue
type QueueEmitter struct {
	client *asynq.Client
	log    zerolog.Logger
}

// NewQueueEmitter creates an emitter backed by the given Asynq client
func NewQueueEmitter(client *asynq.Client, log zerolog.Logger) *QueueEmitter {
	return &QueueEmitter{client: client, log: log}
}

func (e *QueueEmitter) AdminLogin()           { e.emit(TypeAdminLogin, "") }
func (e *QueueEmitter) AdminLogout()          { e.emit(TypeAdminLogout, "") }
func (e *QueueEmitter) AdminCreated()         { e.emit(TypeAdminCreated, "") }
func (e *QueueEmitter) AuthError(code string) { e.emit(TypeAuthError, code) }
func (e *QueueEmitter) PageView(name string)  { e.emit(TypePageView, name) }

// emit enqueues the event and swallows failures. Analytics must never make
// an auth operation fail.
func (e *QueueEmitter) emit(eventType, detail string) {
	if e == nil || e.client == nil {
		return
	}

	task, err := NewEventTask(eventType, detail)
	if err != nil {
		e.log.Debug().Err(err).Str("event", eventType).Msg("Failed to build analytics task")
		return
	}

	if _, err := e.client.Enqueue(task, asynq.Queue("low")); err != nil {
		e.log.Debug().Err(err).Str("event", eventType).Msg("Failed to enqueue analytics event")
	}
}
