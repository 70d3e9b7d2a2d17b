package service

import (
	"context"
	"time"
)

// ApplicationEvent is published whenever an application changes status.
type ApplicationEvent struct {
	ApplicationID uint      `json:"application_id"`
	Status        string    `json:"status"`
	ActorID       uint      `json:"actor_id"`
	At            time.Time `json:"at"`
}

// EventPublisher broadcasts application events to other systems.
type EventPublisher interface {
	PublishApplicationEvent(ctx context.Context, event ApplicationEvent) error
}

type noopPublisher struct{}

func (noopPublisher) PublishApplicationEvent(context.Context, ApplicationEvent) error {
	return nil
}

// NoopPublisher drops every event.
func NoopPublisher() EventPublisher {
	return noopPublisher{}
}
