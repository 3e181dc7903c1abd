// Package events publishes task lifecycle events to a message broker so
// downstream consumers (notifiers, audit trails) can react to changes.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/taskman-io/apiserver/internal/mq"
	"github.com/taskman-io/apiserver/types"
)

// Channel is the broker channel task events are published on.
const Channel = "task-events"

// Type identifies the kind of lifecycle change an event describes.
type Type string

const (
	TypeTaskCreated       Type = "task.created"
	TypeTaskStatusChanged Type = "task.status_changed"
	TypeTaskDeleted       Type = "task.deleted"
)

// TaskEvent describes one task lifecycle change.
type TaskEvent struct {
	Type   Type             `json:"type"`
	TaskID int              `json:"task_id"`
	UserID int              `json:"user_id"`
	Status types.TaskStatus `json:"status,omitempty"`
	At     time.Time        `json:"at"`
}

// NewTaskEvent builds an event stamped with the current time.
func NewTaskEvent(eventType Type, task types.Task) TaskEvent {
	return TaskEvent{
		Type:   eventType,
		TaskID: task.ID,
		UserID: task.UserID,
		Status: task.Status,
		At:     time.Now(),
	}
}

// BrokerPublisher serializes task events as JSON onto a broker channel.
type BrokerPublisher struct {
	broker mq.Broker
}

func NewBrokerPublisher(broker mq.Broker) *BrokerPublisher {
	return &BrokerPublisher{broker: broker}
}

// Publish sends the event. The event type travels as a message attribute
// so consumers can filter without decoding the body.
func (p *BrokerPublisher) Publish(ctx context.Context, event TaskEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.broker.Publish(ctx, Channel, data, map[string]string{
		"type": string(event.Type),
	})
	return err
}

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, TaskEvent) error { return nil }
