package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jjudge-oj/roster/internal/mq"
	"github.com/jjudge-oj/roster/types"
)

// EventUserCreated is the event attribute value for new users.
const EventUserCreated = "user.created"

// EventPublisher announces newly created users.
type EventPublisher interface {
	PublishUserCreated(ctx context.Context, user types.User) error
}

// UserCreatedEvent is the JSON payload published for a new user.
type UserCreatedEvent struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	PhotoURL  *string   `json:"photo_url"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher is the minimal broker surface needed to publish events.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// MQEventPublisher publishes user events to a message queue channel.
type MQEventPublisher struct {
	queue   Publisher
	channel string
}

func NewMQEventPublisher(queue Publisher, channel string) *MQEventPublisher {
	return &MQEventPublisher{queue: queue, channel: channel}
}

func (p *MQEventPublisher) PublishUserCreated(ctx context.Context, user types.User) error {
	data, err := json.Marshal(UserCreatedEvent{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		PhotoURL:  user.PhotoURL,
		Status:    user.Status,
		CreatedAt: user.CreatedAt,
	})
	if err != nil {
		return err
	}
	_, err = p.queue.Publish(ctx, p.channel, data, map[string]string{
		"event":            EventUserCreated,
		mq.AttrContentType: "application/json",
	})
	return err
}

// DecodeUserCreated parses a user.created payload.
func DecodeUserCreated(msg mq.Message) (UserCreatedEvent, error) {
	var event UserCreatedEvent
	err := json.Unmarshal(msg.Data, &event)
	return event, err
}
