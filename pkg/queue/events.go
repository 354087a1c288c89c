package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	EventUserRegistered  EventType = "user_registered"
	EventAvatarUpdated   EventType = "avatar_updated"
	EventAvatarDeleted   EventType = "avatar_deleted"
	EventRecipeCreated   EventType = "recipe_created"
	EventRecipeUpdated   EventType = "recipe_updated"
	EventRecipeDeleted   EventType = "recipe_deleted"
	EventFollowCreated   EventType = "follow_created"
	EventFollowDeleted   EventType = "follow_deleted"
	EventFavoriteAdded   EventType = "favorite_added"
	EventFavoriteRemoved EventType = "favorite_removed"
	EventCartAdded       EventType = "cart_added"
	EventCartRemoved     EventType = "cart_removed"
)

type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewEvent(eventType EventType, data interface{}) Event {
	return Event{Type: eventType, Timestamp: time.Now(), Data: data}
}

// RawEvent is an Event as read from the wire, with Data left undecoded.
type RawEvent struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

func DecodeEvent(msg Message) (*RawEvent, error) {
	var event RawEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return &event, nil
}

// DecodeData unmarshals the payload into dest.
func (e *RawEvent) DecodeData(dest interface{}) error {
	if err := json.Unmarshal(e.Data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", e.Type, err)
	}
	return nil
}

type UserEventData struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
}

// AvatarEventData carries the replaced or removed avatar in StaleAvatar.
type AvatarEventData struct {
	UserID      uint   `json:"user_id"`
	Avatar      string `json:"avatar,omitempty"`
	StaleAvatar string `json:"stale_avatar,omitempty"`
}

// RecipeEventData carries the replaced or removed image in StaleImage.
type RecipeEventData struct {
	RecipeID   uint   `json:"recipe_id"`
	AuthorID   uint   `json:"author_id"`
	Image      string `json:"image,omitempty"`
	StaleImage string `json:"stale_image,omitempty"`
}

type FollowEventData struct {
	FollowerID  uint `json:"follower_id"`
	FollowingID uint `json:"following_id"`
}

type MembershipEventData struct {
	UserID   uint `json:"user_id"`
	RecipeID uint `json:"recipe_id"`
}
