package gateway

import (
	"context"

	"github.com/gosimple/slug"
)

// The chat platform and its guild resources are external collaborators: a
// separate gateway connector owns the wire protocol. The bot only asks it
// to deliver channel messages and to ensure per-event resources exist.

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type Embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       string       `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

type ChatGateway interface {
	// SendChannelMessage delivers a message to a channel by name.
	// Callers treat failures as best-effort: log, don't roll back.
	SendChannelMessage(ctx context.Context, channel, content string, embed *Embed) error
}

// ResourceRefs identifies the provisioned role and channels of an event.
type ResourceRefs struct {
	RoleID        string `json:"role_id"`
	RoomChannelID string `json:"room_channel_id"`
	LogChannelID  string `json:"log_channel_id"`
}

type ProvisionRequest struct {
	RoleName    string        `json:"role_name"`
	EventName   string        `json:"event_name"`
	RoomChannel string        `json:"room_channel"`
	LogChannel  string        `json:"log_channel"`
	Existing    *ResourceRefs `json:"existing,omitempty"`
}

type Provisioner interface {
	// EnsureEventResources idempotently creates the player role and the
	// member room / submission log channels, permission-scoped to members
	// and admins, and returns their identifiers.
	EnsureEventResources(ctx context.Context, req ProvisionRequest) (*ResourceRefs, error)
}

// ChannelName derives a channel name from a prefix and an event name,
// e.g. ("ctf-room", "Pwn 2026") -> "ctf-room-pwn-2026".
func ChannelName(prefix, eventName string) string {
	return prefix + "-" + slug.Make(eventName)
}
