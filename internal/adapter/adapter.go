// Package adapter bridges the consultation bot to chat platforms (Discord, Slack, etc.).
package adapter

import (
	"context"
	"time"
)

// Adapter is the interface that platform-specific implementations must satisfy.
// Each adapter handles connection management and direct-message delivery for a
// single chat platform.
type Adapter interface {
	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Listen returns a channel of inbound messages from the platform.
	// The channel is closed when the context is cancelled or the adapter
	// is closed. Listen must only be called after Connect.
	Listen(ctx context.Context) (<-chan Inbound, error)

	// Send delivers an outbound message to the platform.
	Send(ctx context.Context, msg Outbound) error

	// Close gracefully shuts down the adapter connection.
	Close() error
}

// Inbound represents a message received from the chat platform. The profile
// fields carry whatever the platform knows about the sender; empty values are
// fine and never overwrite data already on record.
type Inbound struct {
	Platform  string    // e.g. "slack", "discord"
	ChannelID string    // platform-specific channel to reply into
	UserID    string    // platform-specific user identifier
	Username  string    // handle without the @ prefix
	FirstName string    // display or real name, when the platform exposes one
	LastName  string
	Text      string    // raw message text
	Timestamp time.Time // when the message was sent
}

// Outbound represents a message to be sent to the chat platform. When
// ChannelID is empty and UserID is set, the adapter opens (or reuses) a
// direct-message channel with that user.
type Outbound struct {
	ChannelID string
	UserID    string
	Text      string
}

// BotUserIDer is an optional interface that adapters can implement to
// expose the bot's own user ID. This enables self-message filtering.
type BotUserIDer interface {
	BotUserID() string
}
