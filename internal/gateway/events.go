package gateway

import (
	"github.com/geany-y/AIDrivenChat/internal/types"
)

// ClientEvent is the envelope for events sent by a connected client.
// Exactly one of the event fields is expected to be set.
type ClientEvent struct {
	JoinChannel *JoinChannel `json:"join_channel,omitempty"`
	SendMessage *SendMessage `json:"send_message,omitempty"`
}

type JoinChannel struct {
	ChannelId string `json:"channel_id"`
}

type SendMessage struct {
	ChannelId string `json:"channel_id"`
	Content   string `json:"content"`
	ParentId  *int   `json:"parent_id,omitempty"`
}

// ServerEvent is the envelope for events delivered to a client:
// either a broadcast message or an error addressed to that client
// alone.
type ServerEvent struct {
	Message *types.Message `json:"message,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func ErrNotAuthorized() *ServerEvent {
	return &ServerEvent{Error: "not authorized to send messages to this channel"}
}

func ErrSendFailed() *ServerEvent {
	return &ServerEvent{Error: "failed to send message"}
}

func ErrInvalidEvent() *ServerEvent {
	return &ServerEvent{Error: "invalid message format"}
}

func ErrServiceUnavailable() *ServerEvent {
	return &ServerEvent{Error: "service unavailable"}
}
