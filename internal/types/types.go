package types

import (
	"time"
)

type User struct {
	Id        int       `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Channel is the public view of a channel. Id is the channel's
// external id, the only identifier clients ever see.
type Channel struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

type Message struct {
	Id        int       `json:"id"`
	ChannelId string    `json:"channel_id"`
	UserId    int       `json:"user_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	ParentId  *int      `json:"parent_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
