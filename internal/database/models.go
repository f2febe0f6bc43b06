package database

import (
	"database/sql"
	"time"
)

type User struct {
	Id           int
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

type Channel struct {
	Id         int
	ExternalId string
	Name       string
	CreatedAt  time.Time
}

type Message struct {
	Id        int
	ChannelId int
	UserId    int
	Username  string
	Content   string
	ParentId  sql.NullInt64
	CreatedAt time.Time
}

type CreateAccountParams struct {
	Username     string
	PasswordHash string
}

type CreateChannelParams struct {
	Name       string
	ExternalId string
}

type CreateMessageParams struct {
	ChannelId int
	UserId    int
	Username  string
	Content   string
	ParentId  *int
}
