package database

import (
	"database/sql"
	"time"
)

func (db *PgChatRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgChatRepository) CreateAccount(params CreateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO accounts (username, password_hash, created_at) "+
			"VALUES ($1, $2, $3) RETURNING id, username, created_at",
		params.Username,
		params.PasswordHash,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.CreatedAt,
	)

	return u, err
}

func (db *PgChatRepository) GetAccountById(id int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, created_at FROM accounts "+
			"WHERE id = $1 LIMIT 1",
		id,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.Username,
		&user.CreatedAt,
	)

	return user, err
}

func (db *PgChatRepository) GetAccountByUsername(username string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, password_hash, created_at FROM accounts "+
			"WHERE username = $1 LIMIT 1",
		username,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)

	return user, err
}

func (db *PgChatRepository) CreateChannel(params CreateChannelParams) (Channel, error) {
	res := db.conn.QueryRow(
		"INSERT INTO channels (name, external_id, created_at) "+
			"VALUES ($1, $2, $3) RETURNING id, external_id, name, created_at",
		params.Name,
		params.ExternalId,
		time.Now().UTC(),
	)

	var channel Channel
	err := res.Scan(
		&channel.Id,
		&channel.ExternalId,
		&channel.Name,
		&channel.CreatedAt,
	)

	return channel, err
}

func (db *PgChatRepository) ListChannels() ([]Channel, error) {
	rows, err := db.conn.Query(
		"SELECT id, external_id, name, created_at FROM channels ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels = make([]Channel, 0)
	for rows.Next() {
		var channel Channel
		if err = rows.Scan(&channel.Id, &channel.ExternalId, &channel.Name, &channel.CreatedAt); err != nil {
			break
		}

		channels = append(channels, channel)
	}

	return channels, err
}

func (db *PgChatRepository) GetChannelByExternalId(externalId string) (Channel, error) {
	row := db.conn.QueryRow(
		"SELECT id, external_id, name, created_at FROM channels "+
			"WHERE external_id = $1 LIMIT 1",
		externalId,
	)

	var channel Channel
	err := row.Scan(
		&channel.Id,
		&channel.ExternalId,
		&channel.Name,
		&channel.CreatedAt,
	)

	return channel, err
}

func (db *PgChatRepository) GetChannelByName(name string) (Channel, error) {
	row := db.conn.QueryRow(
		"SELECT id, external_id, name, created_at FROM channels "+
			"WHERE name = $1 LIMIT 1",
		name,
	)

	var channel Channel
	err := row.Scan(
		&channel.Id,
		&channel.ExternalId,
		&channel.Name,
		&channel.CreatedAt,
	)

	return channel, err
}

func (db *PgChatRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	var parentId sql.NullInt64
	if params.ParentId != nil {
		parentId = sql.NullInt64{Int64: int64(*params.ParentId), Valid: true}
	}

	res := db.conn.QueryRow(
		"INSERT INTO messages (channel_id, user_id, username, content, parent_id, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6) "+
			"RETURNING id, channel_id, user_id, username, content, parent_id, created_at",
		params.ChannelId,
		params.UserId,
		params.Username,
		params.Content,
		parentId,
		time.Now().UTC(),
	)

	var msg Message
	err := res.Scan(
		&msg.Id,
		&msg.ChannelId,
		&msg.UserId,
		&msg.Username,
		&msg.Content,
		&msg.ParentId,
		&msg.CreatedAt,
	)

	return msg, err
}

// ListMessages returns all messages in a channel in non-decreasing
// timestamp order, ties broken by insertion order.
func (db *PgChatRepository) ListMessages(channelId int) ([]Message, error) {
	return db.queryMessages(
		"SELECT id, channel_id, user_id, username, content, parent_id, created_at "+
			"FROM messages WHERE channel_id = $1 ORDER BY created_at, id",
		channelId,
	)
}

func (db *PgChatRepository) ListThreadMessages(parentId int) ([]Message, error) {
	return db.queryMessages(
		"SELECT id, channel_id, user_id, username, content, parent_id, created_at "+
			"FROM messages WHERE parent_id = $1 ORDER BY created_at, id",
		parentId,
	)
}

func (db *PgChatRepository) queryMessages(query string, args ...any) ([]Message, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages = make([]Message, 0)
	for rows.Next() {
		var msg Message
		if err = rows.Scan(&msg.Id, &msg.ChannelId, &msg.UserId, &msg.Username,
			&msg.Content, &msg.ParentId, &msg.CreatedAt); err != nil {
			break
		}

		messages = append(messages, msg)
	}

	return messages, err
}
