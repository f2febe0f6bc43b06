package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/geany-y/AIDrivenChat/internal/database"
	"github.com/teris-io/shortid"
	"golang.org/x/crypto/bcrypt"
)

const (
	seedUsername = "testuser"
	seedPassword = "password"
)

var seedChannels = []string{"general", "random"}

// seed creates the bootstrap channels and a test account if they do
// not already exist. Channels have no other creation path besides the
// authenticated channel endpoint, so a fresh deployment runs once
// with -seed.
func seed(logger *log.Logger, db database.ChatRepository) error {
	for _, name := range seedChannels {
		_, err := db.GetChannelByName(name)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("get channel %q: %w", name, err)
		}

		sid, err := shortid.Generate()
		if err != nil {
			return fmt.Errorf("generate short id: %w", err)
		}

		if _, err := db.CreateChannel(database.CreateChannelParams{
			Name:       name,
			ExternalId: sid,
		}); err != nil {
			return fmt.Errorf("create channel %q: %w", name, err)
		}

		logger.Printf("created channel %q", name)
	}

	_, err := db.GetAccountByUsername(seedUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("get account %q: %w", seedUsername, err)
	}

	pwdHash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if _, err := db.CreateAccount(database.CreateAccountParams{
		Username:     seedUsername,
		PasswordHash: string(pwdHash),
	}); err != nil {
		return fmt.Errorf("create account %q: %w", seedUsername, err)
	}

	logger.Printf("created account %q", seedUsername)
	return nil
}
