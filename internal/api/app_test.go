package api

import (
	"net/http"
	"testing"

	"github.com/geany-y/AIDrivenChat/internal/auth"
	"github.com/geany-y/AIDrivenChat/internal/config"
	"github.com/geany-y/AIDrivenChat/internal/database"
	"github.com/geany-y/AIDrivenChat/internal/gateway"
	"github.com/geany-y/AIDrivenChat/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewChatApp(t *testing.T) {
	mux := http.NewServeMux()
	logger := testutil.TestLogger(t)
	gw := &gateway.Gateway{}
	db := &database.MockChatRepository{}
	issuer := auth.NewTokenIssuer([]byte("secret"))
	cfg := &config.Config{
		ServerAddr:     "localhost:8080",
		DatabaseDSN:    "dsn",
		SigningKey:     []byte("secret"),
		AllowedOrigins: []string{"http://localhost:3000"},
	}

	app := NewChatApp(mux, logger, gw, db, issuer, cfg)

	assert.NotNil(t, app, "expected app to be initialized")
	assert.NotNil(t, app.mux, "expected mux to be initialized")
	assert.Equal(t, app.log, logger, "expected logger to be set")
	assert.Equal(t, app.db, db, "expected db to be set")
	assert.Equal(t, app.gw, gw, "expected gateway to be set")
	assert.Equal(t, app.issuer, issuer, "expected token issuer to be set")
	assert.Equal(t, app.allowedOrigins, cfg.AllowedOrigins, "expected allowed origins to be set")
	assert.Equal(t, app.mux.Addr, cfg.ServerAddr, "expected server address to match config")
}
