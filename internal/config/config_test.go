package config

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig(t *testing.T) {
	secret := []byte("test-signing-secret")
	encodedSecret := base64.StdEncoding.EncodeToString(secret)

	tcases := []struct {
		name         string
		serverAddr   string
		databaseDSN  string
		base64Secret string
		origins      []string
		wantErr      bool
	}{
		{
			name:         "valid config",
			serverAddr:   "localhost:8000",
			databaseDSN:  "host=localhost user=postgres",
			base64Secret: encodedSecret,
			origins:      []string{"http://localhost:3000"},
			wantErr:      false,
		},
		{
			name:         "empty server address",
			serverAddr:   "",
			databaseDSN:  "host=localhost user=postgres",
			base64Secret: encodedSecret,
			wantErr:      true,
		},
		{
			name:         "empty database DSN",
			serverAddr:   "localhost:8000",
			databaseDSN:  "",
			base64Secret: encodedSecret,
			wantErr:      true,
		},
		{
			name:         "empty signing secret",
			serverAddr:   "localhost:8000",
			databaseDSN:  "host=localhost user=postgres",
			base64Secret: "",
			wantErr:      true,
		},
		{
			name:         "signing secret is not base64",
			serverAddr:   "localhost:8000",
			databaseDSN:  "host=localhost user=postgres",
			base64Secret: "not base64!!!",
			wantErr:      true,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.serverAddr, tc.databaseDSN, tc.base64Secret, tc.origins)
			if tc.wantErr {
				assert.Error(t, err, "expected an error")
				assert.Nil(t, cfg, "expected no config on error")
				return
			}

			assert.NoError(t, err, "expected no error")
			assert.Equal(t, tc.serverAddr, cfg.ServerAddr, "expected server address to be set")
			assert.Equal(t, tc.databaseDSN, cfg.DatabaseDSN, "expected database DSN to be set")
			assert.Equal(t, secret, cfg.SigningKey, "expected signing key to be decoded")
			assert.Equal(t, tc.origins, cfg.AllowedOrigins, "expected allowed origins to be set")
		})
	}
}
