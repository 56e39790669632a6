package opensearch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/EntityRisk-Intelligence/internal/config"
	pkgerrors "github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

func TestClientConfigFromConfig(t *testing.T) {
	cfg := config.OpenSearchConfig{
		Addresses:          []string{"https://search-a:9200", "https://search-b:9200"},
		User:               "erisk",
		Password:           "secret",
		InsecureSkipVerify: true,
		Index:              "gdc-corpus",
	}

	cc := ClientConfigFromConfig(cfg)
	assert.Equal(t, cfg.Addresses, cc.Addresses)
	assert.Equal(t, "erisk", cc.Username)
	assert.Equal(t, "secret", cc.Password)
	assert.True(t, cc.InsecureSkipVerify)
}

func TestValidateConfig(t *testing.T) {
	valid := ClientConfig{
		Addresses:      []string{"https://localhost:9200"},
		MaxRetries:     3,
		RequestTimeout: 30 * time.Second,
	}
	require.NoError(t, ValidateConfig(valid))

	tests := []struct {
		name   string
		mutate func(*ClientConfig)
	}{
		{"no addresses", func(c *ClientConfig) { c.Addresses = nil }},
		{"negative retries", func(c *ClientConfig) { c.MaxRetries = -1 }},
		{"negative timeout", func(c *ClientConfig) { c.RequestTimeout = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := ValidateConfig(cfg)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeConfigInvalid))
		})
	}
}
