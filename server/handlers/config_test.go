package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nomis52/golaunch/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type mockConfigProvider struct {
	config *config.Config
}

func (m *mockConfigProvider) Config() *config.Config {
	return m.config
}

func TestConfigHandler(t *testing.T) {
	cfg := &config.Config{
		ListenAddr: ":8080",
		Retrieval: config.RetrievalConfig{
			RootDir: "/srv/modules",
			SSH: &config.SSHConfig{
				User:           "deploy",
				PrivateKeyFile: "/home/deploy/.ssh/id_ed25519",
			},
		},
		Intents: []config.IntentConfig{{Name: "report", Source: "report.html"}},
	}

	handler := NewConfigHandler(&mockConfigProvider{config: cfg})
	req := httptest.NewRequest(http.MethodGet, "/config", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/yaml", w.Header().Get("Content-Type"))
	assert.NotContains(t, w.Body.String(), "id_ed25519")

	var resp config.Config
	require.NoError(t, yaml.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, ":8080", resp.ListenAddr)
	assert.Equal(t, "/srv/modules", resp.Retrieval.RootDir)
	assert.Equal(t, "deploy", resp.Retrieval.SSH.User)
	assert.Equal(t, []config.IntentConfig{{Name: "report", Source: "report.html"}}, resp.Intents)
}

func TestConfigHandler_Section(t *testing.T) {
	cfg := &config.Config{
		Intents: []config.IntentConfig{{Name: "report", Source: "report.html"}},
		Retrieval: config.RetrievalConfig{
			SSH: &config.SSHConfig{User: "deploy", PrivateKeyFile: "/home/deploy/.ssh/id_ed25519"},
		},
	}
	handler := NewConfigHandler(&mockConfigProvider{config: cfg})

	t.Run("intents", func(t *testing.T) {
		w := serve("GET /config", handler, http.MethodGet, "/config?section=intents", "")
		require.Equal(t, http.StatusOK, w.Code)

		var intents []config.IntentConfig
		require.NoError(t, yaml.Unmarshal(w.Body.Bytes(), &intents))
		assert.Equal(t, cfg.Intents, intents)
	})

	t.Run("retrieval stays redacted", func(t *testing.T) {
		w := serve("GET /config", handler, http.MethodGet, "/config?section=retrieval", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "deploy")
		assert.NotContains(t, w.Body.String(), "id_ed25519")
	})

	t.Run("unknown section", func(t *testing.T) {
		w := serve("GET /config", handler, http.MethodGet, "/config?section=secrets", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "available: history, intents, monitoring, retrieval, schedules")
	})
}
