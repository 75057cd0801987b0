package launcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nomis52/golaunch/config"
	"github.com/nomis52/golaunch/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrieverConfigFor(t *testing.T) {
	rc := RetrieverConfigFor(config.RetrievalConfig{Timeout: time.Second, RootDir: "/srv"})
	assert.Equal(t, RetrieverConfig{Timeout: time.Second, RootDir: "/srv"}, rc)

	rc = RetrieverConfigFor(config.RetrievalConfig{
		SSH: &config.SSHConfig{User: "deploy", PrivateKeyFile: "/k", KnownHostsFile: "/h"},
	})
	require.NotNil(t, rc.SSH)
	assert.Equal(t, loader.SSHConfig{User: "deploy", PrivateKeyFile: "/k", KnownHostsFile: "/h"}, *rc.SSH)
}

func TestNewRetriever_Schemes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "m.html"), []byte("<p>m</p>"), 0o600))

	r := NewRetriever(RetrieverConfig{RootDir: dir})

	body, err := r.Retrieve(context.Background(), "m.html")
	require.NoError(t, err)
	assert.Equal(t, "<p>m</p>", body)

	// ssh is only available when configured.
	_, err = r.Retrieve(context.Background(), "ssh://host/m.html")
	var re *loader.RetrievalError
	require.True(t, errors.As(err, &re))
	assert.Contains(t, re.Error(), `unsupported scheme "ssh"`)
}
