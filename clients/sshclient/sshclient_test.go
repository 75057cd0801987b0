package sshclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellQuote(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain path", in: "/srv/echo.html", want: "'/srv/echo.html'"},
		{name: "spaces", in: "/srv/my module.html", want: "'/srv/my module.html'"},
		{name: "single quote", in: "it's.html", want: `'it'\''s.html'`},
		{name: "empty", in: "", want: "''"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShellQuote(tt.in))
		})
	}
}

func TestWithDefaultPort(t *testing.T) {
	assert.Equal(t, "example.com:22", withDefaultPort("example.com"))
	assert.Equal(t, "example.com:2222", withDefaultPort("example.com:2222"))
}

func TestNew_InvalidKey(t *testing.T) {
	_, err := New(Config{Host: "localhost", User: "root", PrivateKeyPEM: []byte("not a key")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse private key")
}

func TestExitStatusError(t *testing.T) {
	err := &ExitStatusError{Status: 1, Stderr: "cat: /missing: No such file or directory"}
	assert.Equal(t, "remote command exited with status 1: cat: /missing: No such file or directory", err.Error())

	err = &ExitStatusError{Status: 2}
	assert.Equal(t, "remote command exited with status 2", err.Error())
}
