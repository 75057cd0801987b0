// Package sshclient reads activity module sources from remote hosts over SSH.
package sshclient

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const defaultDialTimeout = 10 * time.Second

// SSHClient manages a persistent SSH connection for running multiple commands.
type SSHClient struct {
	client *ssh.Client
}

// Config holds the connection settings for New.
type Config struct {
	// Host is host[:port]. Port 22 is used when omitted.
	Host string
	User string
	// PrivateKeyPEM is the PEM-encoded private key used for authentication.
	PrivateKeyPEM []byte
	// KnownHostsFile verifies the host key. When empty the host key is not checked.
	KnownHostsFile string
	// Timeout bounds the TCP dial and handshake.
	Timeout time.Duration
}

// New connects to cfg.Host with public key authentication.
func New(cfg Config) (*SSHClient, error) {
	signer, err := ssh.ParsePrivateKey(cfg.PrivateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if cfg.KnownHostsFile != "" {
		hostKeyCallback, err = knownhosts.New(cfg.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts: %w", err)
		}
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultDialTimeout
	}

	config := &ssh.ClientConfig{
		User: cfg.User,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}

	client, err := ssh.Dial("tcp", withDefaultPort(cfg.Host), config)
	if err != nil {
		return nil, fmt.Errorf("failed to dial SSH: %w", err)
	}

	return &SSHClient{client: client}, nil
}

// Run executes a command on the remote host using a new session on the existing connection.
// It returns stdout and stderr separately.
func (c *SSHClient) Run(command string) (string, string, error) {
	session, err := c.client.NewSession()
	if err != nil {
		return "", "", fmt.Errorf("failed to create SSH session: %w", err)
	}
	defer session.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	session.Stdout = &stdoutBuf
	session.Stderr = &stderrBuf

	if err := session.Run(command); err != nil {
		return stdoutBuf.String(), stderrBuf.String(), fmt.Errorf("failed to run command: %w", err)
	}

	return stdoutBuf.String(), stderrBuf.String(), nil
}

// ReadFile returns the contents of path on the remote host.
// A non-zero remote exit status is reported as an *ExitStatusError.
func (c *SSHClient) ReadFile(path string) (string, error) {
	stdout, stderr, err := c.Run("cat -- " + ShellQuote(path))
	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return "", &ExitStatusError{
				Status: exitErr.ExitStatus(),
				Stderr: strings.TrimSpace(stderr),
			}
		}
		return "", err
	}
	return stdout, nil
}

// Close closes the underlying SSH connection.
func (c *SSHClient) Close() error {
	return c.client.Close()
}

// ExitStatusError is returned when a remote command exits non-zero.
type ExitStatusError struct {
	Status int
	Stderr string
}

func (e *ExitStatusError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("remote command exited with status %d", e.Status)
	}
	return fmt.Sprintf("remote command exited with status %d: %s", e.Status, e.Stderr)
}

// ShellQuote quotes s for a POSIX shell.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func withDefaultPort(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, "22")
}
