package loader

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/nomis52/golaunch/clients/sshclient"
)

// SSHConfig configures an SSHRetriever.
type SSHConfig struct {
	// User is used when the locator does not name one.
	User           string
	PrivateKeyFile string
	KnownHostsFile string
	Timeout        time.Duration
}

// fileReader is the part of sshclient.SSHClient the retriever uses.
type fileReader interface {
	ReadFile(path string) (string, error)
	Close() error
}

// SSHRetriever reads ssh://[user@]host[:port]/path locators.
// Each retrieval opens its own connection.
type SSHRetriever struct {
	cfg  SSHConfig
	dial func(cfg sshclient.Config) (fileReader, error)
}

// NewSSHRetriever creates an SSHRetriever.
func NewSSHRetriever(cfg SSHConfig) *SSHRetriever {
	return &SSHRetriever{
		cfg: cfg,
		dial: func(c sshclient.Config) (fileReader, error) {
			client, err := sshclient.New(c)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
	}
}

// Retrieve reads the remote file named by locator.
func (r *SSHRetriever) Retrieve(ctx context.Context, locator string) (string, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", &RetrievalError{Locator: locator, Err: fmt.Errorf("parsing ssh locator: %w", err)}
	}
	if u.Host == "" || u.Path == "" {
		return "", &RetrievalError{Locator: locator, Err: errors.New("ssh locator needs a host and a path")}
	}

	user := r.cfg.User
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}

	key, err := os.ReadFile(r.cfg.PrivateKeyFile)
	if err != nil {
		return "", &RetrievalError{Locator: locator, Err: fmt.Errorf("reading private key: %w", err)}
	}

	if err := ctx.Err(); err != nil {
		return "", &RetrievalError{Locator: locator, Err: err}
	}

	client, err := r.dial(sshclient.Config{
		Host:           u.Host,
		User:           user,
		PrivateKeyPEM:  key,
		KnownHostsFile: r.cfg.KnownHostsFile,
		Timeout:        r.cfg.Timeout,
	})
	if err != nil {
		return "", &RetrievalError{Locator: locator, Err: err}
	}
	defer client.Close()

	// Closing the connection is the only way to abort a read in flight.
	stop := context.AfterFunc(ctx, func() { client.Close() })
	defer stop()

	body, err := client.ReadFile(u.Path)
	if ctx.Err() != nil {
		return "", &RetrievalError{Locator: locator, Err: ctx.Err()}
	}
	if err != nil {
		rerr := &RetrievalError{Locator: locator, Err: err}
		var exitErr *sshclient.ExitStatusError
		if errors.As(err, &exitErr) {
			rerr.StatusCode = exitErr.Status
		}
		return "", rerr
	}
	if len(body) > maxContentSize {
		return "", &RetrievalError{Locator: locator, Err: fmt.Errorf("content exceeds %d bytes", maxContentSize)}
	}
	return body, nil
}
