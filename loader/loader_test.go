package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nomis52/golaunch/clients/sshclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Load(t *testing.T) {
	t.Run("splits retrieved content", func(t *testing.T) {
		r := RetrieverFunc(func(ctx context.Context, locator string) (string, error) {
			assert.Equal(t, "mem://echo", locator)
			return `<h1>Echo</h1><script>exports.x = 1</script>`, nil
		})

		content, err := New(r).Load(context.Background(), "mem://echo")
		require.NoError(t, err)
		assert.Equal(t, "<h1>Echo</h1>", content.Declarative)
		assert.Equal(t, "exports.x = 1", content.Executable)
	})

	t.Run("wraps plain errors", func(t *testing.T) {
		cause := errors.New("connection reset")
		r := RetrieverFunc(func(ctx context.Context, locator string) (string, error) {
			return "", cause
		})

		_, err := New(r).Load(context.Background(), "mem://gone")
		var rerr *RetrievalError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, "mem://gone", rerr.Locator)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("keeps retrieval errors", func(t *testing.T) {
		r := RetrieverFunc(func(ctx context.Context, locator string) (string, error) {
			return "", &RetrievalError{Locator: locator, StatusCode: 503, Err: errors.New("unavailable")}
		})

		_, err := New(r).Load(context.Background(), "mem://busy")
		var rerr *RetrievalError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, 503, rerr.StatusCode)
	})
}

func TestHTTPRetriever(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/echo.html":
			w.Write([]byte(`<script>exports.onCreate = null</script>`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("no such module"))
		}
	}))
	defer ts.Close()

	r := NewHTTPRetriever(0)

	t.Run("success", func(t *testing.T) {
		body, err := r.Retrieve(context.Background(), ts.URL+"/echo.html")
		require.NoError(t, err)
		assert.Equal(t, `<script>exports.onCreate = null</script>`, body)
	})

	t.Run("not found carries status", func(t *testing.T) {
		_, err := r.Retrieve(context.Background(), ts.URL+"/gone.html")
		var rerr *RetrievalError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, http.StatusNotFound, rerr.StatusCode)
		assert.Contains(t, rerr.Error(), "no such module")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := r.Retrieve(ctx, ts.URL+"/echo.html")
		var rerr *RetrievalError
		require.ErrorAs(t, err, &rerr)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFileRetriever(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "echo.html"), []byte("<p>echo</p>"), 0644))

	t.Run("relative path under root", func(t *testing.T) {
		body, err := NewFileRetriever(dir).Retrieve(context.Background(), "echo.html")
		require.NoError(t, err)
		assert.Equal(t, "<p>echo</p>", body)
	})

	t.Run("file url", func(t *testing.T) {
		body, err := NewFileRetriever("").Retrieve(context.Background(), "file://"+filepath.Join(dir, "echo.html"))
		require.NoError(t, err)
		assert.Equal(t, "<p>echo</p>", body)
	})

	t.Run("missing file is 404", func(t *testing.T) {
		_, err := NewFileRetriever(dir).Retrieve(context.Background(), "gone.html")
		var rerr *RetrievalError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, http.StatusNotFound, rerr.StatusCode)
	})
}

func TestSchemeRetriever(t *testing.T) {
	s := NewSchemeRetriever()
	s.Handle("mem", RetrieverFunc(func(ctx context.Context, locator string) (string, error) {
		return "mem:" + locator, nil
	}))
	s.Handle("FILE", RetrieverFunc(func(ctx context.Context, locator string) (string, error) {
		return "file:" + locator, nil
	}))

	body, err := s.Retrieve(context.Background(), "mem://a")
	require.NoError(t, err)
	assert.Equal(t, "mem:mem://a", body)

	body, err = s.Retrieve(context.Background(), "relative/path.html")
	require.NoError(t, err)
	assert.Equal(t, "file:relative/path.html", body)

	_, err = s.Retrieve(context.Background(), "gopher://host/x")
	var rerr *RetrievalError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Error(), `unsupported scheme "gopher"`)
}

type fakeFileReader struct {
	files  map[string]string
	closed bool
}

func (f *fakeFileReader) ReadFile(path string) (string, error) {
	body, ok := f.files[path]
	if !ok {
		return "", &sshclient.ExitStatusError{Status: 1, Stderr: "No such file or directory"}
	}
	return body, nil
}

func (f *fakeFileReader) Close() error {
	f.closed = true
	return nil
}

// hangingReader blocks ReadFile until Close is called.
type hangingReader struct {
	closed    chan struct{}
	closeOnce sync.Once
}

func (h *hangingReader) ReadFile(path string) (string, error) {
	<-h.closed
	return "", errors.New("connection closed")
}

func (h *hangingReader) Close() error {
	h.closeOnce.Do(func() { close(h.closed) })
	return nil
}

func TestSSHRetriever_CancelAbortsRead(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(keyFile, []byte("key"), 0600))

	reader := &hangingReader{closed: make(chan struct{})}
	r := NewSSHRetriever(SSHConfig{PrivateKeyFile: keyFile})
	r.dial = func(cfg sshclient.Config) (fileReader, error) {
		return reader, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	_, err := r.Retrieve(ctx, "ssh://host.example/srv/slow.html")
	var rerr *RetrievalError
	require.ErrorAs(t, err, &rerr)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSSHRetriever(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(keyFile, []byte("key"), 0600))

	reader := &fakeFileReader{files: map[string]string{"/srv/echo.html": "<p>remote</p>"}}
	var dialed sshclient.Config
	r := NewSSHRetriever(SSHConfig{User: "default", PrivateKeyFile: keyFile})
	r.dial = func(cfg sshclient.Config) (fileReader, error) {
		dialed = cfg
		return reader, nil
	}

	t.Run("reads remote file", func(t *testing.T) {
		body, err := r.Retrieve(context.Background(), "ssh://deploy@host.example:2222/srv/echo.html")
		require.NoError(t, err)
		assert.Equal(t, "<p>remote</p>", body)
		assert.Equal(t, "deploy", dialed.User)
		assert.Equal(t, "host.example:2222", dialed.Host)
		assert.Equal(t, []byte("key"), dialed.PrivateKeyPEM)
		assert.True(t, reader.closed)
	})

	t.Run("default user", func(t *testing.T) {
		_, err := r.Retrieve(context.Background(), "ssh://host.example/srv/echo.html")
		require.NoError(t, err)
		assert.Equal(t, "default", dialed.User)
	})

	t.Run("missing remote file carries exit status", func(t *testing.T) {
		_, err := r.Retrieve(context.Background(), "ssh://host.example/srv/gone.html")
		var rerr *RetrievalError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, 1, rerr.StatusCode)
	})

	t.Run("locator without path", func(t *testing.T) {
		_, err := r.Retrieve(context.Background(), "ssh://host.example")
		var rerr *RetrievalError
		require.ErrorAs(t, err, &rerr)
	})
}
