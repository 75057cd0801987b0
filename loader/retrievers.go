package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultTimeout bounds a single HTTP retrieval.
	DefaultTimeout = 30 * time.Second

	// maxContentSize caps the bytes read for one module.
	maxContentSize = 4 << 20

	// maxErrorBody caps the response body quoted in an HTTP RetrievalError.
	maxErrorBody = 512
)

// HTTPRetriever fetches http and https locators.
type HTTPRetriever struct {
	httpClient *http.Client
}

// NewHTTPRetriever creates an HTTPRetriever with the given timeout.
// A zero timeout uses DefaultTimeout.
func NewHTTPRetriever(timeout time.Duration) *HTTPRetriever {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &HTTPRetriever{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Retrieve performs a GET request for locator.
func (r *HTTPRetriever) Retrieve(ctx context.Context, locator string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return "", &RetrievalError{Locator: locator, Err: fmt.Errorf("creating HTTP request: %w", err)}
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", &RetrievalError{Locator: locator, Err: fmt.Errorf("sending request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &RetrievalError{
			Locator:    locator,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	body, err := readLimited(resp.Body)
	if err != nil {
		return "", &RetrievalError{Locator: locator, StatusCode: resp.StatusCode, Err: err}
	}
	return body, nil
}

// FileRetriever reads file:// locators and bare paths from the local disk.
type FileRetriever struct {
	// root, when set, anchors relative paths.
	root string
}

// NewFileRetriever creates a FileRetriever. Relative paths are resolved
// against root when it is not empty.
func NewFileRetriever(root string) *FileRetriever {
	return &FileRetriever{root: root}
}

// Retrieve reads the file named by locator.
func (r *FileRetriever) Retrieve(ctx context.Context, locator string) (string, error) {
	path := locator
	if strings.HasPrefix(locator, "file://") {
		u, err := url.Parse(locator)
		if err != nil {
			return "", &RetrievalError{Locator: locator, Err: fmt.Errorf("parsing file locator: %w", err)}
		}
		path = u.Path
	}
	if r.root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(r.root, path)
	}

	if err := ctx.Err(); err != nil {
		return "", &RetrievalError{Locator: locator, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		status := 0
		switch {
		case errors.Is(err, fs.ErrNotExist):
			status = http.StatusNotFound
		case errors.Is(err, fs.ErrPermission):
			status = http.StatusForbidden
		}
		return "", &RetrievalError{Locator: locator, StatusCode: status, Err: err}
	}
	defer f.Close()

	body, err := readLimited(f)
	if err != nil {
		return "", &RetrievalError{Locator: locator, Err: err}
	}
	return body, nil
}

// SchemeRetriever dispatches to a Retriever chosen by the locator's URL scheme.
// Locators without a scheme are treated as "file".
type SchemeRetriever struct {
	mu      sync.RWMutex
	schemes map[string]Retriever
}

// NewSchemeRetriever creates a SchemeRetriever with no schemes registered.
func NewSchemeRetriever() *SchemeRetriever {
	return &SchemeRetriever{
		schemes: make(map[string]Retriever),
	}
}

// Handle registers r for scheme, replacing any previous registration.
func (s *SchemeRetriever) Handle(scheme string, r Retriever) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemes[strings.ToLower(scheme)] = r
}

// Retrieve forwards to the retriever registered for the locator's scheme.
func (s *SchemeRetriever) Retrieve(ctx context.Context, locator string) (string, error) {
	scheme := "file"
	if u, err := url.Parse(locator); err == nil && u.Scheme != "" {
		scheme = strings.ToLower(u.Scheme)
	}

	s.mu.RLock()
	r, ok := s.schemes[scheme]
	s.mu.RUnlock()

	if !ok {
		return "", &RetrievalError{Locator: locator, Err: fmt.Errorf("unsupported scheme %q", scheme)}
	}
	return r.Retrieve(ctx, locator)
}

func readLimited(r io.Reader) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxContentSize+1))
	if err != nil {
		return "", fmt.Errorf("reading content: %w", err)
	}
	if len(body) > maxContentSize {
		return "", fmt.Errorf("content exceeds %d bytes", maxContentSize)
	}
	return string(body), nil
}
