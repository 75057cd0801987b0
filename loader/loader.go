// Package loader obtains activity module content and splits it into the
// declarative part handed to the presenter and the executable part handed to
// the sandbox.
//
// Retrieval is delegated to a Retriever. The package ships retrievers for
// http(s), local files and ssh, combined by SchemeRetriever:
//
//	r := loader.NewSchemeRetriever()
//	r.Handle("https", loader.NewHTTPRetriever(30*time.Second))
//	r.Handle("file", loader.NewFileRetriever("/srv/activities"))
//
//	l := loader.New(r, loader.WithLogger(logger))
//	content, err := l.Load(ctx, "https://example.com/echo.html")
//
// Splitting is structural only. Nothing is executed here.
package loader

import (
	"context"
	"errors"
	"log/slog"
)

// Content is the result of loading a locator.
type Content struct {
	// Declarative is the markup with executable segments removed.
	Declarative string
	// Executable is every inline script segment joined in document order.
	Executable string
	// Segments is the number of script segments found.
	Segments int
}

// Retriever obtains raw content for a locator.
type Retriever interface {
	Retrieve(ctx context.Context, locator string) (string, error)
}

// RetrieverFunc adapts a function to the Retriever interface.
type RetrieverFunc func(ctx context.Context, locator string) (string, error)

// Retrieve calls f.
func (f RetrieverFunc) Retrieve(ctx context.Context, locator string) (string, error) {
	return f(ctx, locator)
}

// Loader fetches and splits activity module content.
type Loader struct {
	retriever Retriever
	logger    *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used by the loader.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger.With("component", "loader")
	}
}

// New creates a Loader that retrieves content with r.
func New(r Retriever, opts ...Option) *Loader {
	l := &Loader{
		retriever: r,
		logger:    slog.Default().With("component", "loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load retrieves the content for locator and splits it.
// Any retrieval failure is returned as a *RetrievalError.
func (l *Loader) Load(ctx context.Context, locator string) (Content, error) {
	l.logger.Debug("retrieving content", "locator", locator)

	raw, err := l.retriever.Retrieve(ctx, locator)
	if err != nil {
		var rerr *RetrievalError
		if !errors.As(err, &rerr) {
			rerr = &RetrievalError{Locator: locator, Err: err}
		}
		l.logger.Warn("retrieval failed", "locator", locator, "status", rerr.StatusCode, "error", rerr.Err)
		return Content{}, rerr
	}

	content := Split(raw)
	l.logger.Debug("content loaded",
		"locator", locator,
		"bytes", len(raw),
		"segments", content.Segments,
	)
	return content, nil
}
