package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"sync"
)

// CertLoader serves the TLS certificate from disk and reloads it when the
// files change, so renewed certificates are picked up without a restart.
type CertLoader struct {
	certFile string
	keyFile  string
	logger   *slog.Logger

	mu   sync.RWMutex
	cert *tls.Certificate
}

// NewCertLoader loads the key pair once.
func NewCertLoader(certFile, keyFile string, logger *slog.Logger) (*CertLoader, error) {
	loader := &CertLoader{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   logger,
	}
	if err := loader.reload(); err != nil {
		return nil, err
	}
	return loader, nil
}

// Watch reloads the key pair whenever either file changes, until ctx is
// done. A pair that fails to load keeps the previous certificate in use.
func (l *CertLoader) Watch(ctx context.Context) error {
	return watchFiles(ctx, l.logger, []string{l.certFile, l.keyFile}, func() {
		if err := l.reload(); err != nil {
			l.logger.Error("failed to reload certificate", "error", err)
		}
	})
}

// GetCertificate is a callback for tls.Config.GetCertificate.
func (l *CertLoader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cert, nil
}

func (l *CertLoader) reload() error {
	cert, err := tls.LoadX509KeyPair(l.certFile, l.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load key pair: %w", err)
	}

	l.mu.Lock()
	l.cert = &cert
	l.mu.Unlock()
	l.logger.Info("loaded tls certificate", "cert", l.certFile, "key", l.keyFile)
	return nil
}
