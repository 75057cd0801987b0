package launcher

import (
	"time"

	"github.com/nomis52/golaunch/config"
	"github.com/nomis52/golaunch/loader"
)

// RetrieverConfig selects the retrievers a launcher can use.
type RetrieverConfig struct {
	// Timeout bounds http(s) and ssh retrievals.
	Timeout time.Duration
	// RootDir anchors relative file paths.
	RootDir string
	// SSH enables ssh:// locators when set.
	SSH *loader.SSHConfig
}

// RetrieverConfigFor maps the retrieval section of the config file.
func RetrieverConfigFor(cfg config.RetrievalConfig) RetrieverConfig {
	rc := RetrieverConfig{
		Timeout: cfg.Timeout,
		RootDir: cfg.RootDir,
	}
	if cfg.SSH != nil {
		rc.SSH = &loader.SSHConfig{
			User:           cfg.SSH.User,
			PrivateKeyFile: cfg.SSH.PrivateKeyFile,
			KnownHostsFile: cfg.SSH.KnownHostsFile,
		}
	}
	return rc
}

// NewRetriever builds a scheme retriever for cfg.
func NewRetriever(cfg RetrieverConfig) *loader.SchemeRetriever {
	r := loader.NewSchemeRetriever()

	web := loader.NewHTTPRetriever(cfg.Timeout)
	r.Handle("http", web)
	r.Handle("https", web)
	r.Handle("file", loader.NewFileRetriever(cfg.RootDir))

	if cfg.SSH != nil {
		ssh := *cfg.SSH
		if ssh.Timeout == 0 {
			ssh.Timeout = cfg.Timeout
		}
		r.Handle("ssh", loader.NewSSHRetriever(ssh))
	}
	return r
}
