package server

import (
	"crypto/tls"
	"fmt"
	"net/http"
)

// configureTLS attaches a TLS configuration to the server when enabled.
// Certificates are loaded from files at startup; the watcher-based
// reloading used for prompt templates is not applied to certificates.
func (s *Server) configureTLS(httpServer *http.Server) error {
	if !s.TLSConfig.Enabled {
		fmt.Printf("Starting server on http://%s\n", httpServer.Addr)
		return nil
	}

	if s.TLSConfig.CertFile == "" || s.TLSConfig.KeyFile == "" {
		return fmt.Errorf("TLS is enabled but certFile or keyFile is missing")
	}

	// Fail at startup on an unreadable pair instead of on first connection.
	if _, err := tls.LoadX509KeyPair(s.TLSConfig.CertFile, s.TLSConfig.KeyFile); err != nil {
		return fmt.Errorf("failed to load server cert/key: %w", err)
	}

	fmt.Printf("Starting server with HTTPS on https://%s\n", httpServer.Addr)
	httpServer.TLSConfig = &tls.Config{
		MinVersion: tlsMinVersion(s.TLSConfig.MinVersion),
	}
	return nil
}

// tlsMinVersion maps the configured version string to a TLS constant,
// defaulting to TLS 1.2.
func tlsMinVersion(version string) uint16 {
	switch version {
	case "1.3":
		return tls.VersionTLS13
	default:
		return tls.VersionTLS12
	}
}
