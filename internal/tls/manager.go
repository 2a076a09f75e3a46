package tls

import (
	"crypto/tls"
	"fmt"
	"os"

	"idol-platform/internal/config"
	"idol-platform/internal/util"

	"golang.org/x/crypto/acme/autocert"
)

// Manager resolves the serving certificate: autocert when configured, then
// file-based certificates, then a generated development certificate.
type Manager struct {
	cfg      *config.Config
	autoCert *autocert.Manager
}

func NewManager(cfg *config.Config) *Manager {
	m := &Manager{cfg: cfg}

	if cfg.Server.EnableTLS && cfg.Server.AutoCert {
		m.setupAutoCert()
	}

	return m
}

func (m *Manager) setupAutoCert() {
	if err := os.MkdirAll(m.cfg.Server.AutoCertDir, 0o700); err != nil {
		util.Warn("Could not create autocert directory", util.ErrorField(err))
		return
	}

	m.autoCert = &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(m.cfg.Server.Domain),
		Cache:      autocert.DirCache(m.cfg.Server.AutoCertDir),
		Email:      m.cfg.Server.Email,
	}

	util.Info("AutoCert configured",
		util.String("domain", m.cfg.Server.Domain),
		util.String("cache_dir", m.cfg.Server.AutoCertDir))
}

// GetCertificate picks the first available certificate source.
func (m *Manager) GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	if m.autoCert != nil {
		if cert, err := m.autoCert.GetCertificate(hello); err == nil {
			return cert, nil
		}
	}

	if m.cfg.Server.CertFile != "" && m.cfg.Server.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(m.cfg.Server.CertFile, m.cfg.Server.KeyFile)
		if err == nil {
			return &cert, nil
		}
	}

	hosts := []string{m.cfg.Server.Domain, "localhost", "127.0.0.1", "::1"}
	cert, err := generateDevCert(m.cfg.Server.AutoCertDir, hosts)
	if err != nil {
		return nil, fmt.Errorf("no certificate source available: %w", err)
	}
	return &cert, nil
}

// GetTLSConfig returns the server TLS configuration.
func (m *Manager) GetTLSConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: m.GetCertificate,
		NextProtos:     []string{"h2", "http/1.1"},
		MinVersion:     tls.VersionTLS12,
		CurvePreferences: []tls.CurveID{
			tls.X25519,
			tls.CurveP256,
		},
	}
}

// AutocertManager exposes the autocert manager for the HTTP-01 challenge
// listener; nil unless autocert is enabled.
func (m *Manager) AutocertManager() *autocert.Manager {
	return m.autoCert
}
