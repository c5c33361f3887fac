package bank

import (
	"crypto/tls"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fleet-backoffice/internal/config"
	"fleet-backoffice/internal/logger"
	"fleet-backoffice/internal/provider"
)

// loadCertificate resolves the client certificate pair. Raw PEM content from
// settings is written to the configured paths when the files do not exist.
func loadCertificate(settings Settings, certDir string) (tls.Certificate, error) {
	certPath := settings.Get(config.KeyBankCertPath)
	if certPath == "" {
		certPath = filepath.Join(certDir, "inter.crt")
	}
	keyPath := settings.Get(config.KeyBankKeyPath)
	if keyPath == "" {
		keyPath = filepath.Join(certDir, "inter.key")
	}

	if err := materialize(certPath, settings.Get(config.KeyBankCertRaw)); err != nil {
		return tls.Certificate{}, err
	}
	if err := materialize(keyPath, settings.Get(config.KeyBankKeyRaw)); err != nil {
		return tls.Certificate{}, err
	}

	for setting, path := range map[string]string{config.KeyBankCertPath: certPath, config.KeyBankKeyPath: keyPath} {
		if _, err := os.Stat(path); err != nil {
			return tls.Certificate{}, &provider.ConfigError{Provider: providerName, Setting: setting, Detail: "file not found at " + path}
		}
	}

	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return tls.Certificate{}, &provider.ConfigError{Provider: providerName, Setting: config.KeyBankCertPath, Detail: err.Error()}
	}
	return cert, nil
}

func materialize(path, raw string) error {
	if raw == "" {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create certificate directory: %w", err)
	}
	content := strings.ReplaceAll(raw, `\n`, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write certificate %s: %w", path, err)
	}
	logger.Info("Materialized bank certificate from settings", "path", path)
	return nil
}
