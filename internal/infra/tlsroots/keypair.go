package tlsroots

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/yndnr/quickvote-go/internal/infra/confloader"
)

// KeyPair holds the listener certificate. The certificate is swapped
// atomically on reload, so in-flight handshakes keep the old one.
type KeyPair struct {
	certFile string
	keyFile  string
	cert     atomic.Pointer[tls.Certificate]
	logger   *slog.Logger
}

// LoadKeyPair loads certFile and keyFile. A nil logger uses slog.Default.
func LoadKeyPair(certFile, keyFile string, logger *slog.Logger) (*KeyPair, error) {
	if logger == nil {
		logger = slog.Default()
	}
	kp := &KeyPair{certFile: certFile, keyFile: keyFile, logger: logger}
	if err := kp.Reload(); err != nil {
		return nil, err
	}
	return kp, nil
}

// Reload re-reads both files. On failure the previous certificate stays
// in use.
func (kp *KeyPair) Reload() error {
	cert, err := tls.LoadX509KeyPair(kp.certFile, kp.keyFile)
	if err != nil {
		return fmt.Errorf("tlsroots: load key pair: %w", err)
	}
	kp.cert.Store(&cert)
	kp.logger.Info("tls certificate loaded", "cert_file", kp.certFile)
	return nil
}

// GetCertificate implements tls.Config.GetCertificate.
func (kp *KeyPair) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return kp.cert.Load(), nil
}

// ServerTLSConfig returns a listener config backed by this key pair.
func (kp *KeyPair) ServerTLSConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: kp.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
}

// WatchWith registers both files with w and reloads on change.
func (kp *KeyPair) WatchWith(w *confloader.Watcher) error {
	for _, f := range []string{kp.certFile, kp.keyFile} {
		if err := w.Watch(f); err != nil {
			return fmt.Errorf("tlsroots: watch %s: %w", f, err)
		}
	}
	w.OnChange(func(path string) {
		if !kp.owns(path) {
			return
		}
		if err := kp.Reload(); err != nil {
			kp.logger.Error("tls certificate reload failed", "path", path, "error", err)
		}
	})
	return nil
}

func (kp *KeyPair) owns(path string) bool {
	return confloader.SamePath(path, kp.certFile) || confloader.SamePath(path, kp.keyFile)
}
