package tlsroots

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeSelfSigned writes a self-signed certificate for 127.0.0.1 and its key.
func writeSelfSigned(t *testing.T, dir string) (certPath, keyPath string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "rollcall-test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}

	certPath = filepath.Join(dir, "server.crt")
	keyPath = filepath.Join(dir, "server.key")
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	if err := os.WriteFile(certPath, certPEM, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		t.Fatal(err)
	}
	return certPath, keyPath
}

func TestAddCertPEM(t *testing.T) {
	certPath, keyPath := writeSelfSigned(t, t.TempDir())

	t.Run("certificate", func(t *testing.T) {
		if err := NewEmptyPool().AddCertFile(certPath); err != nil {
			t.Errorf("AddCertFile() error = %v", err)
		}
	})
	t.Run("key only", func(t *testing.T) {
		err := NewEmptyPool().AddCertFile(keyPath)
		if !errors.Is(err, ErrNoCertsFound) {
			t.Errorf("AddCertFile(key) error = %v, want ErrNoCertsFound", err)
		}
	})
	t.Run("garbage", func(t *testing.T) {
		if err := NewEmptyPool().AddCertPEM([]byte("not pem")); !errors.Is(err, ErrNoCertsFound) {
			t.Errorf("AddCertPEM() error = %v", err)
		}
	})
	t.Run("missing file", func(t *testing.T) {
		if err := NewEmptyPool().AddCertFile(filepath.Join(t.TempDir(), "none.pem")); err == nil {
			t.Error("expected error")
		}
	})
}

func TestClientConfig_TrustsPrivateCA(t *testing.T) {
	certPath, keyPath := writeSelfSigned(t, t.TempDir())

	reloader, err := NewCertReloader(certPath, keyPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	srv.TLS = reloader.TLSConfig()
	srv.StartTLS()
	defer srv.Close()

	clientCfg, err := ClientConfig(certPath)
	if err != nil {
		t.Fatalf("ClientConfig() error = %v", err)
	}
	client := &http.Client{Transport: &http.Transport{TLSClientConfig: clientCfg}}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET with private CA: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d", resp.StatusCode)
	}

	untrusted := &http.Client{Transport: &http.Transport{TLSClientConfig: &tls.Config{
		RootCAs:    NewEmptyPool().certPool,
		MinVersion: MinVersion,
	}}}
	if _, err := untrusted.Get(srv.URL); err == nil {
		t.Error("GET without the CA succeeded")
	}
}

func TestClientConfig_Empty(t *testing.T) {
	cfg, err := ClientConfig("")
	if err != nil || cfg != nil {
		t.Errorf("ClientConfig(\"\") = %v, %v; want nil, nil", cfg, err)
	}
}
