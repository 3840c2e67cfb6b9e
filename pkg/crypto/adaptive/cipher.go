package adaptive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/crypto/chacha20poly1305"
)

// Suite identifies the AEAD algorithm.
type Suite string

const (
	SuiteAESGCM   Suite = "aes-256-gcm"
	SuiteChaCha20 Suite = "chacha20-poly1305"
)

// KeySize is the key length required by every suite.
const KeySize = 32

var (
	ErrKeySize        = errors.New("adaptive: key must be 32 bytes")
	ErrUnknownSuite   = errors.New("adaptive: unknown cipher suite")
	ErrShortMessage   = errors.New("adaptive: ciphertext too short")
	ErrAuthentication = errors.New("adaptive: message authentication failed")
)

// Cipher provides authenticated encryption. Safe for concurrent use.
type Cipher interface {
	// Suite returns the algorithm in use.
	Suite() Suite

	// Seal encrypts plaintext under a fresh random nonce. The nonce is
	// prepended to the returned ciphertext.
	Seal(plaintext, additionalData []byte) ([]byte, error)

	// Open reverses Seal. It returns ErrAuthentication if the ciphertext or
	// additional data were altered.
	Open(ciphertext, additionalData []byte) ([]byte, error)

	// Overhead is the number of bytes Seal adds to a plaintext.
	Overhead() int
}

// New creates a cipher with the suite preferred on this platform.
func New(key []byte) (Cipher, error) {
	return NewWithSuite(key, PreferredSuite())
}

// NewWithSuite creates a cipher for the given suite.
func NewWithSuite(key []byte, suite Suite) (Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}

	var (
		aead cipher.AEAD
		err  error
	)
	switch suite {
	case SuiteAESGCM:
		var block cipher.Block
		block, err = aes.NewCipher(key)
		if err == nil {
			aead, err = cipher.NewGCM(block)
		}
	case SuiteChaCha20:
		aead, err = chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSuite, suite)
	}
	if err != nil {
		return nil, fmt.Errorf("adaptive: %s: %w", suite, err)
	}

	return &aeadCipher{suite: suite, aead: aead}, nil
}

// ParseSuite converts a configuration string to a Suite.
// The empty string selects PreferredSuite.
func ParseSuite(s string) (Suite, error) {
	switch Suite(s) {
	case "":
		return PreferredSuite(), nil
	case SuiteAESGCM, SuiteChaCha20:
		return Suite(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSuite, s)
	}
}

// PreferredSuite returns AES-GCM where Go has hardware AES support
// (amd64, arm64) and ChaCha20-Poly1305 elsewhere.
func PreferredSuite() Suite {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return SuiteAESGCM
	default:
		return SuiteChaCha20
	}
}

type aeadCipher struct {
	suite Suite
	aead  cipher.AEAD
}

func (c *aeadCipher) Suite() Suite { return c.suite }

func (c *aeadCipher) Overhead() int {
	return c.aead.NonceSize() + c.aead.Overhead()
}

func (c *aeadCipher) Seal(plaintext, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("adaptive: nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

func (c *aeadCipher) Open(ciphertext, additionalData []byte) ([]byte, error) {
	ns := c.aead.NonceSize()
	if len(ciphertext) < ns+c.aead.Overhead() {
		return nil, ErrShortMessage
	}

	plaintext, err := c.aead.Open(nil, ciphertext[:ns], ciphertext[ns:], additionalData)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}
