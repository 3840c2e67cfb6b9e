package adaptive

import (
	"bytes"
	"crypto/rand"
	"errors"
	"io"
	"testing"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestNew(t *testing.T) {
	c, err := New(testKey(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.Suite() != PreferredSuite() {
		t.Errorf("New() suite = %s, want %s", c.Suite(), PreferredSuite())
	}
}

func TestNewWithSuite(t *testing.T) {
	tests := []struct {
		name    string
		key     []byte
		suite   Suite
		wantErr error
	}{
		{"aes-gcm", make([]byte, 32), SuiteAESGCM, nil},
		{"chacha20", make([]byte, 32), SuiteChaCha20, nil},
		{"short key", make([]byte, 16), SuiteAESGCM, ErrKeySize},
		{"long key", make([]byte, 33), SuiteChaCha20, ErrKeySize},
		{"unknown suite", make([]byte, 32), "rot13", ErrUnknownSuite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewWithSuite(tt.key, tt.suite)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if c.Suite() != tt.suite {
				t.Errorf("Suite() = %s, want %s", c.Suite(), tt.suite)
			}
		})
	}
}

func TestParseSuite(t *testing.T) {
	if s, err := ParseSuite(""); err != nil || s != PreferredSuite() {
		t.Errorf("ParseSuite(\"\") = %s, %v", s, err)
	}
	if s, err := ParseSuite("chacha20-poly1305"); err != nil || s != SuiteChaCha20 {
		t.Errorf("ParseSuite(chacha20) = %s, %v", s, err)
	}
	if _, err := ParseSuite("des"); !errors.Is(err, ErrUnknownSuite) {
		t.Errorf("expected ErrUnknownSuite, got %v", err)
	}
}

func TestSealOpen(t *testing.T) {
	for _, suite := range []Suite{SuiteAESGCM, SuiteChaCha20} {
		t.Run(string(suite), func(t *testing.T) {
			c, err := NewWithSuite(testKey(t), suite)
			if err != nil {
				t.Fatal(err)
			}

			plaintext := []byte("attendance backup")
			aad := []byte("header")

			sealed, err := c.Seal(plaintext, aad)
			if err != nil {
				t.Fatal(err)
			}
			if len(sealed) != len(plaintext)+c.Overhead() {
				t.Errorf("sealed length = %d, want %d", len(sealed), len(plaintext)+c.Overhead())
			}

			opened, err := c.Open(sealed, aad)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(opened, plaintext) {
				t.Errorf("Open() = %q, want %q", opened, plaintext)
			}

			// Same plaintext seals differently each time.
			again, _ := c.Seal(plaintext, aad)
			if bytes.Equal(sealed, again) {
				t.Error("expected distinct nonces")
			}

			if _, err := c.Open(sealed, []byte("other")); !errors.Is(err, ErrAuthentication) {
				t.Errorf("wrong aad: expected ErrAuthentication, got %v", err)
			}

			tampered := append([]byte(nil), sealed...)
			tampered[len(tampered)-1] ^= 0xff
			if _, err := c.Open(tampered, aad); !errors.Is(err, ErrAuthentication) {
				t.Errorf("tampered: expected ErrAuthentication, got %v", err)
			}

			if _, err := c.Open(sealed[:3], aad); !errors.Is(err, ErrShortMessage) {
				t.Errorf("short: expected ErrShortMessage, got %v", err)
			}
		})
	}
}

func TestDeriveKey(t *testing.T) {
	salt, err := NewSalt()
	if err != nil {
		t.Fatal(err)
	}
	if len(salt) != SaltSize {
		t.Fatalf("salt length = %d", len(salt))
	}

	k1 := DeriveKey([]byte("correct horse"), salt)
	k2 := DeriveKey([]byte("correct horse"), salt)
	k3 := DeriveKey([]byte("wrong horse"), salt)

	if len(k1) != KeySize {
		t.Errorf("key length = %d, want %d", len(k1), KeySize)
	}
	if !bytes.Equal(k1, k2) {
		t.Error("same passphrase and salt should derive the same key")
	}
	if bytes.Equal(k1, k3) {
		t.Error("different passphrases should derive different keys")
	}

	Zero(k1)
	if !bytes.Equal(k1, make([]byte, KeySize)) {
		t.Error("Zero() should clear the key")
	}
}

func TestStream_RoundTrip(t *testing.T) {
	c, err := New(testKey(t))
	if err != nil {
		t.Fatal(err)
	}

	sizes := []int{0, 1, ChunkSize - 1, ChunkSize, ChunkSize + 1, 3*ChunkSize + 17}
	for _, size := range sizes {
		plaintext := make([]byte, size)
		if _, err := rand.Read(plaintext); err != nil {
			t.Fatal(err)
		}

		var buf bytes.Buffer
		w := NewWriter(&buf, c, []byte("aad"))
		// Odd write sizes exercise chunk boundaries.
		for off := 0; off < size; off += 1000 {
			end := min(off+1000, size)
			if _, err := w.Write(plaintext[off:end]); err != nil {
				t.Fatal(err)
			}
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}

		got, err := io.ReadAll(NewReader(&buf, c, []byte("aad")))
		if err != nil {
			t.Fatalf("size %d: %v", size, err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Errorf("size %d: round trip mismatch", size)
		}
	}
}

func TestStream_Tamper(t *testing.T) {
	c, _ := New(testKey(t))

	plaintext := bytes.Repeat([]byte("x"), 2*ChunkSize+10)
	var buf bytes.Buffer
	w := NewWriter(&buf, c, nil)
	if _, err := w.Write(plaintext); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	stream := buf.Bytes()

	t.Run("truncated", func(t *testing.T) {
		// Drop the final chunk entirely.
		cut := 2 * (4 + ChunkSize + c.Overhead())
		_, err := io.ReadAll(NewReader(bytes.NewReader(stream[:cut]), c, nil))
		if !errors.Is(err, ErrTruncated) {
			t.Errorf("expected ErrTruncated, got %v", err)
		}
	})

	t.Run("flipped bit", func(t *testing.T) {
		bad := append([]byte(nil), stream...)
		bad[100] ^= 0x01
		_, err := io.ReadAll(NewReader(bytes.NewReader(bad), c, nil))
		if !errors.Is(err, ErrAuthentication) {
			t.Errorf("expected ErrAuthentication, got %v", err)
		}
	})

	t.Run("wrong aad", func(t *testing.T) {
		_, err := io.ReadAll(NewReader(bytes.NewReader(stream), c, []byte("other")))
		if !errors.Is(err, ErrAuthentication) {
			t.Errorf("expected ErrAuthentication, got %v", err)
		}
	})

	t.Run("trailing data is not read", func(t *testing.T) {
		withTrailer := append(append([]byte(nil), stream...), "trailer"...)
		r := bytes.NewReader(withTrailer)
		got, err := io.ReadAll(NewReader(r, c, nil))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Error("round trip mismatch")
		}
		if r.Len() != len("trailer") {
			t.Errorf("reader consumed trailer: %d bytes left", r.Len())
		}
	})
}

func TestWriter_WriteAfterClose(t *testing.T) {
	c, _ := New(testKey(t))
	w := NewWriter(io.Discard, c, nil)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
