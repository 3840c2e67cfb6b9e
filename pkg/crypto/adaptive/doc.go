// Package adaptive provides authenticated encryption for backup files.
//
// A Cipher is either AES-256-GCM or ChaCha20-Poly1305. New picks AES-GCM on
// platforms where Go uses hardware AES and ChaCha20-Poly1305 elsewhere.
//
// Large payloads are encrypted with NewWriter and NewReader, which split the
// stream into independently sealed chunks. Each chunk is bound to its index
// and to whether it is the last one, so reordered, dropped or truncated
// chunks fail to open.
//
// Keys can be derived from a passphrase with DeriveKey (Argon2id).
//
// Usage:
//
//	salt, _ := adaptive.NewSalt()
//	c, _ := adaptive.New(adaptive.DeriveKey(passphrase, salt))
//	w := adaptive.NewWriter(dst, c, header)
//	io.Copy(w, src)
//	w.Close()
package adaptive
