package adaptive

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ChunkSize is the plaintext size of every chunk except the last.
const ChunkSize = 64 * 1024

const (
	frameFinal   = 1 << 31
	frameLenMask = frameFinal - 1
)

var (
	ErrTruncated = errors.New("adaptive: stream truncated")
	ErrClosed    = errors.New("adaptive: stream closed")
)

// Writer encrypts a stream in sealed chunks. Close must be called to write
// the final chunk; a stream without one is rejected by Reader.
type Writer struct {
	w      io.Writer
	c      Cipher
	aad    []byte
	buf    []byte
	index  uint64
	closed bool
}

// NewWriter returns a Writer sealing to w. aad is bound to every chunk.
func NewWriter(w io.Writer, c Cipher, aad []byte) *Writer {
	return &Writer{
		w:   w,
		c:   c,
		aad: append([]byte(nil), aad...),
		buf: make([]byte, 0, ChunkSize),
	}
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}

	written := 0
	for len(p) > 0 {
		// A full buffer is only flushed once more data arrives, so the last
		// chunk is always written by Close with the final flag.
		if len(w.buf) == ChunkSize {
			if err := w.flush(false); err != nil {
				return written, err
			}
		}
		n := copy(w.buf[len(w.buf):ChunkSize], p)
		w.buf = w.buf[:len(w.buf)+n]
		p = p[n:]
		written += n
	}
	return written, nil
}

// Close writes the final chunk. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.flush(true)
}

func (w *Writer) flush(final bool) error {
	sealed, err := w.c.Seal(w.buf, chunkAAD(w.aad, w.index, final))
	if err != nil {
		return err
	}

	header := uint32(len(sealed))
	if final {
		header |= frameFinal
	}
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], header)

	if _, err := w.w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := w.w.Write(sealed); err != nil {
		return err
	}

	w.index++
	w.buf = w.buf[:0]
	return nil
}

// Reader decrypts a stream produced by Writer. It stops after the final
// chunk and never reads past it.
type Reader struct {
	r     io.Reader
	c     Cipher
	aad   []byte
	plain []byte
	index uint64
	done  bool
	err   error
}

// NewReader returns a Reader opening chunks from r with the same aad that
// was given to NewWriter.
func NewReader(r io.Reader, c Cipher, aad []byte) *Reader {
	return &Reader{
		r:   r,
		c:   c,
		aad: append([]byte(nil), aad...),
	}
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	for len(r.plain) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		if r.done {
			return 0, io.EOF
		}
		if err := r.next(); err != nil {
			r.err = err
			return 0, err
		}
	}

	n := copy(p, r.plain)
	r.plain = r.plain[n:]
	return n, nil
}

func (r *Reader) next() error {
	var hdr [4]byte
	if _, err := io.ReadFull(r.r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrTruncated
		}
		return err
	}

	header := binary.BigEndian.Uint32(hdr[:])
	final := header&frameFinal != 0
	size := int(header & frameLenMask)
	if size > ChunkSize+r.c.Overhead() {
		return fmt.Errorf("adaptive: chunk %d: size %d exceeds limit", r.index, size)
	}

	sealed := make([]byte, size)
	if _, err := io.ReadFull(r.r, sealed); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrTruncated
		}
		return err
	}

	plain, err := r.c.Open(sealed, chunkAAD(r.aad, r.index, final))
	if err != nil {
		return fmt.Errorf("adaptive: chunk %d: %w", r.index, err)
	}

	r.plain = plain
	r.index++
	r.done = final
	return nil
}

func chunkAAD(aad []byte, index uint64, final bool) []byte {
	out := make([]byte, 0, len(aad)+9)
	out = append(out, aad...)
	out = binary.BigEndian.AppendUint64(out, index)
	if final {
		return append(out, 1)
	}
	return append(out, 0)
}
