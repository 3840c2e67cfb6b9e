package snapshot

import (
	"bufio"
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/oklog/ulid/v2"

	"github.com/yndnr/rollcall-go/pkg/crypto/adaptive"
)

var magicBytes = []byte("RCBACKUP")

const (
	filePrefix    = "snapshot-"
	fileExtension = ".rcb"
	checksumSize  = 32
	headerVersion = 1
	maxHeaderSize = 64 * 1024

	DefaultRetentionCount = 5
	DefaultRetentionDays  = 7

	// MinPassphraseLength is the shortest accepted backup passphrase.
	MinPassphraseLength = 8
)

var (
	ErrInvalidMagic      = errors.New("snapshot: invalid magic bytes")
	ErrChecksumMismatch  = errors.New("snapshot: checksum mismatch")
	ErrNotFound          = errors.New("snapshot: not found")
	ErrNoSnapshots       = errors.New("snapshot: no snapshots available")
	ErrPassphraseTooWeak = errors.New("snapshot: passphrase too weak (minimum 8 characters)")
	ErrPassphraseMissing = errors.New("snapshot: backup is encrypted but no passphrase is configured")
)

// Source produces a backup stream. *storage.BadgerEngine satisfies it.
type Source interface {
	Backup(ctx context.Context, w io.Writer) (uint64, error)
}

// Sink consumes a backup stream. *storage.BadgerEngine satisfies it.
type Sink interface {
	Load(ctx context.Context, r io.Reader) error
}

type fileHeader struct {
	Version   int              `json:"version"`
	ID        string           `json:"id"`
	CreatedAt int64            `json:"created_at"`
	Encrypted bool             `json:"encrypted"`
	Suite     adaptive.Suite   `json:"suite,omitempty"`
	Salt      []byte           `json:"salt,omitempty"`
	Counts    map[string]int64 `json:"counts,omitempty"`
}

// Config configures the snapshot manager.
type Config struct {
	Dir string

	// Backups beyond the newest RetentionCount are pruned unless younger
	// than RetentionDays. Zero selects the default, negative disables.
	RetentionCount int
	RetentionDays  int

	// Passphrase enables encryption when non-empty.
	Passphrase []byte

	// Suite selects the cipher; empty picks adaptive.PreferredSuite.
	Suite string

	Logger *slog.Logger
}

// DefaultConfig returns the default configuration for dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:            dir,
		RetentionCount: DefaultRetentionCount,
		RetentionDays:  DefaultRetentionDays,
	}
}

// Manager owns the backup directory.
type Manager struct {
	cfg    Config
	suite  adaptive.Suite
	logger *slog.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewManager creates the backup directory if needed.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("snapshot: dir is required")
	}
	if len(cfg.Passphrase) > 0 && len(cfg.Passphrase) < MinPassphraseLength {
		return nil, ErrPassphraseTooWeak
	}
	suite, err := adaptive.ParseSuite(cfg.Suite)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
		return nil, fmt.Errorf("snapshot: create dir: %w", err)
	}
	if cfg.RetentionCount == 0 {
		cfg.RetentionCount = DefaultRetentionCount
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = DefaultRetentionDays
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Manager{
		cfg:     cfg,
		suite:   suite,
		logger:  cfg.Logger,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Info contains metadata about a backup.
type Info struct {
	ID        string           `json:"id"`
	CreatedAt int64            `json:"created_at"`
	Size      int64            `json:"size"`
	Path      string           `json:"path"`
	Checksum  string           `json:"checksum"`
	Encrypted bool             `json:"encrypted"`
	Counts    map[string]int64 `json:"counts,omitempty"`
}

// Create writes a new backup from src. counts is informational metadata
// stored in the header (record counts per store).
func (m *Manager) Create(ctx context.Context, src Source, counts map[string]int64) (*Info, error) {
	// entropy is not safe for concurrent use.
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	uid, err := ulid.New(ulid.Timestamp(now), m.entropy)
	if err != nil {
		return nil, fmt.Errorf("snapshot: id: %w", err)
	}
	id := uid.String()

	hdr := fileHeader{
		Version:   headerVersion,
		ID:        id,
		CreatedAt: now.UnixMilli(),
		Counts:    counts,
	}

	var key []byte
	if len(m.cfg.Passphrase) > 0 {
		salt, err := adaptive.NewSalt()
		if err != nil {
			return nil, err
		}
		hdr.Encrypted = true
		hdr.Suite = m.suite
		hdr.Salt = salt
		key = adaptive.DeriveKey(m.cfg.Passphrase, salt)
		defer adaptive.Zero(key)
	}

	hdrJSON, err := json.Marshal(hdr)
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshal header: %w", err)
	}

	finalPath := filepath.Join(m.cfg.Dir, filePrefix+id+fileExtension)
	tempPath := finalPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("snapshot: create temp file: %w", err)
	}
	defer os.Remove(tempPath)

	checksum, err := m.writeFile(ctx, file, hdrJSON, key, src)
	if cerr := file.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}

	if err := os.Rename(tempPath, finalPath); err != nil {
		return nil, fmt.Errorf("snapshot: rename: %w", err)
	}

	stat, err := os.Stat(finalPath)
	if err != nil {
		return nil, err
	}

	info := &Info{
		ID:        id,
		CreatedAt: hdr.CreatedAt,
		Size:      stat.Size(),
		Path:      finalPath,
		Checksum:  hex.EncodeToString(checksum),
		Encrypted: hdr.Encrypted,
		Counts:    counts,
	}

	m.logger.Info("backup created",
		"id", id,
		"size", info.Size,
		"encrypted", info.Encrypted)

	if err := m.Prune(); err != nil {
		m.logger.Warn("backup prune failed", "error", err)
	}
	return info, nil
}

// writeFile lays out magic, a checksum placeholder, the header and the body,
// then fills in the checksum.
func (m *Manager) writeFile(ctx context.Context, file *os.File, hdrJSON, key []byte, src Source) ([]byte, error) {
	if _, err := file.Write(magicBytes); err != nil {
		return nil, err
	}
	if _, err := file.Write(make([]byte, checksumSize)); err != nil {
		return nil, err
	}

	hash := sha256.New()
	buffered := bufio.NewWriter(io.MultiWriter(file, hash))

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(hdrJSON)))
	if _, err := buffered.Write(lenBuf[:]); err != nil {
		return nil, err
	}
	if _, err := buffered.Write(hdrJSON); err != nil {
		return nil, err
	}

	var (
		body      io.Writer = buffered
		encWriter *adaptive.Writer
	)
	if key != nil {
		c, err := adaptive.NewWithSuite(key, m.suite)
		if err != nil {
			return nil, err
		}
		encWriter = adaptive.NewWriter(buffered, c, hdrJSON)
		body = encWriter
	}

	zw, err := zstd.NewWriter(body)
	if err != nil {
		return nil, fmt.Errorf("snapshot: zstd: %w", err)
	}
	if _, err := src.Backup(ctx, zw); err != nil {
		zw.Close()
		return nil, fmt.Errorf("snapshot: backup stream: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("snapshot: zstd close: %w", err)
	}
	if encWriter != nil {
		if err := encWriter.Close(); err != nil {
			return nil, fmt.Errorf("snapshot: encrypt: %w", err)
		}
	}
	if err := buffered.Flush(); err != nil {
		return nil, err
	}

	sum := hash.Sum(nil)
	if _, err := file.WriteAt(sum, int64(len(magicBytes))); err != nil {
		return nil, err
	}
	if err := file.Sync(); err != nil {
		return nil, err
	}
	return sum, nil
}

// List returns backups ordered oldest first.
func (m *Manager) List() ([]*Info, error) {
	entries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileExtension) {
			paths = append(paths, filepath.Join(m.cfg.Dir, name))
		}
	}
	sort.Strings(paths)

	infos := make([]*Info, 0, len(paths))
	for _, p := range paths {
		info, err := readInfo(p)
		if err != nil {
			m.logger.Warn("skipping unreadable backup", "path", p, "error", err)
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Latest returns the newest backup.
func (m *Manager) Latest() (*Info, error) {
	infos, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, ErrNoSnapshots
	}
	return infos[len(infos)-1], nil
}

// Get returns the backup with the given id.
func (m *Manager) Get(id string) (*Info, error) {
	path := filepath.Join(m.cfg.Dir, filePrefix+id+fileExtension)
	if filepath.Dir(path) != filepath.Clean(m.cfg.Dir) {
		return nil, ErrNotFound
	}
	info, err := readInfo(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return info, err
}

// Verify recomputes the checksum of a backup file.
func (m *Manager) Verify(info *Info) error {
	file, err := os.Open(info.Path)
	if err != nil {
		return err
	}
	defer file.Close()

	expected, err := readPreamble(file)
	if err != nil {
		return err
	}

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return err
	}
	if !bytes.Equal(hash.Sum(nil), expected) {
		return ErrChecksumMismatch
	}
	return nil
}

// Restore verifies the backup and streams it into dst.
func (m *Manager) Restore(ctx context.Context, info *Info, dst Sink) error {
	if err := m.Verify(info); err != nil {
		return fmt.Errorf("snapshot: verify %s: %w", info.ID, err)
	}

	file, err := os.Open(info.Path)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := readPreamble(file); err != nil {
		return err
	}
	reader := bufio.NewReader(file)
	hdr, hdrJSON, err := readHeader(reader)
	if err != nil {
		return err
	}

	var body io.Reader = reader
	if hdr.Encrypted {
		if len(m.cfg.Passphrase) == 0 {
			return ErrPassphraseMissing
		}
		key := adaptive.DeriveKey(m.cfg.Passphrase, hdr.Salt)
		c, err := adaptive.NewWithSuite(key, hdr.Suite)
		adaptive.Zero(key)
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		body = adaptive.NewReader(reader, c, hdrJSON)
	}

	zr, err := zstd.NewReader(body)
	if err != nil {
		return fmt.Errorf("snapshot: zstd: %w", err)
	}
	defer zr.Close()

	if err := dst.Load(ctx, zr); err != nil {
		return fmt.Errorf("snapshot: restore %s: %w", info.ID, err)
	}

	m.logger.Info("backup restored", "id", info.ID)
	return nil
}

// Prune applies the retention policy and deletes old backups.
// The newest backup is always kept.
func (m *Manager) Prune() error {
	infos, err := m.List()
	if err != nil {
		return err
	}
	if len(infos) <= 1 {
		return nil
	}

	keep := make(map[string]struct{}, len(infos))

	if m.cfg.RetentionCount > 0 {
		start := max(len(infos)-m.cfg.RetentionCount, 0)
		for _, info := range infos[start:] {
			keep[info.Path] = struct{}{}
		}
	}

	if m.cfg.RetentionDays > 0 {
		cutoff := time.Now().Add(-time.Duration(m.cfg.RetentionDays) * 24 * time.Hour).UnixMilli()
		for _, info := range infos {
			if info.CreatedAt > cutoff {
				keep[info.Path] = struct{}{}
			}
		}
	}

	keep[infos[len(infos)-1].Path] = struct{}{}

	var errs []error
	for _, info := range infos {
		if _, ok := keep[info.Path]; ok {
			continue
		}
		if err := os.Remove(info.Path); err != nil {
			errs = append(errs, err)
			continue
		}
		m.logger.Info("backup pruned", "id", info.ID)
	}
	return errors.Join(errs...)
}

func readInfo(path string) (*Info, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	checksum, err := readPreamble(file)
	if err != nil {
		return nil, err
	}
	hdr, _, err := readHeader(file)
	if err != nil {
		return nil, err
	}
	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	return &Info{
		ID:        hdr.ID,
		CreatedAt: hdr.CreatedAt,
		Size:      stat.Size(),
		Path:      path,
		Checksum:  hex.EncodeToString(checksum),
		Encrypted: hdr.Encrypted,
		Counts:    hdr.Counts,
	}, nil
}

// readPreamble checks the magic bytes and returns the stored checksum.
func readPreamble(r io.Reader) ([]byte, error) {
	buf := make([]byte, len(magicBytes)+checksumSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("snapshot: read preamble: %w", err)
	}
	if !bytes.Equal(buf[:len(magicBytes)], magicBytes) {
		return nil, ErrInvalidMagic
	}
	return buf[len(magicBytes):], nil
}

func readHeader(r io.Reader) (*fileHeader, []byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, nil, fmt.Errorf("snapshot: read header length: %w", err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n == 0 || n > maxHeaderSize {
		return nil, nil, fmt.Errorf("snapshot: invalid header length %d", n)
	}

	raw := make([]byte, n)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, nil, fmt.Errorf("snapshot: read header: %w", err)
	}

	var hdr fileHeader
	if err := json.Unmarshal(raw, &hdr); err != nil {
		return nil, nil, fmt.Errorf("snapshot: decode header: %w", err)
	}
	if hdr.Version != headerVersion {
		return nil, nil, fmt.Errorf("snapshot: unsupported header version %d", hdr.Version)
	}
	return &hdr, raw, nil
}
