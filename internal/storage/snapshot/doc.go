// Package snapshot writes, lists, prunes and restores backup files of the
// storage engine.
//
// A backup is the engine's native backup stream, compressed with zstd and
// optionally encrypted with a passphrase-derived key:
//
//	snapshot-<ulid>.rcb
//	[magic:8 "RCBACKUP"]
//	[checksum:32 SHA-256 of every byte after this field]
//	[HeaderLen:4][HeaderJSON:HeaderLen]
//	[Body]   zstd(stream), or adaptive.Writer(zstd(stream)) when encrypted
//
// Encrypted bodies are bound to the header bytes, so a header cannot be
// swapped onto another body. ULIDs sort by creation time, so file names
// order backups oldest first.
package snapshot
