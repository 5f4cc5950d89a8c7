// Package offline persists the most recently fetched page of records so Dex
// can keep browsing without a network connection.
package offline

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"

	"github.com/five82/dex/internal/pokeapi"
)

// SnapshotKey is the single named key holding the snapshot.
const SnapshotKey = "dex_offline_data"

const (
	encodingJSON     = "json"
	encodingZstdJSON = "zstd+json"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	encoding   TEXT NOT NULL DEFAULT 'json',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Store reads and writes the offline snapshot.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
	enc    *zstd.Encoder
	dec    *zstd.Decoder
}

// Info describes the stored snapshot.
type Info struct {
	Records   int
	Bytes     int
	Encoding  string
	UpdatedAt time.Time
}

// Open opens (or creates) the snapshot database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("offline: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("offline: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("offline: apply schema: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("offline: init encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("offline: init decoder: %w", err)
	}
	return &Store{conn: conn, logger: logger, enc: enc, dec: dec}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	_ = s.enc.Close()
	s.dec.Close()
	return s.conn.Close()
}

// Load returns the stored snapshot. Missing or malformed data yields nil.
func (s *Store) Load(ctx context.Context) []pokeapi.Record {
	if s == nil {
		return nil
	}
	var (
		value    []byte
		encoding string
	)
	err := s.conn.QueryRowContext(ctx, `SELECT value, encoding FROM kv WHERE key = ?`, SnapshotKey).Scan(&value, &encoding)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("offline: read snapshot failed", slog.String("error", err.Error()))
		}
		return nil
	}

	raw, err := s.decode(value, encoding)
	if err != nil {
		s.logger.Warn("offline: decode snapshot failed", slog.String("encoding", encoding), slog.String("error", err.Error()))
		return nil
	}
	var records []pokeapi.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		s.logger.Warn("offline: parse snapshot failed", slog.String("error", err.Error()))
		return nil
	}
	s.logger.Debug("offline: snapshot loaded", slog.Int("records", len(records)))
	return records
}

// Save replaces the stored snapshot with the reduced form of records.
// Failures are logged, never returned.
func (s *Store) Save(ctx context.Context, records []pokeapi.Record) {
	if s == nil {
		return
	}
	reduced := Reduce(records)
	if reduced == nil {
		reduced = []pokeapi.Record{}
	}
	raw, err := json.Marshal(reduced)
	if err != nil {
		s.logger.Warn("offline: encode snapshot failed", slog.String("error", err.Error()))
		return
	}
	compressed := s.enc.EncodeAll(raw, nil)

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO kv (key, value, encoding, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			encoding   = excluded.encoding,
			updated_at = excluded.updated_at
	`, SnapshotKey, compressed, encodingZstdJSON, time.Now().UTC())
	if err != nil {
		s.logger.Warn("offline: write snapshot failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Debug("offline: snapshot saved", slog.Int("records", len(reduced)), slog.Int("bytes", len(compressed)))
}

// Info reports what is stored. A missing snapshot is a zero Info.
func (s *Store) Info(ctx context.Context) (Info, error) {
	var (
		info  Info
		value []byte
	)
	err := s.conn.QueryRowContext(ctx, `SELECT value, encoding, updated_at FROM kv WHERE key = ?`, SnapshotKey).
		Scan(&value, &info.Encoding, &info.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Info{}, nil
	}
	if err != nil {
		return Info{}, fmt.Errorf("offline: info: %w", err)
	}
	info.Bytes = len(value)
	info.Records = len(s.Load(ctx))
	return info, nil
}

// Clear removes the stored snapshot.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, SnapshotKey); err != nil {
		return fmt.Errorf("offline: clear: %w", err)
	}
	return nil
}

func (s *Store) decode(value []byte, encoding string) ([]byte, error) {
	switch encoding {
	case encodingZstdJSON:
		return s.dec.DecodeAll(value, nil)
	case encodingJSON, "":
		return value, nil
	default:
		return nil, fmt.Errorf("unknown encoding %q", encoding)
	}
}

// Reduce keeps only the fields needed to display a record.
func Reduce(records []pokeapi.Record) []pokeapi.Record {
	if len(records) == 0 {
		return nil
	}
	out := make([]pokeapi.Record, 0, len(records))
	for _, r := range records {
		if !r.Populated() {
			continue
		}
		reduced := pokeapi.Record{
			ID:   r.ID,
			Name: r.Name,
			Sprites: pokeapi.Sprites{
				FrontDefault: r.Sprites.FrontDefault,
				Other: pokeapi.OtherSprites{
					OfficialArtwork: pokeapi.Artwork{FrontDefault: r.Sprites.Other.OfficialArtwork.FrontDefault},
				},
			},
		}
		if len(r.Types) > 0 {
			reduced.Types = make([]pokeapi.TypeSlot, len(r.Types))
			copy(reduced.Types, r.Types)
		}
		out = append(out, reduced)
	}
	return out
}
