// Package history keeps the payloads of past copies in a SQLite database so
// that any of them can be inspected or put back on the clipboard.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rtfdclip/pkg/clipboard"
	"rtfdclip/pkg/errors"
	"rtfdclip/pkg/logger"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const selectEntries = `SELECT
		id,
		created_at,
		plain,
		doc_length,
		attachments,
		length(rtf),
		length(rtfd)
	FROM entries`

// minPrefix is the shortest id prefix Get accepts.
const minPrefix = 4

// Entry describes one recorded copy. RTF and RTFD are only filled by Get.
type Entry struct {
	ID          string    `json:"id" yaml:"id"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	Plain       string    `json:"plain" yaml:"plain"`
	Length      int       `json:"length" yaml:"length"`
	Attachments int       `json:"attachments" yaml:"attachments"`
	RTFSize     int       `json:"rtf_size" yaml:"rtf_size"`
	RTFDSize    int       `json:"rtfd_size" yaml:"rtfd_size"`

	RTF  []byte `json:"-" yaml:"-"`
	RTFD []byte `json:"-" yaml:"-"`
}

// Item rebuilds the clipboard item the entry was recorded from.
func (e *Entry) Item() *clipboard.Item {
	return &clipboard.Item{RTFD: e.RTFD, RTF: e.RTF, Plain: e.Plain}
}

type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.HistoryError(fmt.Errorf("failed to create history directory: %w", err))
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.HistoryError(fmt.Errorf("failed to open database: %w", err))
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, errors.HistoryError(fmt.Errorf("failed to initialize database: %w", err))
	}

	return s, nil
}

func (s *Store) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			plain TEXT NOT NULL,
			rtf BLOB,
			rtfd BLOB,
			doc_length INTEGER NOT NULL,
			attachments INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries(created_at)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores item. length and attachments describe the source document.
func (s *Store) Record(item *clipboard.Item, length, attachments int) (Entry, error) {
	e := Entry{
		ID:          uuid.New().String(),
		CreatedAt:   time.Now().UTC(),
		Plain:       item.Plain,
		Length:      length,
		Attachments: attachments,
		RTF:         item.RTF,
		RTFD:        item.RTFD,
		RTFSize:     len(item.RTF),
		RTFDSize:    len(item.RTFD),
	}

	_, err := s.db.Exec(`
		INSERT INTO entries (id, created_at, plain, rtf, rtfd, doc_length, attachments)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.CreatedAt, e.Plain, nullBlob(e.RTF), nullBlob(e.RTFD), e.Length, e.Attachments)
	if err != nil {
		return Entry{}, errors.HistoryError(fmt.Errorf("failed to insert entry: %w", err))
	}

	logger.Debug().Str("id", e.ID).Int("rtfd_bytes", e.RTFDSize).Int("rtf_bytes", e.RTFSize).Msg("Recorded copy")
	return e, nil
}

// List returns the newest entries first, at most limit of them (all when
// limit <= 0). Payload bytes are not loaded.
func (s *Store) List(limit int) ([]Entry, error) {
	query := selectEntries + ` ORDER BY rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.HistoryError(fmt.Errorf("failed to query entries: %w", err))
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var rtfSize, rtfdSize sql.NullInt64
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.Plain, &e.Length, &e.Attachments, &rtfSize, &rtfdSize); err != nil {
			return nil, errors.HistoryError(fmt.Errorf("failed to scan entry: %w", err))
		}
		e.RTFSize, e.RTFDSize = int(rtfSize.Int64), int(rtfdSize.Int64)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.HistoryError(err)
	}

	return entries, nil
}

// Get loads one entry with its payloads. id may be a unique prefix of at
// least four characters.
func (s *Store) Get(id string) (*Entry, error) {
	id = strings.TrimSpace(id)
	if len(id) < minPrefix {
		return nil, errors.ValidationError(fmt.Sprintf("history id %q is too short, give at least %d characters", id, minPrefix))
	}

	rows, err := s.db.Query(`SELECT id, created_at, plain, doc_length, attachments, rtf, rtfd
		FROM entries WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY rowid DESC LIMIT 2`, id, escapeLike(id)+"%")
	if err != nil {
		return nil, errors.HistoryError(fmt.Errorf("failed to query entry: %w", err))
	}
	defer rows.Close()

	var found []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.Plain, &e.Length, &e.Attachments, &e.RTF, &e.RTFD); err != nil {
			return nil, errors.HistoryError(fmt.Errorf("failed to scan entry: %w", err))
		}
		e.RTFSize, e.RTFDSize = len(e.RTF), len(e.RTFD)
		found = append(found, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.HistoryError(err)
	}

	switch len(found) {
	case 0:
		return nil, errors.NotFoundError("history entry " + id)
	case 1:
		return &found[0], nil
	default:
		for i := range found {
			if found[i].ID == id {
				return &found[i], nil
			}
		}
		return nil, errors.ValidationError(fmt.Sprintf("history id prefix %q is ambiguous", id))
	}
}

// Delete removes the entry with exactly this id.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return errors.HistoryError(fmt.Errorf("failed to delete entry: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFoundError("history entry " + id)
	}
	return nil
}

// Clear removes every entry and returns how many there were.
func (s *Store) Clear() (int, error) {
	res, err := s.db.Exec(`DELETE FROM entries`)
	if err != nil {
		return 0, errors.HistoryError(fmt.Errorf("failed to clear history: %w", err))
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Prune keeps the newest maxEntries entries. maxEntries <= 0 keeps all.
func (s *Store) Prune(maxEntries int) (int, error) {
	if maxEntries <= 0 {
		return 0, nil
	}
	res, err := s.db.Exec(`DELETE FROM entries WHERE rowid NOT IN (
		SELECT rowid FROM entries ORDER BY rowid DESC LIMIT ?
	)`, maxEntries)
	if err != nil {
		return 0, errors.HistoryError(fmt.Errorf("failed to prune history: %w", err))
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		logger.Debug().Int64("removed", n).Int("kept", maxEntries).Msg("Pruned history")
	}
	return int(n), nil
}

// Count returns the number of stored entries.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, errors.HistoryError(fmt.Errorf("failed to count entries: %w", err))
	}
	return n, nil
}

func nullBlob(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
