/*
Package store keeps converted bundles in a SQLite database keyed by the SHA-1
of the image they were converted from and the settings used to convert it, so
that unchanged images need not be converted again.
*/
package store

import (
	"crypto/sha1"
	"database/sql"
	"fmt"
	"io"

	_ "github.com/mattn/go-sqlite3" // register sqlite3 driver
)

// Tileset describes a stored bundle.
type Tileset struct {
	ID   int64
	Name string
	SHA1 string
	Size int
}

// Store is a database of bundles.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database in file.
func Open(file string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS tileset (id INTEGER PRIMARY KEY NOT NULL, name TEXT NOT NULL, sha1 TEXT NOT NULL UNIQUE, bundle BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE INDEX IF NOT EXISTS tileset_name ON tileset (name)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db: db,
	}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SHA1 returns the hex encoded SHA-1 of everything read from r.
func SHA1(r io.Reader) (string, error) {
	h := sha1.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return fmt.Sprintf("%X", h.Sum(nil)), nil
}

// Key returns the SHA-1 of data followed by the printed form of each of
// settings. The same image converted with different settings gets a
// different key.
func Key(data []byte, settings ...interface{}) string {
	h := sha1.New()
	h.Write(data)
	for _, v := range settings {
		fmt.Fprintf(h, "\x00%+v", v)
	}
	return fmt.Sprintf("%X", h.Sum(nil))
}

// Put stores a bundle under name. If a bundle with the same key already
// exists its id is returned and nothing is changed.
func (s *Store) Put(name, sha string, bundle []byte) (int64, error) {
	var id int64
	switch err := s.db.QueryRow("SELECT id FROM tileset WHERE sha1 = ?", sha).Scan(&id); err {
	case sql.ErrNoRows:
		result, err := s.db.Exec("INSERT INTO tileset (name, sha1, bundle) VALUES (?, ?, ?)", name, sha, bundle)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case nil:
		return id, nil
	default:
		return 0, err
	}
}

func (s *Store) find(query string, arg interface{}) ([]byte, error) {
	var bundle []byte
	switch err := s.db.QueryRow(query, arg).Scan(&bundle); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return bundle, nil
	default:
		return nil, err
	}
}

// FindBySHA1 returns the bundle converted from the source with the given
// SHA-1, or nil if there isn't one.
func (s *Store) FindBySHA1(sha string) ([]byte, error) {
	return s.find("SELECT bundle FROM tileset WHERE sha1 = ?", sha)
}

// FindByName returns the most recently stored bundle with the given name, or
// nil if there isn't one.
func (s *Store) FindByName(name string) ([]byte, error) {
	return s.find("SELECT bundle FROM tileset WHERE name = ? ORDER BY id DESC LIMIT 1", name)
}

// List returns every stored bundle ordered by name.
func (s *Store) List() ([]Tileset, error) {
	rows, err := s.db.Query("SELECT id, name, sha1, length(bundle) FROM tileset ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tilesets []Tileset
	for rows.Next() {
		var t Tileset
		if err := rows.Scan(&t.ID, &t.Name, &t.SHA1, &t.Size); err != nil {
			return nil, err
		}
		tilesets = append(tilesets, t)
	}
	return tilesets, rows.Err()
}
