/*
Package store persists plants for the plant service in a SQLite database.
*/
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bodgit/forest/plant"
	_ "github.com/mattn/go-sqlite3" // database/sql driver
)

// memory opens a private in-memory database
const memory = ":memory:"

var errBadCount = errors.New("store: count must be positive")

// Store is a SQLite backed collection of plants
type Store struct {
	db *sql.DB
}

// New opens, creating if necessary, the database in file. ":memory:" opens a
// database that lasts until Close.
func New(file string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	if file == memory {
		// Every connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS plant (id INTEGER PRIMARY KEY NOT NULL, author TEXT NOT NULL, image_data TEXT NOT NULL, created_at TIMESTAMP NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db: db,
	}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Create stores p and returns it with its assigned ID. A zero CreatedAt is
// set to the current time.
func (s *Store) Create(ctx context.Context, p plant.Plant) (plant.Plant, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.CreatedAt = p.CreatedAt.UTC()

	query, args, err := sq.Insert("plant").
		Columns("author", "image_data", "created_at").
		Values(p.Author, p.ImageData, p.CreatedAt).
		ToSql()
	if err != nil {
		return plant.Plant{}, err
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return plant.Plant{}, fmt.Errorf("store: create: %w", err)
	}

	if p.ID, err = result.LastInsertId(); err != nil {
		return plant.Plant{}, fmt.Errorf("store: create: %w", err)
	}

	return p, nil
}

// Random returns up to count plants chosen at random
func (s *Store) Random(ctx context.Context, count int) ([]plant.Plant, error) {
	if count <= 0 {
		return nil, errBadCount
	}

	query, args, err := sq.Select("id", "author", "image_data", "created_at").
		From("plant").
		OrderBy("RANDOM()").
		Limit(uint64(count)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: random: %w", err)
	}
	defer rows.Close()

	plants := make([]plant.Plant, 0, count)
	for rows.Next() {
		var p plant.Plant
		if err := rows.Scan(&p.ID, &p.Author, &p.ImageData, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: random: %w", err)
		}
		p.CreatedAt = p.CreatedAt.UTC()
		plants = append(plants, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: random: %w", err)
	}

	return plants, nil
}

// Count returns the number of stored plants
func (s *Store) Count(ctx context.Context) (int, error) {
	query, args, err := sq.Select("COUNT(*)").From("plant").ToSql()
	if err != nil {
		return 0, err
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}
