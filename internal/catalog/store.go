package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Store provides access to movie records backed by SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new catalog store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// mapSQLiteError converts SQLite errors to custom error types.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	// modernc.org/sqlite wraps errors; check error message for constraint violations
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "PRIMARY KEY constraint failed") {
		return ErrDuplicate
	}
	if strings.Contains(errStr, "CHECK constraint failed") {
		return ErrConstraint
	}
	return err
}

const movieColumns = "id, imdb_id, title, year, genre, plot, director, poster, rating, fetched_at"

func scanMovie(scanner interface{ Scan(...any) error }) (*Movie, error) {
	m := &Movie{}
	err := scanner.Scan(&m.ID, &m.IMDBID, &m.Title, &m.Year, &m.Genre, &m.Plot, &m.Director, &m.Poster, &m.Rating, &m.FetchedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// escapeLike escapes LIKE metacharacters so term is matched literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// FindByTitle returns all records whose title contains term,
// case-insensitively, in insertion order. An empty term matches the
// full set; callers wanting non-empty input must validate first.
func (s *Store) FindByTitle(ctx context.Context, term string) ([]*Movie, error) {
	pattern := "%" + escapeLike(NormalizeTitle(term)) + "%"

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+movieColumns+" FROM movies WHERE title_norm LIKE ? ESCAPE '\\' ORDER BY id",
		pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("find by title: %w", mapSQLiteError(err))
	}
	defer func() { _ = rows.Close() }()

	var results []*Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movies: %w", err)
	}
	return results, nil
}

// GetByIMDBID retrieves one record by its IMDb id.
// Returns ErrNotFound if no record exists.
func (s *Store) GetByIMDBID(ctx context.Context, imdbID string) (*Movie, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+movieColumns+" FROM movies WHERE imdb_id = ?", imdbID,
	)
	m, err := scanMovie(row)
	if err != nil {
		return nil, fmt.Errorf("get movie %s: %w", imdbID, mapSQLiteError(err))
	}
	return m, nil
}

// Upsert inserts the record or, if a row with the same IMDb id already
// exists, replaces its content. The existing row keeps its id, so
// insertion order is stable across replacements. Sets ID and FetchedAt
// on the struct.
func (s *Store) Upsert(ctx context.Context, m *Movie) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO movies (imdb_id, title, title_norm, year, genre, plot, director, poster, rating, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(imdb_id) DO UPDATE SET
			title = excluded.title,
			title_norm = excluded.title_norm,
			year = excluded.year,
			genre = excluded.genre,
			plot = excluded.plot,
			director = excluded.director,
			poster = excluded.poster,
			rating = excluded.rating,
			fetched_at = excluded.fetched_at`,
		m.IMDBID, m.Title, NormalizeTitle(m.Title), m.Year, m.Genre, m.Plot, m.Director, m.Poster, m.Rating, now,
	)
	if err != nil {
		return fmt.Errorf("upsert movie %s: %w", m.IMDBID, mapSQLiteError(err))
	}

	// LastInsertId is meaningless on the conflict path; read the id back.
	if err := s.db.QueryRowContext(ctx,
		"SELECT id FROM movies WHERE imdb_id = ?", m.IMDBID,
	).Scan(&m.ID); err != nil {
		return fmt.Errorf("upsert movie %s: %w", m.IMDBID, mapSQLiteError(err))
	}
	m.FetchedAt = now
	return nil
}

// List returns stored records in insertion order with pagination.
// Returns (results, totalCount, error).
func (s *Store) List(ctx context.Context, limit, offset int) ([]*Movie, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movies: %w", err)
	}

	query := "SELECT " + movieColumns + " FROM movies ORDER BY id"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("list movies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan movie: %w", err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate movies: %w", err)
	}
	return results, total, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies").Scan(&n); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return n, nil
}

// Prune removes records fetched before cutoff.
// Returns the number of records removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM movies WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune movies: %w", err)
	}
	return result.RowsAffected()
}
