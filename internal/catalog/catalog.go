// Package catalog provides the durable movie record store.
package catalog

import (
	"time"
)

// Movie is one stored metadata record. The IMDb id is the natural key:
// the store never holds two rows for the same id, and upsert by id is
// the only mutation path.
type Movie struct {
	ID       int64  `json:"-"`
	IMDBID   string `json:"imdbID"`
	Title    string `json:"title"`
	Year     string `json:"year"`
	Genre    string `json:"genre"`
	Plot     string `json:"plot"`
	Director string `json:"director"`
	Poster   string `json:"poster"`
	Rating   string `json:"imdbRating"`

	FetchedAt time.Time `json:"-"`
}
