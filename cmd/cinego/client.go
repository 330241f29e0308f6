package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client wraps HTTP calls to the cinegod server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new cinegod API client.
func NewClient(serverURL string) *Client {
	return &Client{
		baseURL: serverURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError is the server's JSON error body.
type apiError struct {
	Error string `json:"error"`
}

func (c *Client) get(path string, result any) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var ae apiError
		if json.Unmarshal(body, &ae) == nil && ae.Error != "" {
			return fmt.Errorf("server error %d: %s", resp.StatusCode, ae.Error)
		}
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

// API response types (mirror server types)

type Movie struct {
	IMDBID   string `json:"imdbID"`
	Title    string `json:"title"`
	Year     string `json:"year"`
	Genre    string `json:"genre"`
	Plot     string `json:"plot"`
	Director string `json:"director"`
	Poster   string `json:"poster"`
	Rating   string `json:"imdbRating"`
}

type MoviesResponse struct {
	Movies []Movie `json:"movies"`
	Total  int     `json:"total"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Movies  int64  `json:"movies"`
	Uptime  string `json:"uptime"`
}

// SearchMovies looks up movies by title through the gateway.
func (c *Client) SearchMovies(query string) ([]Movie, error) {
	var movies []Movie
	if err := c.get("/search?query="+url.QueryEscape(query), &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// ListMovies returns what the gateway has cached.
func (c *Client) ListMovies(limit, offset int) (*MoviesResponse, error) {
	var resp MoviesResponse
	path := fmt.Sprintf("/api/movies?limit=%d&offset=%d", limit, offset)
	if err := c.get(path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status fetches daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get("/api/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
