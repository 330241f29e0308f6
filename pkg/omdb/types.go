// Package omdb provides a client for the OMDb movie metadata API.
package omdb

// SearchResult is one candidate from a title search.
type SearchResult struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	IMDBID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

// searchResponse is the envelope for the ?s= search call.
// Response is the string "True" or "False"; Error is set on "False".
type searchResponse struct {
	Search       []SearchResult `json:"Search"`
	TotalResults string         `json:"totalResults"`
	Response     string         `json:"Response"`
	Error        string         `json:"Error"`
}

// Movie is the full per-title detail record from the ?i= call.
// OMDb reports missing values as the literal string "N/A".
type Movie struct {
	Title    string `json:"Title"`
	Year     string `json:"Year"`
	Genre    string `json:"Genre"`
	Plot     string `json:"Plot"`
	Director string `json:"Director"`
	Poster   string `json:"Poster"`
	Rating   string `json:"imdbRating"`
	IMDBID   string `json:"imdbID"`
	Response string `json:"Response"`
	Error    string `json:"Error"`
}
