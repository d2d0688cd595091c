package models

// Credit is a person (cast or crew) referenced by at least one movie or
// show season, keyed by TMDB person id.
type Credit struct {
	TmdbID  int    `json:"tmdbId"`
	Name    string `json:"name"`
	Profile string `json:"profile"`
}

// User is a library member. Watch state lives on the media records, keyed by
// the user name.
type User struct {
	Name string `json:"name"`
}
