package models

import "time"

// Types exchanged with the metadata provider and the file prober. The
// scanner consumes these through interfaces so tests can fake both.

// CountryCert is one (country, certification code) pair from the provider.
type CountryCert struct {
	Country string
	Code    string
}

// PersonInfo is a cast or crew member as the provider reports them.
type PersonInfo struct {
	TmdbID      int
	Name        string
	Character   string
	ProfilePath string
}

// MovieInfo is the provider's view of a movie.
type MovieInfo struct {
	TmdbID         int
	Title          string
	OriginalTitle  string
	Year           int
	Synopsis       string
	Genres         []string
	Countries      []string
	Directors      []PersonInfo
	Writers        []PersonInfo
	Cast           []PersonInfo
	Certifications []CountryCert
	VoteAverage    float64
	VoteCount      int
	PosterPath     string
	BackdropPath   string
}

// ShowInfo is the provider's view of a show or a movie collection.
type ShowInfo struct {
	TmdbID        int
	Title         string
	OriginalTitle string
	Synopsis      string
	Genres        []string
	Countries     []string
	Ratings       []CountryCert
	PosterPath    string
	BackdropPath  string
}

// SeasonInfo is the provider's view of one season.
type SeasonInfo struct {
	TmdbID       int
	EpisodeCount int
	Year         int
	Synopsis     string
	PosterPath   string
	Cast         []PersonInfo
}

// EpisodeInfo is the provider's view of one episode.
type EpisodeInfo struct {
	TmdbID    int
	Title     string
	AirDate   string
	Synopsis  string
	StillPath string
}

// FileMetadata is the prober's view of a video file.
type FileMetadata struct {
	Duration  int // seconds
	FileSize  int64
	CreatedAt time.Time
	Video     VideoStream
	Audio     []AudioTrack
	Subtitles []string
}
