// Package models defines the data structures used throughout the application.
package models

// Sentinel values kept on the wire for UI compatibility.
const (
	// UnsetID marks an entity not yet identified against TMDB.
	UnsetID = -1
	// UnsetAudience marks a record not yet classified by age rating.
	UnsetAudience = 999
)

// CastEntry references a person playing a character.
type CastEntry struct {
	TmdbID    int    `json:"tmdbId"`
	Character string `json:"character"`
}

// VideoStream describes the main video stream of a file.
type VideoStream struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Codec  string `json:"codec"`
}

// AudioTrack describes one audio track of a file.
type AudioTrack struct {
	Channels int    `json:"channels"`
	Codec    string `json:"codec"`
	Lang     string `json:"lang"`
}

// Movie represents one video file in the movies library, keyed by its
// relative path under the movies root.
type Movie struct {
	Filename      string       `json:"filename"`
	TmdbID        int          `json:"tmdbId"`
	Title         string       `json:"title"`
	OriginalTitle string       `json:"originalTitle"`
	Year          int          `json:"year"`
	Duration      int          `json:"duration"` // seconds
	Directors     []int        `json:"directors"`
	Writers       []int        `json:"writers"`
	Cast          []CastEntry  `json:"cast"`
	Genres        []string     `json:"genres"`
	Countries     []string     `json:"countries"`
	Audience      int          `json:"audience"`
	Synopsis      string       `json:"synopsis"`
	Poster        string       `json:"poster"`
	Backdrop      string       `json:"backdrop"`
	Rating        float64      `json:"rating,omitempty"`
	RatingTs      string       `json:"ratingTs,omitempty"`
	CreatedAt     string       `json:"created"` // RFC 3339, from file birth time
	FileSize      int64        `json:"filesize"`
	Video         VideoStream  `json:"video"`
	Audio         []AudioTrack `json:"audio"`
	Subtitles     []string     `json:"subtitles"`
	UserStatuses  []UserStatus `json:"userStatus"`
}

// NewMovie returns a blank movie shell for a freshly discovered file.
func NewMovie(filename string) *Movie {
	return &Movie{
		Filename:     filename,
		TmdbID:       UnsetID,
		Year:         UnsetID,
		Duration:     UnsetID,
		Audience:     UnsetAudience,
		Directors:    []int{},
		Writers:      []int{},
		Cast:         []CastEntry{},
		Genres:       []string{},
		Countries:    []string{},
		Audio:        []AudioTrack{},
		Subtitles:    []string{},
		UserStatuses: []UserStatus{},
	}
}

// CreditIDs returns every person id referenced by the movie.
func (m *Movie) CreditIDs() []int {
	ids := make([]int, 0, len(m.Directors)+len(m.Writers)+len(m.Cast))
	ids = append(ids, m.Directors...)
	ids = append(ids, m.Writers...)
	for _, c := range m.Cast {
		ids = append(ids, c.TmdbID)
	}
	return ids
}
