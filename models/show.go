package models

// Show represents a TV show (or a movie collection scanned as a "saga"),
// keyed by its folder name under the shows root. Seasons and episodes are
// owned value objects, not separate records.
type Show struct {
	Foldername    string           `json:"foldername"`
	TmdbID        int              `json:"tmdbId"`
	Title         string           `json:"title"`
	OriginalTitle string           `json:"originalTitle"`
	Synopsis      string           `json:"synopsis"`
	Genres        []string         `json:"genres"`
	Countries     []string         `json:"countries"`
	Audience      int              `json:"audience"`
	Poster        string           `json:"poster"`
	Backdrop      string           `json:"backdrop"`
	Saga          bool             `json:"saga"`
	Seasons       []Season         `json:"seasons"`
	Episodes      []Episode        `json:"episodes"`
	UserStatuses  []ShowUserStatus `json:"userStatus"`

	// Derived from the surviving episodes on every scan.
	CreatedMin string `json:"createdMin"`
	CreatedMax string `json:"createdMax"`
	AirDateMin string `json:"airDateMin"`
	AirDateMax string `json:"airDateMax"`
}

// ShowUserStatus is the reduced per-user record kept on shows: status only,
// position and seen history live on the episodes.
type ShowUserStatus struct {
	UserName string      `json:"userName"`
	Status   WatchStatus `json:"currentStatus"`
}

// Season carries provider metadata for one season of a show. EpisodeCount is
// what the provider reports, not the number of files owned.
type Season struct {
	SeasonNumber int         `json:"seasonNumber"`
	TmdbID       int         `json:"tmdbId"`
	EpisodeCount int         `json:"episodeCount"`
	Year         int         `json:"year"`
	Synopsis     string      `json:"synopsis"`
	Poster       string      `json:"poster"`
	Cast         []CastEntry `json:"cast"`
}

// Episode represents one video file inside a show folder. A single file may
// cover several episode numbers (double episodes).
type Episode struct {
	Filename     string       `json:"filename"`
	TmdbID       int          `json:"tmdbId"`
	Season       int          `json:"season"`
	Episodes     []int        `json:"episodes"`
	Title        string       `json:"title"`
	AirDate      string       `json:"airDate"`
	Synopsis     string       `json:"synopsis"`
	Still        string       `json:"still"`
	Duration     int          `json:"duration"`
	CreatedAt    string       `json:"created"`
	FileSize     int64        `json:"filesize"`
	Video        VideoStream  `json:"video"`
	Audio        []AudioTrack `json:"audio"`
	Subtitles    []string     `json:"subtitles"`
	UserStatuses []UserStatus `json:"userStatus"`
}

// NewShow returns a blank show shell for a freshly discovered folder.
func NewShow(foldername string, saga bool) *Show {
	return &Show{
		Foldername:   foldername,
		TmdbID:       UnsetID,
		Audience:     UnsetAudience,
		Saga:         saga,
		Genres:       []string{},
		Countries:    []string{},
		Seasons:      []Season{},
		Episodes:     []Episode{},
		UserStatuses: []ShowUserStatus{},
	}
}

// NewEpisode returns a blank episode shell for a freshly discovered file.
func NewEpisode(filename string) Episode {
	return Episode{
		Filename:     filename,
		TmdbID:       UnsetID,
		Season:       UnsetID,
		Duration:     UnsetID,
		Episodes:     []int{},
		Audio:        []AudioTrack{},
		Subtitles:    []string{},
		UserStatuses: []UserStatus{},
	}
}

// Season returns the season record with the given number, or nil.
func (s *Show) Season(number int) *Season {
	for i := range s.Seasons {
		if s.Seasons[i].SeasonNumber == number {
			return &s.Seasons[i]
		}
	}
	return nil
}

// Episode returns the episode record with the given filename, or nil.
func (s *Show) Episode(filename string) *Episode {
	for i := range s.Episodes {
		if s.Episodes[i].Filename == filename {
			return &s.Episodes[i]
		}
	}
	return nil
}

// RecomputeDerived refreshes the created/air-date min and max fields from the
// current episode list. All fields are empty when the show owns no episodes.
func (s *Show) RecomputeDerived() {
	s.CreatedMin, s.CreatedMax = "", ""
	s.AirDateMin, s.AirDateMax = "", ""
	for _, ep := range s.Episodes {
		if ep.CreatedAt != "" {
			if s.CreatedMin == "" || ep.CreatedAt < s.CreatedMin {
				s.CreatedMin = ep.CreatedAt
			}
			if ep.CreatedAt > s.CreatedMax {
				s.CreatedMax = ep.CreatedAt
			}
		}
		if ep.AirDate != "" {
			if s.AirDateMin == "" || ep.AirDate < s.AirDateMin {
				s.AirDateMin = ep.AirDate
			}
			if ep.AirDate > s.AirDateMax {
				s.AirDateMax = ep.AirDate
			}
		}
	}
}

// SeasonCreditIDs returns every person id referenced by the show's seasons.
func (s *Show) SeasonCreditIDs() []int {
	var ids []int
	for _, season := range s.Seasons {
		for _, c := range season.Cast {
			ids = append(ids, c.TmdbID)
		}
	}
	return ids
}
