// Package services provides external service integrations.
package services

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"videotheque/models"
)

const (
	tmdbAPIBase   = "https://api.themoviedb.org/3"
	tmdbImageBase = "https://image.tmdb.org/t/p"
)

// TMDBService handles interactions with The Movie Database API
type TMDBService struct {
	apiKey string
	client *http.Client
}

// NewTMDBService creates a new TMDB service instance
func NewTMDBService(apiKey string) *TMDBService {
	return &TMDBService{
		apiKey: apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type tmdbGenre struct {
	Name string `json:"name"`
}

type tmdbCountry struct {
	Name string `json:"name"`
}

type tmdbPerson struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	Job         string `json:"job"`
	Department  string `json:"department"`
	ProfilePath string `json:"profile_path"`
}

type tmdbMovie struct {
	ID                  int           `json:"id"`
	Title               string        `json:"title"`
	OriginalTitle       string        `json:"original_title"`
	Overview            string        `json:"overview"`
	ReleaseDate         string        `json:"release_date"`
	PosterPath          string        `json:"poster_path"`
	BackdropPath        string        `json:"backdrop_path"`
	VoteAverage         float64       `json:"vote_average"`
	VoteCount           int           `json:"vote_count"`
	Genres              []tmdbGenre   `json:"genres"`
	ProductionCountries []tmdbCountry `json:"production_countries"`
	Credits             struct {
		Cast []tmdbPerson `json:"cast"`
		Crew []tmdbPerson `json:"crew"`
	} `json:"credits"`
	ReleaseDates struct {
		Results []struct {
			ISO31661     string `json:"iso_3166_1"`
			ReleaseDates []struct {
				Certification string `json:"certification"`
			} `json:"release_dates"`
		} `json:"results"`
	} `json:"release_dates"`
}

type tmdbShow struct {
	ID                  int           `json:"id"`
	Name                string        `json:"name"`
	OriginalName        string        `json:"original_name"`
	Overview            string        `json:"overview"`
	PosterPath          string        `json:"poster_path"`
	BackdropPath        string        `json:"backdrop_path"`
	Genres              []tmdbGenre   `json:"genres"`
	ProductionCountries []tmdbCountry `json:"production_countries"`
	ContentRatings      struct {
		Results []struct {
			ISO31661 string `json:"iso_3166_1"`
			Rating   string `json:"rating"`
		} `json:"results"`
	} `json:"content_ratings"`
}

type tmdbCollection struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	PosterPath   string `json:"poster_path"`
	BackdropPath string `json:"backdrop_path"`
}

type tmdbSeason struct {
	ID       int    `json:"id"`
	AirDate  string `json:"air_date"`
	Overview string `json:"overview"`
	Poster   string `json:"poster_path"`
	Episodes []struct {
		ID int `json:"id"`
	} `json:"episodes"`
	Credits struct {
		Cast []tmdbPerson `json:"cast"`
	} `json:"credits"`
}

type tmdbEpisode struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	AirDate   string `json:"air_date"`
	Overview  string `json:"overview"`
	StillPath string `json:"still_path"`
}

// get fetches a TMDB endpoint and decodes the JSON response into out.
func (t *TMDBService) get(endpoint string, params url.Values, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", t.apiKey)

	resp, err := t.client.Get(fmt.Sprintf("%s%s?%s", tmdbAPIBase, endpoint, params.Encode()))
	if err != nil {
		return fmt.Errorf("failed to fetch %s from TMDB: %w", endpoint, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("TMDB API returned status %d for %s", resp.StatusCode, endpoint)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode TMDB response: %w", err)
	}
	return nil
}

// SearchMovie searches movies by title, optionally narrowed by release year.
func (t *TMDBService) SearchMovie(title string, year int) ([]models.MovieInfo, error) {
	params := url.Values{}
	params.Set("query", title)
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}

	var result struct {
		Results []tmdbMovie `json:"results"`
	}
	if err := t.get("/search/movie", params, &result); err != nil {
		return nil, err
	}

	infos := make([]models.MovieInfo, 0, len(result.Results))
	for _, m := range result.Results {
		infos = append(infos, models.MovieInfo{TmdbID: m.ID, Title: m.Title, Year: parseYear(m.ReleaseDate)})
	}
	return infos, nil
}

// MovieDetails fetches full movie details including credits and
// certifications.
func (t *TMDBService) MovieDetails(tmdbID int) (*models.MovieInfo, error) {
	params := url.Values{}
	params.Set("append_to_response", "credits,release_dates")

	var m tmdbMovie
	if err := t.get(fmt.Sprintf("/movie/%d", tmdbID), params, &m); err != nil {
		return nil, err
	}

	info := &models.MovieInfo{
		TmdbID:        m.ID,
		Title:         m.Title,
		OriginalTitle: m.OriginalTitle,
		Year:          parseYear(m.ReleaseDate),
		Synopsis:      m.Overview,
		VoteAverage:   m.VoteAverage,
		VoteCount:     m.VoteCount,
		PosterPath:    m.PosterPath,
		BackdropPath:  m.BackdropPath,
	}
	for _, g := range m.Genres {
		info.Genres = append(info.Genres, g.Name)
	}
	for _, c := range m.ProductionCountries {
		info.Countries = append(info.Countries, c.Name)
	}
	for _, p := range m.Credits.Cast {
		info.Cast = append(info.Cast, personInfo(p))
	}
	for _, p := range m.Credits.Crew {
		switch p.Job {
		case "Director":
			info.Directors = append(info.Directors, personInfo(p))
		case "Screenplay", "Writer":
			info.Writers = append(info.Writers, personInfo(p))
		}
	}
	for _, r := range m.ReleaseDates.Results {
		for _, d := range r.ReleaseDates {
			if d.Certification != "" {
				info.Certifications = append(info.Certifications, models.CountryCert{
					Country: r.ISO31661,
					Code:    d.Certification,
				})
			}
		}
	}
	return info, nil
}

// SearchTV searches TV shows by title.
func (t *TMDBService) SearchTV(title string) ([]models.ShowInfo, error) {
	params := url.Values{}
	params.Set("query", title)

	var result struct {
		Results []tmdbShow `json:"results"`
	}
	if err := t.get("/search/tv", params, &result); err != nil {
		return nil, err
	}

	infos := make([]models.ShowInfo, 0, len(result.Results))
	for _, s := range result.Results {
		infos = append(infos, models.ShowInfo{TmdbID: s.ID, Title: s.Name})
	}
	return infos, nil
}

// SearchCollection searches movie collections by title, for saga folders.
func (t *TMDBService) SearchCollection(title string) ([]models.ShowInfo, error) {
	params := url.Values{}
	params.Set("query", title)

	var result struct {
		Results []tmdbCollection `json:"results"`
	}
	if err := t.get("/search/collection", params, &result); err != nil {
		return nil, err
	}

	infos := make([]models.ShowInfo, 0, len(result.Results))
	for _, c := range result.Results {
		infos = append(infos, models.ShowInfo{TmdbID: c.ID, Title: c.Name})
	}
	return infos, nil
}

// TVDetails fetches full show details including content ratings.
func (t *TMDBService) TVDetails(tmdbID int) (*models.ShowInfo, error) {
	params := url.Values{}
	params.Set("append_to_response", "content_ratings")

	var s tmdbShow
	if err := t.get(fmt.Sprintf("/tv/%d", tmdbID), params, &s); err != nil {
		return nil, err
	}

	info := &models.ShowInfo{
		TmdbID:        s.ID,
		Title:         s.Name,
		OriginalTitle: s.OriginalName,
		Synopsis:      s.Overview,
		PosterPath:    s.PosterPath,
		BackdropPath:  s.BackdropPath,
	}
	for _, g := range s.Genres {
		info.Genres = append(info.Genres, g.Name)
	}
	for _, c := range s.ProductionCountries {
		info.Countries = append(info.Countries, c.Name)
	}
	for _, r := range s.ContentRatings.Results {
		if r.Rating != "" {
			info.Ratings = append(info.Ratings, models.CountryCert{Country: r.ISO31661, Code: r.Rating})
		}
	}
	return info, nil
}

// CollectionDetails fetches movie collection details, for saga folders.
func (t *TMDBService) CollectionDetails(tmdbID int) (*models.ShowInfo, error) {
	var c tmdbCollection
	if err := t.get(fmt.Sprintf("/collection/%d", tmdbID), nil, &c); err != nil {
		return nil, err
	}
	return &models.ShowInfo{
		TmdbID:       c.ID,
		Title:        c.Name,
		Synopsis:     c.Overview,
		PosterPath:   c.PosterPath,
		BackdropPath: c.BackdropPath,
	}, nil
}

// SeasonDetails fetches one season of a show including its credits.
func (t *TMDBService) SeasonDetails(showID, season int) (*models.SeasonInfo, error) {
	params := url.Values{}
	params.Set("append_to_response", "credits")

	var s tmdbSeason
	if err := t.get(fmt.Sprintf("/tv/%d/season/%d", showID, season), params, &s); err != nil {
		return nil, err
	}

	info := &models.SeasonInfo{
		TmdbID:       s.ID,
		EpisodeCount: len(s.Episodes),
		Year:         parseYear(s.AirDate),
		Synopsis:     s.Overview,
		PosterPath:   s.Poster,
	}
	for _, p := range s.Credits.Cast {
		info.Cast = append(info.Cast, personInfo(p))
	}
	return info, nil
}

// EpisodeDetails fetches one episode of a show.
func (t *TMDBService) EpisodeDetails(showID, season, episode int) (*models.EpisodeInfo, error) {
	var e tmdbEpisode
	if err := t.get(fmt.Sprintf("/tv/%d/season/%d/episode/%d", showID, season, episode), nil, &e); err != nil {
		return nil, err
	}
	return &models.EpisodeInfo{
		TmdbID:    e.ID,
		Title:     e.Name,
		AirDate:   e.AirDate,
		Synopsis:  e.Overview,
		StillPath: e.StillPath,
	}, nil
}

// DownloadImage fetches an image from the TMDB image CDN at the given size
// variant and writes it to dest, creating parent folders as needed.
func (t *TMDBService) DownloadImage(remotePath, size, dest string) error {
	resp, err := t.client.Get(fmt.Sprintf("%s/%s%s", tmdbImageBase, size, remotePath))
	if err != nil {
		return fmt.Errorf("failed to download image %s: %w", remotePath, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image download returned status %d for %s", resp.StatusCode, remotePath)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create image folder: %w", err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Failed to close image file: %v", err)
		}
	}()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}
	return nil
}

func personInfo(p tmdbPerson) models.PersonInfo {
	return models.PersonInfo{
		TmdbID:      p.ID,
		Name:        p.Name,
		Character:   p.Character,
		ProfilePath: p.ProfilePath,
	}
}

func parseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
