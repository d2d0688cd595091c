package scanner

import (
	"errors"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"videotheque/models"
	"videotheque/repository"
)

const (
	maxCrew = 5
	maxCast = 20
)

// Image size variants, one folder per kind.
const (
	posterSize   = "w342"
	backdropSize = "w1280"
	stillSize    = "w300"
	profileSize  = "w185"
)

const sagaMarker = "[saga]"

// IsSagaFolder reports whether a show folder is flagged as a movie
// collection rather than an episodic series.
func IsSagaFolder(name string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(name)), sagaMarker)
}

func searchTitle(foldername string) string {
	name := strings.TrimSpace(foldername)
	if IsSagaFolder(name) {
		name = strings.TrimSpace(name[:len(name)-len(sagaMarker)])
	}
	return name
}

// identifyMovie resolves a freshly discovered file against the provider
// using hints parsed from its filename. No candidate is not an error: the
// record simply stays unidentified.
func (s *Scanner) identifyMovie(movie *models.Movie) error {
	guess := GuessMovie(movie.Filename)

	tmdbID := guess.TmdbID
	if tmdbID == 0 {
		if guess.Title == "" {
			return nil
		}
		candidates, err := s.provider.SearchMovie(guess.Title, guess.Year)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			return nil
		}
		tmdbID = candidates[0].TmdbID
	}

	info, err := s.provider.MovieDetails(tmdbID)
	if err != nil {
		return err
	}
	s.applyMovieInfo(movie, info)
	return nil
}

func (s *Scanner) applyMovieInfo(movie *models.Movie, info *models.MovieInfo) {
	movie.TmdbID = info.TmdbID
	movie.Title = info.Title
	movie.OriginalTitle = info.OriginalTitle
	if info.Year > 0 {
		movie.Year = info.Year
	}
	movie.Synopsis = info.Synopsis
	movie.Genres = info.Genres
	movie.Countries = info.Countries
	movie.Audience = MovieAudience(info.Certifications, movie.Audience)
	if info.VoteCount > 0 {
		movie.Rating = info.VoteAverage
		movie.RatingTs = time.Now().Format(time.RFC3339)
	}

	directors := capPeople(info.Directors, maxCrew)
	writers := capPeople(info.Writers, maxCrew)
	cast := capPeople(info.Cast, maxCast)

	movie.Directors = personIDs(directors)
	movie.Writers = personIDs(writers)
	movie.Cast = castEntries(cast)

	movie.Poster = s.downloadImage(info.PosterPath, posterSize, "posters")
	movie.Backdrop = s.downloadImage(info.BackdropPath, backdropSize, "backdrops")

	for _, p := range directors {
		s.addCredit(p)
	}
	for _, p := range writers {
		s.addCredit(p)
	}
	for _, p := range cast {
		s.addCredit(p)
	}
}

// identifyShow resolves a freshly discovered folder against the provider,
// using the collection endpoints for saga folders and the TV endpoints
// otherwise.
func (s *Scanner) identifyShow(show *models.Show) error {
	title := searchTitle(show.Foldername)
	if title == "" {
		return nil
	}

	var (
		candidates []models.ShowInfo
		err        error
	)
	if show.Saga {
		candidates, err = s.provider.SearchCollection(title)
	} else {
		candidates, err = s.provider.SearchTV(title)
	}
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return nil
	}

	var info *models.ShowInfo
	if show.Saga {
		info, err = s.provider.CollectionDetails(candidates[0].TmdbID)
	} else {
		info, err = s.provider.TVDetails(candidates[0].TmdbID)
	}
	if err != nil {
		return err
	}
	s.applyShowInfo(show, info)
	return nil
}

func (s *Scanner) applyShowInfo(show *models.Show, info *models.ShowInfo) {
	show.TmdbID = info.TmdbID
	show.Title = info.Title
	show.OriginalTitle = info.OriginalTitle
	show.Synopsis = info.Synopsis
	show.Genres = info.Genres
	show.Countries = info.Countries
	show.Audience = ShowAudience(info.Ratings, show.Audience)
	show.Poster = s.downloadImage(info.PosterPath, posterSize, "posters")
	show.Backdrop = s.downloadImage(info.BackdropPath, backdropSize, "backdrops")
}

// enrichEpisode is best-effort: a failed lookup leaves the episode
// unidentified but playable.
func (s *Scanner) enrichEpisode(show *models.Show, ep *models.Episode, guess EpisodeGuess) {
	info, err := s.provider.EpisodeDetails(show.TmdbID, guess.Season, guess.Episodes[0])
	if err != nil {
		log.Printf("Failed to identify episode %q of show %q: %v", ep.Filename, show.Foldername, err)
		return
	}
	ep.TmdbID = info.TmdbID
	ep.Title = info.Title
	ep.AirDate = info.AirDate
	ep.Synopsis = info.Synopsis
	ep.Still = s.downloadImage(info.StillPath, stillSize, "stills")
}

// addSeason is best-effort in the same way as enrichEpisode.
func (s *Scanner) addSeason(show *models.Show, number int) {
	info, err := s.provider.SeasonDetails(show.TmdbID, number)
	if err != nil {
		log.Printf("Failed to fetch season %d of show %q: %v", number, show.Foldername, err)
		return
	}

	season := models.Season{
		SeasonNumber: number,
		TmdbID:       info.TmdbID,
		EpisodeCount: info.EpisodeCount,
		Year:         info.Year,
		Synopsis:     info.Synopsis,
		Poster:       s.downloadImage(info.PosterPath, posterSize, "posters"),
		Cast:         []models.CastEntry{},
	}
	for _, p := range capPeople(info.Cast, maxCast) {
		season.Cast = append(season.Cast, models.CastEntry{TmdbID: p.TmdbID, Character: p.Character})
		s.addCredit(p)
	}
	show.Seasons = append(show.Seasons, season)
}

// addCredit inserts the person once, downloading its profile image the
// first time it is referenced.
func (s *Scanner) addCredit(p models.PersonInfo) {
	if p.TmdbID <= 0 {
		return
	}
	exists, err := s.credits.Exists(p.TmdbID)
	if err != nil {
		log.Printf("Failed to check credit %d: %v", p.TmdbID, err)
		return
	}
	if exists {
		return
	}

	credit := &models.Credit{
		TmdbID:  p.TmdbID,
		Name:    p.Name,
		Profile: s.downloadImage(p.ProfilePath, profileSize, "profiles"),
	}
	if err := s.credits.Insert(credit); err != nil && !errors.Is(err, repository.ErrConflict) {
		log.Printf("Failed to store credit %d: %v", p.TmdbID, err)
	}
}

// downloadImage caches a provider image under images/<kind>/<size>/ and
// returns its relative path, or "" when there is nothing to fetch or the
// download failed.
func (s *Scanner) downloadImage(remotePath, size, kind string) string {
	if remotePath == "" {
		return ""
	}
	rel := path.Join(kind, size, path.Base(remotePath))
	dest := filepath.Join(s.cfg.ImagesPath, filepath.FromSlash(rel))
	if _, err := os.Stat(dest); err == nil {
		return rel
	}
	if err := s.provider.DownloadImage(remotePath, size, dest); err != nil {
		log.Printf("Failed to download image %s: %v", remotePath, err)
		return ""
	}
	return rel
}

func (s *Scanner) unlinkMovieImages(m *models.Movie) {
	s.unlinkImage(m.Poster)
	s.unlinkImage(m.Backdrop)
}

func (s *Scanner) unlinkImage(rel string) {
	if rel == "" {
		return
	}
	if err := os.Remove(filepath.Join(s.cfg.ImagesPath, filepath.FromSlash(rel))); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to unlink image %s: %v", rel, err)
	}
}

func capPeople(people []models.PersonInfo, max int) []models.PersonInfo {
	if len(people) > max {
		return people[:max]
	}
	return people
}

func personIDs(people []models.PersonInfo) []int {
	ids := make([]int, 0, len(people))
	for _, p := range people {
		ids = append(ids, p.TmdbID)
	}
	return ids
}

func castEntries(people []models.PersonInfo) []models.CastEntry {
	entries := make([]models.CastEntry, 0, len(people))
	for _, p := range people {
		entries = append(entries, models.CastEntry{TmdbID: p.TmdbID, Character: p.Character})
	}
	return entries
}
