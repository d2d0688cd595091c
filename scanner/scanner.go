package scanner

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"videotheque/config"
	"videotheque/models"
	"videotheque/repository"
)

// MetadataProvider is the external movie/TV database the scanner identifies
// files against.
type MetadataProvider interface {
	SearchMovie(title string, year int) ([]models.MovieInfo, error)
	MovieDetails(tmdbID int) (*models.MovieInfo, error)
	SearchTV(title string) ([]models.ShowInfo, error)
	SearchCollection(title string) ([]models.ShowInfo, error)
	TVDetails(tmdbID int) (*models.ShowInfo, error)
	CollectionDetails(tmdbID int) (*models.ShowInfo, error)
	SeasonDetails(showID, season int) (*models.SeasonInfo, error)
	EpisodeDetails(showID, season, episode int) (*models.EpisodeInfo, error)
	DownloadImage(remotePath, size, dest string) error
}

// Prober extracts technical metadata from a video file.
type Prober interface {
	Probe(path string) (*models.FileMetadata, error)
}

// Scanner reconciles the catalog collections with the library folders on
// disk. Scans are not safe to run concurrently; the jobs.ScanManager
// serializes them.
type Scanner struct {
	cfg      *config.Config
	movies   *repository.MovieRepository
	shows    *repository.ShowRepository
	credits  *repository.CreditRepository
	provider MetadataProvider
	prober   Prober
}

// New creates a scanner over the given repositories and external services.
func New(cfg *config.Config, movies *repository.MovieRepository, shows *repository.ShowRepository,
	credits *repository.CreditRepository, provider MetadataProvider, prober Prober) *Scanner {
	return &Scanner{
		cfg:      cfg,
		movies:   movies,
		shows:    shows,
		credits:  credits,
		provider: provider,
		prober:   prober,
	}
}

// Load runs a full library scan: movies, then shows, then a credit
// garbage-collection pass over everything the scan left referenced.
func (s *Scanner) Load() error {
	started := time.Now()
	refs := make(map[int]bool)

	if err := s.ScanMovies(refs); err != nil {
		return fmt.Errorf("movie scan failed: %w", err)
	}
	if err := s.ScanShows(refs); err != nil {
		return fmt.Errorf("show scan failed: %w", err)
	}
	if err := s.collectCredits(refs); err != nil {
		return fmt.Errorf("credit cleanup failed: %w", err)
	}

	log.Printf("Library scan completed in %s", time.Since(started).Round(time.Millisecond))
	return nil
}

// ScanMovies brings the movie collection into agreement with the movies
// folder. Newly observed files are identified and inserted; records whose
// file vanished are removed with their images. Every credit id referenced
// by a surviving movie is folded into refs.
func (s *Scanner) ScanMovies(refs map[int]bool) error {
	observed, err := ListVideoFiles(s.cfg.MoviesPath)
	if err != nil {
		return err
	}
	observedSet := make(map[string]bool, len(observed))
	for _, f := range observed {
		observedSet[f] = true
	}

	stored, err := s.movies.GetAll()
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(stored))
	for _, m := range stored {
		known[m.Filename] = true
	}

	for _, f := range observed {
		if known[f] {
			continue
		}
		movie := models.NewMovie(f)
		if err := s.identifyMovie(movie); err != nil {
			return fmt.Errorf("failed to identify %q: %w", f, err)
		}
		meta, err := s.prober.Probe(filepath.Join(s.cfg.MoviesPath, filepath.FromSlash(f)))
		if err != nil {
			return fmt.Errorf("failed to probe %q: %w", f, err)
		}
		movie.Duration = meta.Duration
		movie.CreatedAt = meta.CreatedAt.Format(time.RFC3339)
		movie.FileSize = meta.FileSize
		movie.Video = meta.Video
		movie.Audio = meta.Audio
		movie.Subtitles = meta.Subtitles
		if err := s.movies.Insert(movie); err != nil {
			return err
		}
		log.Printf("Added movie %q (tmdb %d)", f, movie.TmdbID)
	}

	// Re-read so this pass sees its own inserts.
	stored, err = s.movies.GetAll()
	if err != nil {
		return err
	}
	for i := range stored {
		m := &stored[i]
		if observedSet[m.Filename] {
			for _, id := range m.CreditIDs() {
				refs[id] = true
			}
			continue
		}
		s.unlinkMovieImages(m)
		if err := s.movies.Remove(m.Filename); err != nil {
			return err
		}
		log.Printf("Removed movie %q", m.Filename)
	}

	return nil
}

// ScanShows brings the show collection into agreement with the shows
// folder, one top-level folder per show. Season cast ids of surviving
// seasons are folded into refs.
func (s *Scanner) ScanShows(refs map[int]bool) error {
	folders, err := ListTopLevelFolders(s.cfg.ShowsPath)
	if err != nil {
		return err
	}
	folderSet := make(map[string]bool, len(folders))
	for _, folder := range folders {
		folderSet[folder] = true
		if err := s.scanShowFolder(folder, refs); err != nil {
			return fmt.Errorf("failed to scan show %q: %w", folder, err)
		}
	}

	stored, err := s.shows.GetAll()
	if err != nil {
		return err
	}
	for i := range stored {
		if folderSet[stored[i].Foldername] {
			continue
		}
		if err := s.removeShow(&stored[i]); err != nil {
			return err
		}
	}

	return nil
}

func (s *Scanner) scanShowFolder(folder string, refs map[int]bool) error {
	show, err := s.shows.GetByFoldername(folder)
	if errors.Is(err, repository.ErrNotFound) {
		show = models.NewShow(folder, IsSagaFolder(folder))
		// A provider failure leaves the folder unstored so the next scan
		// retries identification. Only a clean no-candidates result is
		// cataloged unidentified.
		if err := s.identifyShow(show); err != nil {
			log.Printf("Failed to identify show %q, skipping folder until next scan: %v", folder, err)
			return nil
		}
		if err := s.shows.Insert(show); err != nil {
			return err
		}
		log.Printf("Added show %q (tmdb %d)", folder, show.TmdbID)
	} else if err != nil {
		return err
	}

	files, err := ListVideoFiles(filepath.Join(s.cfg.ShowsPath, folder))
	if err != nil {
		return err
	}
	fileSet := make(map[string]bool, len(files))
	for _, f := range files {
		fileSet[f] = true
		if show.Episode(f) != nil {
			continue
		}

		ep := models.NewEpisode(f)
		if guess, ok := ParseEpisode(f); ok {
			ep.Season = guess.Season
			ep.Episodes = guess.Episodes
			if show.TmdbID != models.UnsetID && !show.Saga {
				s.enrichEpisode(show, &ep, guess)
				if guess.Season > 0 && show.Season(guess.Season) == nil {
					s.addSeason(show, guess.Season)
				}
			}
		}

		meta, err := s.prober.Probe(filepath.Join(s.cfg.ShowsPath, folder, filepath.FromSlash(f)))
		if err != nil {
			return fmt.Errorf("failed to probe %q: %w", f, err)
		}
		ep.Duration = meta.Duration
		ep.CreatedAt = meta.CreatedAt.Format(time.RFC3339)
		ep.FileSize = meta.FileSize
		ep.Video = meta.Video
		ep.Audio = meta.Audio
		ep.Subtitles = meta.Subtitles

		show.Episodes = append(show.Episodes, ep)
	}

	// Drop episodes whose file vanished.
	surviving := make([]models.Episode, 0, len(show.Episodes))
	for _, ep := range show.Episodes {
		if fileSet[ep.Filename] {
			surviving = append(surviving, ep)
			continue
		}
		s.unlinkImage(ep.Still)
		log.Printf("Removed episode %q from show %q", ep.Filename, folder)
	}
	show.Episodes = surviving

	// A season survives only while at least one episode references it.
	alive := make(map[int]bool)
	for _, ep := range show.Episodes {
		if ep.Season > 0 {
			alive[ep.Season] = true
		}
	}
	seasons := make([]models.Season, 0, len(show.Seasons))
	for _, season := range show.Seasons {
		if alive[season.SeasonNumber] {
			seasons = append(seasons, season)
			continue
		}
		s.unlinkImage(season.Poster)
		log.Printf("Removed season %d from show %q", season.SeasonNumber, folder)
	}
	show.Seasons = seasons

	show.RecomputeDerived()
	for _, id := range show.SeasonCreditIDs() {
		refs[id] = true
	}

	// Written back regardless of whether anything changed.
	return s.shows.Update(show)
}

func (s *Scanner) removeShow(show *models.Show) error {
	s.unlinkImage(show.Poster)
	s.unlinkImage(show.Backdrop)
	for _, ep := range show.Episodes {
		s.unlinkImage(ep.Still)
	}
	for _, season := range show.Seasons {
		s.unlinkImage(season.Poster)
	}
	if err := s.shows.Remove(show.Foldername); err != nil {
		return err
	}
	log.Printf("Removed show %q", show.Foldername)
	return nil
}

// collectCredits deletes every credit no surviving movie or season
// references anymore.
func (s *Scanner) collectCredits(refs map[int]bool) error {
	credits, err := s.credits.GetAll()
	if err != nil {
		return err
	}
	for _, c := range credits {
		if refs[c.TmdbID] {
			continue
		}
		s.unlinkImage(c.Profile)
		if err := s.credits.Remove(c.TmdbID); err != nil {
			return err
		}
		log.Printf("Removed unreferenced credit %d (%s)", c.TmdbID, c.Name)
	}
	return nil
}

// FixMovieMetadata re-identifies a movie against an explicit TMDB id,
// clearing the previously fetched lists first.
func (s *Scanner) FixMovieMetadata(filename string, tmdbID int) error {
	movie, err := s.movies.GetByFilename(filename)
	if err != nil {
		return err
	}

	movie.Genres = []string{}
	movie.Countries = []string{}
	movie.Cast = []models.CastEntry{}
	movie.Directors = []int{}
	movie.Writers = []int{}

	info, err := s.provider.MovieDetails(tmdbID)
	if err != nil {
		return fmt.Errorf("failed to fetch movie %d: %w", tmdbID, err)
	}
	s.applyMovieInfo(movie, info)

	return s.movies.Update(movie)
}

// FixShowMetadata re-identifies a show against an explicit TMDB id and runs
// a show scan so episodes and seasons repopulate. Images orphaned by the
// cleared lists are left for the next full scan to collect.
func (s *Scanner) FixShowMetadata(foldername string, tmdbID int) error {
	show, err := s.shows.GetByFoldername(foldername)
	if err != nil {
		return err
	}

	show.Genres = []string{}
	show.Countries = []string{}
	show.Seasons = []models.Season{}
	show.Episodes = []models.Episode{}

	var info *models.ShowInfo
	if show.Saga {
		info, err = s.provider.CollectionDetails(tmdbID)
	} else {
		info, err = s.provider.TVDetails(tmdbID)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch show %d: %w", tmdbID, err)
	}
	s.applyShowInfo(show, info)

	if err := s.shows.Update(show); err != nil {
		return err
	}

	return s.ScanShows(make(map[int]bool))
}

// RenameMovie renames the file on disk and updates the stored record. The
// destination must not already exist.
func (s *Scanner) RenameMovie(filename, newFilename string) error {
	movie, err := s.movies.GetByFilename(filename)
	if err != nil {
		return err
	}

	src := filepath.Join(s.cfg.MoviesPath, filepath.FromSlash(filename))
	dest := filepath.Join(s.cfg.MoviesPath, filepath.FromSlash(newFilename))
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("destination %q already exists", newFilename)
	}
	if err := os.Rename(src, dest); err != nil {
		return fmt.Errorf("failed to rename %q: %w", filename, err)
	}

	movie.Filename = newFilename
	return s.movies.Rename(filename, movie)
}

// TrashMovie moves the file into the trash folder and removes the record.
// The record is removed even when the move fails.
func (s *Scanner) TrashMovie(filename string) error {
	movie, err := s.movies.GetByFilename(filename)
	if err != nil {
		return err
	}

	src := filepath.Join(s.cfg.MoviesPath, filepath.FromSlash(filename))
	if err := os.MkdirAll(s.cfg.TrashPath, 0o755); err != nil {
		log.Printf("Failed to create trash folder: %v", err)
	} else if err := os.Rename(src, filepath.Join(s.cfg.TrashPath, filepath.Base(filename))); err != nil {
		log.Printf("Failed to move %q to trash: %v", filename, err)
	}

	s.unlinkMovieImages(movie)
	return s.movies.Remove(filename)
}
