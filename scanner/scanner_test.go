package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"videotheque/config"
	"videotheque/database"
	"videotheque/models"
	"videotheque/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider is an in-memory metadata provider. DownloadImage writes a
// real file so image unlinking can be observed.
type fakeProvider struct {
	searchResults  map[string]int // lowercased title -> tmdb id
	movieDetails   map[int]*models.MovieInfo
	showResults    map[string]int
	showDetails    map[int]*models.ShowInfo
	seasonDetails  map[string]*models.SeasonInfo
	episodeDetails map[string]*models.EpisodeInfo

	searchTVFailures int // SearchTV errors this many times before recovering

	movieDetailCalls   int
	episodeDetailCalls int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		searchResults:  map[string]int{},
		movieDetails:   map[int]*models.MovieInfo{},
		showResults:    map[string]int{},
		showDetails:    map[int]*models.ShowInfo{},
		seasonDetails:  map[string]*models.SeasonInfo{},
		episodeDetails: map[string]*models.EpisodeInfo{},
	}
}

func seasonKey(showID, season int) string           { return fmt.Sprintf("%d/%d", showID, season) }
func episodeKey(showID, season, episode int) string { return fmt.Sprintf("%d/%d/%d", showID, season, episode) }

func (f *fakeProvider) SearchMovie(title string, _ int) ([]models.MovieInfo, error) {
	if id, ok := f.searchResults[title]; ok {
		return []models.MovieInfo{{TmdbID: id, Title: title}}, nil
	}
	return nil, nil
}

func (f *fakeProvider) MovieDetails(tmdbID int) (*models.MovieInfo, error) {
	f.movieDetailCalls++
	if info, ok := f.movieDetails[tmdbID]; ok {
		return info, nil
	}
	return nil, fmt.Errorf("movie %d not found", tmdbID)
}

func (f *fakeProvider) SearchTV(title string) ([]models.ShowInfo, error) {
	if f.searchTVFailures > 0 {
		f.searchTVFailures--
		return nil, fmt.Errorf("provider unavailable")
	}
	if id, ok := f.showResults[title]; ok {
		return []models.ShowInfo{{TmdbID: id, Title: title}}, nil
	}
	return nil, nil
}

func (f *fakeProvider) SearchCollection(title string) ([]models.ShowInfo, error) {
	return f.SearchTV(title)
}

func (f *fakeProvider) TVDetails(tmdbID int) (*models.ShowInfo, error) {
	if info, ok := f.showDetails[tmdbID]; ok {
		return info, nil
	}
	return nil, fmt.Errorf("show %d not found", tmdbID)
}

func (f *fakeProvider) CollectionDetails(tmdbID int) (*models.ShowInfo, error) {
	return f.TVDetails(tmdbID)
}

func (f *fakeProvider) SeasonDetails(showID, season int) (*models.SeasonInfo, error) {
	if info, ok := f.seasonDetails[seasonKey(showID, season)]; ok {
		return info, nil
	}
	return nil, fmt.Errorf("season %d of show %d not found", season, showID)
}

func (f *fakeProvider) EpisodeDetails(showID, season, episode int) (*models.EpisodeInfo, error) {
	f.episodeDetailCalls++
	if info, ok := f.episodeDetails[episodeKey(showID, season, episode)]; ok {
		return info, nil
	}
	return nil, fmt.Errorf("episode %d/%d of show %d not found", season, episode, showID)
}

func (f *fakeProvider) DownloadImage(_, _, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte("img"), 0o644)
}

// fakeProber returns canned metadata, with per-path creation times when set.
type fakeProber struct {
	times map[string]time.Time
}

func (f *fakeProber) Probe(path string) (*models.FileMetadata, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	created := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	if t, ok := f.times[filepath.Base(path)]; ok {
		created = t
	}
	return &models.FileMetadata{
		Duration:  5400,
		FileSize:  1 << 30,
		CreatedAt: created,
		Video:     models.VideoStream{Width: 1920, Height: 1080, Codec: "h264"},
		Audio:     []models.AudioTrack{{Channels: 6, Codec: "ac3", Lang: "eng"}},
		Subtitles: []string{"eng"},
	}, nil
}

type scannerFixture struct {
	scanner  *Scanner
	cfg      *config.Config
	provider *fakeProvider
	prober   *fakeProber
	movies   *repository.MovieRepository
	shows    *repository.ShowRepository
	credits  *repository.CreditRepository
}

func setupScanner(t *testing.T) *scannerFixture {
	t.Helper()

	testDB, err := database.NewDB(":memory:")
	require.NoError(t, err)
	require.NoError(t, testDB.InitSchema())
	t.Cleanup(func() {
		if err := testDB.Close(); err != nil {
			t.Logf("Failed to close test database: %v", err)
		}
	})

	cfg := &config.Config{
		MoviesPath: t.TempDir(),
		ShowsPath:  t.TempDir(),
		ImagesPath: t.TempDir(),
		TrashPath:  filepath.Join(t.TempDir(), "trash"),
	}

	fixture := &scannerFixture{
		cfg:      cfg,
		provider: newFakeProvider(),
		prober:   &fakeProber{times: map[string]time.Time{}},
		movies:   repository.NewMovieRepository(testDB),
		shows:    repository.NewShowRepository(testDB),
		credits:  repository.NewCreditRepository(testDB),
	}
	fixture.scanner = New(cfg, fixture.movies, fixture.shows, fixture.credits, fixture.provider, fixture.prober)
	return fixture
}

func (f *scannerFixture) writeMovieFile(t *testing.T, name string) {
	t.Helper()
	path := filepath.Join(f.cfg.MoviesPath, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("video"), 0o644))
}

func (f *scannerFixture) writeEpisodeFile(t *testing.T, folder, name string) {
	t.Helper()
	path := filepath.Join(f.cfg.ShowsPath, folder, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("video"), 0o644))
}

func (f *scannerFixture) imageExists(rel string) bool {
	_, err := os.Stat(filepath.Join(f.cfg.ImagesPath, filepath.FromSlash(rel)))
	return err == nil
}

func matrixInfo() *models.MovieInfo {
	return &models.MovieInfo{
		TmdbID:        603,
		Title:         "The Matrix",
		OriginalTitle: "The Matrix",
		Year:          1999,
		Synopsis:      "A hacker learns the truth.",
		Genres:        []string{"Science Fiction"},
		Countries:     []string{"United States of America"},
		Directors:     []models.PersonInfo{{TmdbID: 9339, Name: "Lana Wachowski", ProfilePath: "/lana.jpg"}},
		Writers:       []models.PersonInfo{{TmdbID: 9340, Name: "Lilly Wachowski"}},
		Cast: []models.PersonInfo{
			{TmdbID: 6384, Name: "Keanu Reeves", Character: "Neo", ProfilePath: "/keanu.jpg"},
			{TmdbID: 2975, Name: "Laurence Fishburne", Character: "Morpheus"},
		},
		Certifications: []models.CountryCert{{Country: "US", Code: "R"}, {Country: "FR", Code: "12"}},
		VoteAverage:    8.2,
		VoteCount:      25000,
		PosterPath:     "/matrix-poster.jpg",
		BackdropPath:   "/matrix-backdrop.jpg",
	}
}

func TestScanMovies_AddsNewFile(t *testing.T) {
	f := setupScanner(t)
	f.writeMovieFile(t, "The Matrix (1999).mkv")
	f.provider.searchResults["The Matrix"] = 603
	f.provider.movieDetails[603] = matrixInfo()

	refs := map[int]bool{}
	require.NoError(t, f.scanner.ScanMovies(refs))

	movie, err := f.movies.GetByFilename("The Matrix (1999).mkv")
	require.NoError(t, err)
	assert.Equal(t, 603, movie.TmdbID)
	assert.Equal(t, "The Matrix", movie.Title)
	assert.Equal(t, 1999, movie.Year)
	assert.Equal(t, 16, movie.Audience) // max(US R=16, FR 12)
	assert.Equal(t, 5400, movie.Duration)
	assert.Equal(t, int64(1<<30), movie.FileSize)
	assert.Equal(t, "h264", movie.Video.Codec)
	assert.Equal(t, []int{9339}, movie.Directors)
	assert.Len(t, movie.Cast, 2)
	assert.NotEmpty(t, movie.Poster)
	assert.True(t, f.imageExists(movie.Poster))

	// Referenced people were stored as credits and folded into refs
	credits, err := f.credits.GetAll()
	require.NoError(t, err)
	assert.Len(t, credits, 4)
	assert.True(t, refs[6384])
	assert.True(t, refs[9339])
}

func TestScanMovies_UnidentifiedFileStillCataloged(t *testing.T) {
	f := setupScanner(t)
	f.writeMovieFile(t, "Home Movie.mkv")

	require.NoError(t, f.scanner.ScanMovies(map[int]bool{}))

	movie, err := f.movies.GetByFilename("Home Movie.mkv")
	require.NoError(t, err)
	assert.Equal(t, models.UnsetID, movie.TmdbID)
	assert.Equal(t, models.UnsetAudience, movie.Audience)
	assert.Equal(t, 5400, movie.Duration)
}

func TestScanMovies_Idempotent(t *testing.T) {
	f := setupScanner(t)
	f.writeMovieFile(t, "The Matrix (1999).mkv")
	f.provider.searchResults["The Matrix"] = 603
	f.provider.movieDetails[603] = matrixInfo()

	require.NoError(t, f.scanner.ScanMovies(map[int]bool{}))
	first, err := f.movies.GetAll()
	require.NoError(t, err)

	require.NoError(t, f.scanner.ScanMovies(map[int]bool{}))
	second, err := f.movies.GetAll()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.provider.movieDetailCalls)
}

func TestScanMovies_DiffCorrectness(t *testing.T) {
	f := setupScanner(t)
	f.provider.searchResults["A"] = 1
	f.provider.movieDetails[1] = &models.MovieInfo{TmdbID: 1, Title: "A", PosterPath: "/a.jpg"}
	for _, name := range []string{"A.mkv", "B.mkv", "C.mkv"} {
		f.writeMovieFile(t, name)
	}
	require.NoError(t, f.scanner.ScanMovies(map[int]bool{}))

	movieA, err := f.movies.GetByFilename("A.mkv")
	require.NoError(t, err)
	require.NotEmpty(t, movieA.Poster)
	require.True(t, f.imageExists(movieA.Poster))

	// A vanishes, D appears
	require.NoError(t, os.Remove(filepath.Join(f.cfg.MoviesPath, "A.mkv")))
	f.writeMovieFile(t, "D.mkv")
	require.NoError(t, f.scanner.ScanMovies(map[int]bool{}))

	stored, err := f.movies.GetAll()
	require.NoError(t, err)
	var filenames []string
	for _, m := range stored {
		filenames = append(filenames, m.Filename)
	}
	assert.ElementsMatch(t, []string{"B.mkv", "C.mkv", "D.mkv"}, filenames)
	assert.False(t, f.imageExists(movieA.Poster))
}

func TestLoad_CreditGarbageCollection(t *testing.T) {
	f := setupScanner(t)
	f.provider.searchResults["A"] = 1
	f.provider.movieDetails[1] = &models.MovieInfo{
		TmdbID: 1, Title: "A",
		Cast: []models.PersonInfo{{TmdbID: 11, Name: "Only In A"}},
	}
	f.provider.searchResults["B"] = 2
	f.provider.movieDetails[2] = &models.MovieInfo{
		TmdbID: 2, Title: "B",
		Cast: []models.PersonInfo{{TmdbID: 22, Name: "Only In B"}},
	}
	f.writeMovieFile(t, "A.mkv")
	f.writeMovieFile(t, "B.mkv")
	require.NoError(t, f.scanner.Load())

	credits, err := f.credits.GetAll()
	require.NoError(t, err)
	require.Len(t, credits, 2)

	// A's file disappears: its only credit must be collected
	require.NoError(t, os.Remove(filepath.Join(f.cfg.MoviesPath, "A.mkv")))
	require.NoError(t, f.scanner.Load())

	credits, err = f.credits.GetAll()
	require.NoError(t, err)
	require.Len(t, credits, 1)
	assert.Equal(t, 22, credits[0].TmdbID)
}

func TestLoad_CreditKeptWhileSeasonReferencesIt(t *testing.T) {
	f := setupScanner(t)
	f.provider.searchResults["A"] = 1
	f.provider.movieDetails[1] = &models.MovieInfo{
		TmdbID: 1, Title: "A",
		Cast: []models.PersonInfo{{TmdbID: 11, Name: "Shared"}},
	}
	f.writeMovieFile(t, "A.mkv")

	f.provider.showResults["My Show"] = 100
	f.provider.showDetails[100] = &models.ShowInfo{TmdbID: 100, Title: "My Show"}
	f.provider.seasonDetails[seasonKey(100, 1)] = &models.SeasonInfo{
		TmdbID: 1001, EpisodeCount: 10,
		Cast: []models.PersonInfo{{TmdbID: 11, Name: "Shared"}},
	}
	f.writeEpisodeFile(t, "My Show", "My Show S01E01.mkv")
	require.NoError(t, f.scanner.Load())

	// The movie referencing person 11 vanishes, but season 1 still does
	require.NoError(t, os.Remove(filepath.Join(f.cfg.MoviesPath, "A.mkv")))
	require.NoError(t, f.scanner.Load())

	credits, err := f.credits.GetAll()
	require.NoError(t, err)
	require.Len(t, credits, 1)
	assert.Equal(t, 11, credits[0].TmdbID)
}

func setupShowFixture(t *testing.T, f *scannerFixture) {
	f.provider.showResults["My Show"] = 100
	f.provider.showDetails[100] = &models.ShowInfo{
		TmdbID: 100, Title: "My Show",
		Ratings: []models.CountryCert{{Country: "US", Code: "TV-14"}},
	}
	f.provider.seasonDetails[seasonKey(100, 1)] = &models.SeasonInfo{TmdbID: 1001, EpisodeCount: 10}
	f.provider.seasonDetails[seasonKey(100, 2)] = &models.SeasonInfo{TmdbID: 1002, EpisodeCount: 8}
	f.provider.episodeDetails[episodeKey(100, 1, 1)] = &models.EpisodeInfo{TmdbID: 10011, Title: "Pilot", AirDate: "2020-01-01"}
	f.provider.episodeDetails[episodeKey(100, 1, 2)] = &models.EpisodeInfo{TmdbID: 10012, Title: "Second", AirDate: "2020-01-08"}
	f.provider.episodeDetails[episodeKey(100, 2, 1)] = &models.EpisodeInfo{TmdbID: 10021, Title: "Return", AirDate: "2021-01-01"}

	f.writeEpisodeFile(t, "My Show", "My Show S01E01.mkv")
	f.writeEpisodeFile(t, "My Show", "My Show S01E02.mkv")
	f.writeEpisodeFile(t, "My Show", "My Show S02E01.mkv")
	f.prober.times["My Show S01E01.mkv"] = time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	f.prober.times["My Show S01E02.mkv"] = time.Date(2023, 5, 2, 0, 0, 0, 0, time.UTC)
	f.prober.times["My Show S02E01.mkv"] = time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
}

func TestScanShows_BuildsSeasonsAndDerivedFields(t *testing.T) {
	f := setupScanner(t)
	setupShowFixture(t, f)

	require.NoError(t, f.scanner.ScanShows(map[int]bool{}))

	show, err := f.shows.GetByFoldername("My Show")
	require.NoError(t, err)
	assert.Equal(t, 100, show.TmdbID)
	assert.Equal(t, 12, show.Audience) // US TV-14
	assert.Len(t, show.Episodes, 3)
	require.Len(t, show.Seasons, 2)
	assert.Equal(t, 10, show.Seasons[0].EpisodeCount)

	assert.Equal(t, "2023-05-01T00:00:00Z", show.CreatedMin)
	assert.Equal(t, "2023-06-01T00:00:00Z", show.CreatedMax)
	assert.Equal(t, "2020-01-01", show.AirDateMin)
	assert.Equal(t, "2021-01-01", show.AirDateMax)
}

func TestScanShows_SeasonLifecycle(t *testing.T) {
	f := setupScanner(t)
	setupShowFixture(t, f)
	require.NoError(t, f.scanner.ScanShows(map[int]bool{}))

	// All season 2 files disappear
	require.NoError(t, os.Remove(filepath.Join(f.cfg.ShowsPath, "My Show", "My Show S02E01.mkv")))
	require.NoError(t, f.scanner.ScanShows(map[int]bool{}))

	show, err := f.shows.GetByFoldername("My Show")
	require.NoError(t, err)
	assert.Len(t, show.Episodes, 2)
	require.Len(t, show.Seasons, 1)
	assert.Equal(t, 1, show.Seasons[0].SeasonNumber)

	// Derived fields follow the surviving episodes
	assert.Equal(t, "2023-05-01T00:00:00Z", show.CreatedMin)
	assert.Equal(t, "2023-05-02T00:00:00Z", show.CreatedMax)
	assert.Equal(t, "2020-01-01", show.AirDateMin)
	assert.Equal(t, "2020-01-08", show.AirDateMax)
}

func TestScanShows_IdentificationRetriedAfterProviderError(t *testing.T) {
	f := setupScanner(t)
	setupShowFixture(t, f)
	f.provider.searchTVFailures = 1

	// Provider down at first discovery: the folder is skipped, nothing stored
	require.NoError(t, f.scanner.ScanShows(map[int]bool{}))
	_, err := f.shows.GetByFoldername("My Show")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// Provider recovered: the next scan identifies the show
	require.NoError(t, f.scanner.ScanShows(map[int]bool{}))
	show, err := f.shows.GetByFoldername("My Show")
	require.NoError(t, err)
	assert.Equal(t, 100, show.TmdbID)
	assert.Len(t, show.Episodes, 3)
}

func TestScanShows_NoCandidatesStoredUnidentified(t *testing.T) {
	f := setupScanner(t)
	f.writeEpisodeFile(t, "Obscure Show", "Obscure Show S01E01.mkv")

	// A clean empty search result is not an error: the folder is cataloged
	require.NoError(t, f.scanner.ScanShows(map[int]bool{}))

	show, err := f.shows.GetByFoldername("Obscure Show")
	require.NoError(t, err)
	assert.Equal(t, models.UnsetID, show.TmdbID)
	assert.Len(t, show.Episodes, 1)
}

func TestScanShows_RemovedFolder(t *testing.T) {
	f := setupScanner(t)
	setupShowFixture(t, f)
	require.NoError(t, f.scanner.ScanShows(map[int]bool{}))

	require.NoError(t, os.RemoveAll(filepath.Join(f.cfg.ShowsPath, "My Show")))
	require.NoError(t, f.scanner.ScanShows(map[int]bool{}))

	_, err := f.shows.GetByFoldername("My Show")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestScanShows_UnparseableEpisodeStaysUnidentified(t *testing.T) {
	f := setupScanner(t)
	f.provider.showResults["My Show"] = 100
	f.provider.showDetails[100] = &models.ShowInfo{TmdbID: 100, Title: "My Show"}
	f.writeEpisodeFile(t, "My Show", "bonus material.mkv")

	require.NoError(t, f.scanner.ScanShows(map[int]bool{}))

	show, err := f.shows.GetByFoldername("My Show")
	require.NoError(t, err)
	require.Len(t, show.Episodes, 1)
	assert.Equal(t, models.UnsetID, show.Episodes[0].TmdbID)
	assert.Empty(t, show.Seasons)
	assert.Equal(t, 5400, show.Episodes[0].Duration)
}

func TestScanShows_EpisodeLookupFailureIsNotFatal(t *testing.T) {
	f := setupScanner(t)
	f.provider.showResults["My Show"] = 100
	f.provider.showDetails[100] = &models.ShowInfo{TmdbID: 100, Title: "My Show"}
	// No episode or season details registered: lookups fail
	f.writeEpisodeFile(t, "My Show", "My Show S01E01.mkv")

	require.NoError(t, f.scanner.ScanShows(map[int]bool{}))

	show, err := f.shows.GetByFoldername("My Show")
	require.NoError(t, err)
	require.Len(t, show.Episodes, 1)
	assert.Equal(t, models.UnsetID, show.Episodes[0].TmdbID)
	assert.Equal(t, 1, show.Episodes[0].Season)
}

func TestFixMovieMetadata(t *testing.T) {
	f := setupScanner(t)
	f.writeMovieFile(t, "misnamed.mkv")
	require.NoError(t, f.scanner.ScanMovies(map[int]bool{}))

	f.provider.movieDetails[603] = matrixInfo()
	require.NoError(t, f.scanner.FixMovieMetadata("misnamed.mkv", 603))

	movie, err := f.movies.GetByFilename("misnamed.mkv")
	require.NoError(t, err)
	assert.Equal(t, 603, movie.TmdbID)
	assert.Equal(t, "The Matrix", movie.Title)
	assert.Len(t, movie.Cast, 2)
}

func TestFixMovieMetadata_KeepsHumanSetAudience(t *testing.T) {
	f := setupScanner(t)
	f.writeMovieFile(t, "misnamed.mkv")
	require.NoError(t, f.scanner.ScanMovies(map[int]bool{}))

	movie, err := f.movies.GetByFilename("misnamed.mkv")
	require.NoError(t, err)
	movie.Audience = 10
	require.NoError(t, f.movies.Update(movie))

	f.provider.movieDetails[603] = matrixInfo() // classifies to 16
	require.NoError(t, f.scanner.FixMovieMetadata("misnamed.mkv", 603))

	movie, err = f.movies.GetByFilename("misnamed.mkv")
	require.NoError(t, err)
	assert.Equal(t, 10, movie.Audience)
}

func TestRenameMovie(t *testing.T) {
	f := setupScanner(t)
	f.writeMovieFile(t, "old.mkv")
	require.NoError(t, f.scanner.ScanMovies(map[int]bool{}))

	require.NoError(t, f.scanner.RenameMovie("old.mkv", "new.mkv"))

	assert.NoFileExists(t, filepath.Join(f.cfg.MoviesPath, "old.mkv"))
	assert.FileExists(t, filepath.Join(f.cfg.MoviesPath, "new.mkv"))

	_, err := f.movies.GetByFilename("old.mkv")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.movies.GetByFilename("new.mkv")
	assert.NoError(t, err)
}

func TestRenameMovie_DestinationExists(t *testing.T) {
	f := setupScanner(t)
	f.writeMovieFile(t, "old.mkv")
	f.writeMovieFile(t, "taken.mkv")
	require.NoError(t, f.scanner.ScanMovies(map[int]bool{}))

	err := f.scanner.RenameMovie("old.mkv", "taken.mkv")
	assert.Error(t, err)

	// Record unchanged
	_, err = f.movies.GetByFilename("old.mkv")
	assert.NoError(t, err)
}

func TestTrashMovie(t *testing.T) {
	f := setupScanner(t)
	f.writeMovieFile(t, "unwanted.mkv")
	require.NoError(t, f.scanner.ScanMovies(map[int]bool{}))

	require.NoError(t, f.scanner.TrashMovie("unwanted.mkv"))

	assert.NoFileExists(t, filepath.Join(f.cfg.MoviesPath, "unwanted.mkv"))
	assert.FileExists(t, filepath.Join(f.cfg.TrashPath, "unwanted.mkv"))

	_, err := f.movies.GetByFilename("unwanted.mkv")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
