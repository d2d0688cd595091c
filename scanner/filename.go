package scanner

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// MovieGuess is what could be read from a movie filename: a probable title,
// an optional release year, and an optional explicit TMDB id.
type MovieGuess struct {
	Title  string `json:"title"`
	Year   int    `json:"year"`
	TmdbID int    `json:"tmdbId"`
}

var (
	explicitIDPattern = regexp.MustCompile(`(?i)\btmdb-(\d+)\b`)
	yearPattern       = regexp.MustCompile(`[([]((?:19|20)\d{2})[)\]]`)
	bareYearPattern   = regexp.MustCompile(`[.\s_-]((?:19|20)\d{2})(?:[.\s_-]|$)`)
	annotationPattern = regexp.MustCompile(`[([][^)\]]*[)\]]`)
)

// GuessMovie extracts identification hints from a movie filename. Bracketed
// and parenthesized annotations are stripped, dots and underscores become
// spaces, and a "tmdb-12345" token short-circuits the title search entirely.
func GuessMovie(filename string) MovieGuess {
	name := filepath.Base(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	guess := MovieGuess{}

	if m := explicitIDPattern.FindStringSubmatch(name); m != nil {
		guess.TmdbID, _ = strconv.Atoi(m[1])
	}
	if m := yearPattern.FindStringSubmatch(name); m != nil {
		guess.Year, _ = strconv.Atoi(m[1])
	} else if m := bareYearPattern.FindStringSubmatch(name); m != nil {
		guess.Year, _ = strconv.Atoi(m[1])
	}

	title := annotationPattern.ReplaceAllString(name, "")
	if guess.Year > 0 {
		if i := strings.Index(title, strconv.Itoa(guess.Year)); i >= 0 {
			title = title[:i]
		}
	}
	title = strings.NewReplacer(".", " ", "_", " ").Replace(title)
	guess.Title = strings.Join(strings.Fields(title), " ")
	return guess
}

// EpisodeGuess is the season and episode numbers read from an episode
// filename. A single file may cover several consecutive episode numbers.
type EpisodeGuess struct {
	Season   int   `json:"season"`
	Episodes []int `json:"episodes"`
}

var episodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)s(\d{1,2})((?:[-.\s]?e\d{1,3})+)`), // S01E02, S01E02E03, S01E02-E03
	regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{1,3})\b`),          // 1x02
}

var episodeNumberPattern = regexp.MustCompile(`(?i)e(\d{1,3})`)

// ParseEpisode extracts season and episode numbers from an episode filename.
// Only single-season filenames with at least one episode number qualify;
// names matching several different seasons are ambiguous and rejected.
func ParseEpisode(filename string) (EpisodeGuess, bool) {
	name := filepath.Base(filename)

	if matches := episodePatterns[0].FindAllStringSubmatch(name, -1); len(matches) > 0 {
		guess := EpisodeGuess{Season: atoi(matches[0][1])}
		for _, m := range matches {
			if atoi(m[1]) != guess.Season {
				return EpisodeGuess{}, false
			}
			for _, e := range episodeNumberPattern.FindAllStringSubmatch(m[2], -1) {
				guess.Episodes = append(guess.Episodes, atoi(e[1]))
			}
		}
		if len(guess.Episodes) == 0 {
			return EpisodeGuess{}, false
		}
		return guess, true
	}

	if matches := episodePatterns[1].FindAllStringSubmatch(name, -1); len(matches) > 0 {
		guess := EpisodeGuess{Season: atoi(matches[0][1])}
		for _, m := range matches {
			if atoi(m[1]) != guess.Season {
				return EpisodeGuess{}, false
			}
			guess.Episodes = append(guess.Episodes, atoi(m[2]))
		}
		return guess, true
	}

	return EpisodeGuess{}, false
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
