package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"videotheque/database"
	"videotheque/models"
)

// MovieRepository handles database operations for movies, keyed by filename.
type MovieRepository struct {
	db *database.DB
}

// NewMovieRepository creates a new movie repository
func NewMovieRepository(db *database.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// GetAll retrieves all movies from the database
func (r *MovieRepository) GetAll() ([]models.Movie, error) {
	rows, err := r.db.Query(`SELECT doc FROM movies ORDER BY filename`)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Failed to close rows: %v", err)
		}
	}()

	var movies []models.Movie
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		var movie models.Movie
		if err := json.Unmarshal([]byte(doc), &movie); err != nil {
			return nil, fmt.Errorf("failed to decode movie document: %w", err)
		}
		movies = append(movies, movie)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return movies, nil
}

// GetByFilename retrieves a movie by its filename
func (r *MovieRepository) GetByFilename(filename string) (*models.Movie, error) {
	var doc string
	err := r.db.QueryRow(`SELECT doc FROM movies WHERE filename = ?`, filename).Scan(&doc)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("movie %q: %w", filename, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}

	var movie models.Movie
	if err := json.Unmarshal([]byte(doc), &movie); err != nil {
		return nil, fmt.Errorf("failed to decode movie document: %w", err)
	}
	return &movie, nil
}

// Insert stores a new movie. ErrConflict is returned when a movie with the
// same filename already exists.
func (r *MovieRepository) Insert(movie *models.Movie) error {
	doc, err := json.Marshal(movie)
	if err != nil {
		return fmt.Errorf("failed to encode movie: %w", err)
	}

	if _, err := r.db.Exec(`INSERT INTO movies (filename, doc) VALUES (?, ?)`, movie.Filename, string(doc)); err != nil {
		if constraintViolated(err) {
			return fmt.Errorf("movie %q: %w", movie.Filename, ErrConflict)
		}
		return fmt.Errorf("failed to create movie: %w", err)
	}
	return nil
}

// Update writes a movie back under its current filename
func (r *MovieRepository) Update(movie *models.Movie) error {
	return r.Rename(movie.Filename, movie)
}

// Rename writes a movie back under a possibly new filename, replacing the
// row stored under oldFilename.
func (r *MovieRepository) Rename(oldFilename string, movie *models.Movie) error {
	doc, err := json.Marshal(movie)
	if err != nil {
		return fmt.Errorf("failed to encode movie: %w", err)
	}

	result, err := r.db.Exec(`UPDATE movies SET filename = ?, doc = ? WHERE filename = ?`,
		movie.Filename, string(doc), oldFilename)
	if err != nil {
		if constraintViolated(err) {
			return fmt.Errorf("movie %q: %w", movie.Filename, ErrConflict)
		}
		return fmt.Errorf("failed to update movie: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("movie %q: %w", oldFilename, ErrNotFound)
	}
	return nil
}

// Remove deletes a movie by filename
func (r *MovieRepository) Remove(filename string) error {
	result, err := r.db.Exec(`DELETE FROM movies WHERE filename = ?`, filename)
	if err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("movie %q: %w", filename, ErrNotFound)
	}
	return nil
}
