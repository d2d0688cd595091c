package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"videotheque/database"
	"videotheque/models"
)

// ShowRepository handles database operations for shows, keyed by foldername.
type ShowRepository struct {
	db *database.DB
}

// NewShowRepository creates a new show repository
func NewShowRepository(db *database.DB) *ShowRepository {
	return &ShowRepository{db: db}
}

// GetAll retrieves all shows from the database
func (r *ShowRepository) GetAll() ([]models.Show, error) {
	rows, err := r.db.Query(`SELECT doc FROM shows ORDER BY foldername`)
	if err != nil {
		return nil, fmt.Errorf("failed to query shows: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Failed to close rows: %v", err)
		}
	}()

	var shows []models.Show
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan show: %w", err)
		}
		var show models.Show
		if err := json.Unmarshal([]byte(doc), &show); err != nil {
			return nil, fmt.Errorf("failed to decode show document: %w", err)
		}
		shows = append(shows, show)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return shows, nil
}

// GetByFoldername retrieves a show by its folder name
func (r *ShowRepository) GetByFoldername(foldername string) (*models.Show, error) {
	var doc string
	err := r.db.QueryRow(`SELECT doc FROM shows WHERE foldername = ?`, foldername).Scan(&doc)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("show %q: %w", foldername, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get show: %w", err)
	}

	var show models.Show
	if err := json.Unmarshal([]byte(doc), &show); err != nil {
		return nil, fmt.Errorf("failed to decode show document: %w", err)
	}
	return &show, nil
}

// Insert stores a new show. ErrConflict is returned when a show with the
// same folder name already exists.
func (r *ShowRepository) Insert(show *models.Show) error {
	doc, err := json.Marshal(show)
	if err != nil {
		return fmt.Errorf("failed to encode show: %w", err)
	}

	if _, err := r.db.Exec(`INSERT INTO shows (foldername, doc) VALUES (?, ?)`, show.Foldername, string(doc)); err != nil {
		if constraintViolated(err) {
			return fmt.Errorf("show %q: %w", show.Foldername, ErrConflict)
		}
		return fmt.Errorf("failed to create show: %w", err)
	}
	return nil
}

// Update writes a show back under its folder name
func (r *ShowRepository) Update(show *models.Show) error {
	doc, err := json.Marshal(show)
	if err != nil {
		return fmt.Errorf("failed to encode show: %w", err)
	}

	result, err := r.db.Exec(`UPDATE shows SET doc = ? WHERE foldername = ?`, string(doc), show.Foldername)
	if err != nil {
		return fmt.Errorf("failed to update show: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("show %q: %w", show.Foldername, ErrNotFound)
	}
	return nil
}

// Remove deletes a show by folder name
func (r *ShowRepository) Remove(foldername string) error {
	result, err := r.db.Exec(`DELETE FROM shows WHERE foldername = ?`, foldername)
	if err != nil {
		return fmt.Errorf("failed to delete show: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("show %q: %w", foldername, ErrNotFound)
	}
	return nil
}
