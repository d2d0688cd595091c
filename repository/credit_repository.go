package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"videotheque/database"
	"videotheque/models"
)

// CreditRepository handles database operations for credits, keyed by TMDB
// person id.
type CreditRepository struct {
	db *database.DB
}

// NewCreditRepository creates a new credit repository
func NewCreditRepository(db *database.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

// GetAll retrieves all credits from the database
func (r *CreditRepository) GetAll() ([]models.Credit, error) {
	rows, err := r.db.Query(`SELECT doc FROM credits ORDER BY tmdb_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query credits: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Failed to close rows: %v", err)
		}
	}()

	var credits []models.Credit
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan credit: %w", err)
		}
		var credit models.Credit
		if err := json.Unmarshal([]byte(doc), &credit); err != nil {
			return nil, fmt.Errorf("failed to decode credit document: %w", err)
		}
		credits = append(credits, credit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return credits, nil
}

// Exists reports whether a credit with the given person id is stored
func (r *CreditRepository) Exists(tmdbID int) (bool, error) {
	var one int
	err := r.db.QueryRow(`SELECT 1 FROM credits WHERE tmdb_id = ?`, tmdbID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check credit: %w", err)
	}
	return true, nil
}

// Insert stores a new credit. ErrConflict is returned when the person id is
// already present.
func (r *CreditRepository) Insert(credit *models.Credit) error {
	doc, err := json.Marshal(credit)
	if err != nil {
		return fmt.Errorf("failed to encode credit: %w", err)
	}

	if _, err := r.db.Exec(`INSERT INTO credits (tmdb_id, doc) VALUES (?, ?)`, credit.TmdbID, string(doc)); err != nil {
		if constraintViolated(err) {
			return fmt.Errorf("credit %d: %w", credit.TmdbID, ErrConflict)
		}
		return fmt.Errorf("failed to create credit: %w", err)
	}
	return nil
}

// Remove deletes a credit by person id
func (r *CreditRepository) Remove(tmdbID int) error {
	result, err := r.db.Exec(`DELETE FROM credits WHERE tmdb_id = ?`, tmdbID)
	if err != nil {
		return fmt.Errorf("failed to delete credit: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("credit %d: %w", tmdbID, ErrNotFound)
	}
	return nil
}
