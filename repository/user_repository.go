package repository

import (
	"encoding/json"
	"fmt"
	"log"

	"videotheque/database"
	"videotheque/models"
)

// UserRepository handles database operations for users, keyed by name.
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetAll retrieves all users from the database
func (r *UserRepository) GetAll() ([]models.User, error) {
	rows, err := r.db.Query(`SELECT doc FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Failed to close rows: %v", err)
		}
	}()

	var users []models.User
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		var user models.User
		if err := json.Unmarshal([]byte(doc), &user); err != nil {
			return nil, fmt.Errorf("failed to decode user document: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return users, nil
}

// Insert stores a new user. ErrConflict is returned when the name is taken.
func (r *UserRepository) Insert(user *models.User) error {
	doc, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	if _, err := r.db.Exec(`INSERT INTO users (name, doc) VALUES (?, ?)`, user.Name, string(doc)); err != nil {
		if constraintViolated(err) {
			return fmt.Errorf("user %q: %w", user.Name, ErrConflict)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}
