package repository

import (
	"testing"

	"videotheque/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditRepository_InsertExistsRemove(t *testing.T) {
	repo := NewCreditRepository(setupTestDB(t))

	exists, err := repo.Exists(6384)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Insert(&models.Credit{TmdbID: 6384, Name: "Keanu Reeves", Profile: "profiles/w185/keanu.jpg"}))

	exists, err = repo.Exists(6384)
	require.NoError(t, err)
	assert.True(t, exists)

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Keanu Reeves", all[0].Name)

	require.NoError(t, repo.Remove(6384))
	exists, err = repo.Exists(6384)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreditRepository_InsertConflict(t *testing.T) {
	repo := NewCreditRepository(setupTestDB(t))

	require.NoError(t, repo.Insert(&models.Credit{TmdbID: 6384, Name: "Keanu Reeves"}))
	err := repo.Insert(&models.Credit{TmdbID: 6384, Name: "Keanu Reeves"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUserRepository_InsertAndGetAll(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	require.NoError(t, repo.Insert(&models.User{Name: "alice"}))
	require.NoError(t, repo.Insert(&models.User{Name: "bob"}))

	users, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Name)
}

func TestUserRepository_InsertConflict(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	require.NoError(t, repo.Insert(&models.User{Name: "alice"}))
	err := repo.Insert(&models.User{Name: "alice"})
	assert.ErrorIs(t, err, ErrConflict)
}
