package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestParseInt(t *testing.T) {
	assert.Equal(t, 7, ParseInt("7", 1))
	assert.Equal(t, 1, ParseInt("", 1))
	assert.Equal(t, 10, ParseInt("abc", 10))
	assert.Equal(t, 10, ParseInt("0", 10))
	assert.Equal(t, 10, ParseInt("-3", 10))
}

func TestPagination(t *testing.T) {
	assert.Equal(t, 0, CalculateOffset(1, 10))
	assert.Equal(t, 20, CalculateOffset(3, 10))
	assert.Equal(t, 0, CalculateOffset(0, 10))

	assert.Equal(t, 3, CalculateTotalPages(21, 10))
	assert.Equal(t, 2, CalculateTotalPages(20, 10))
	assert.Equal(t, 0, CalculateTotalPages(0, 10))
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("Password123!", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, "Password123!", hash)
	assert.True(t, CheckPasswordHash("Password123!", hash))
	assert.False(t, CheckPasswordHash("Password123?", hash))

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}
