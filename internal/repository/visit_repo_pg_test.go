package repository

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewVisitRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewVisitRepository(pool)
	assert.NotNil(t, repo)
}
