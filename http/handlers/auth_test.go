package handlers

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUniqueStudentIDRetriesCollisions(t *testing.T) {
	collisions := 2
	var tried []string
	id, err := generateUniqueStudentID(func(candidate string) (bool, error) {
		tried = append(tried, candidate)
		if collisions > 0 {
			collisions--
			return true, nil
		}
		return false, nil
	})
	require.NoError(t, err)
	assert.Len(t, tried, 3)
	assert.Equal(t, tried[len(tried)-1], id)
	assert.Regexp(t, `^TCTC-\d{8}$`, id)
}

func TestGenerateUniqueStudentIDGivesUpEventually(t *testing.T) {
	calls := 0
	_, err := generateUniqueStudentID(func(string) (bool, error) {
		calls++
		return true, nil
	})
	require.Error(t, err)
	assert.Equal(t, 10, calls)
}

func TestGenerateUniqueStudentIDPropagatesLookupError(t *testing.T) {
	_, err := generateUniqueStudentID(func(string) (bool, error) {
		return false, fmt.Errorf("connection refused")
	})
	assert.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(fmt.Errorf("plain error")))
}
