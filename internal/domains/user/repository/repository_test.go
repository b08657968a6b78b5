package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByEmail(t *testing.T) {
	filter := ByEmail("  Guest@Example.COM ")

	where, args := filter.GetWhereClause()

	assert.Equal(t, "((LOWER(users.email) = :email))", where)
	assert.Equal(t, map[string]any{"email": "guest@example.com"}, args)
}
