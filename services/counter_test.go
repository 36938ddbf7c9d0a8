package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextSequence(t *testing.T) {
	db := newTestDB(t)

	first, err := NextSequence(db, "order")
	require.NoError(t, err)
	assert.EqualValues(t, 1001, first)

	second, err := NextSequence(db, "order")
	require.NoError(t, err)
	assert.EqualValues(t, 1002, second)

	other, err := NextSequence(db, "invoice")
	require.NoError(t, err)
	assert.EqualValues(t, 1001, other, "counters are independent")

	assert.Equal(t, "ORD-1002", orderNumber(second))
}
