package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaEmbedded(t *testing.T) {
	for _, table := range []string{"public.users", "public.resources", "public.bookings"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Contains(t, schema, "bookings_no_room_overlap EXCLUDE USING gist")
}
