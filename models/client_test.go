package models

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestClientPhoneUniquePerSalon(t *testing.T) {
	s, err := schema.Parse(&Client{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	var idx *schema.Index
	for _, i := range s.ParseIndexes() {
		if i.Name == "idx_salon_client_phone" {
			idx = i
			break
		}
	}
	require.NotNil(t, idx, "composite phone index must exist")
	assert.Equal(t, "UNIQUE", idx.Class)

	// Two salons may share a phone number; the salon column must lead the
	// unique index so only the per-salon pair is constrained.
	cols := make([]string, 0, len(idx.Fields))
	for _, f := range idx.Fields {
		cols = append(cols, f.DBName)
	}
	assert.Equal(t, []string{"salon_id", "phone"}, cols)
}
