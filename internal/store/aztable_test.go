package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/model"
)

func TestRowKeyOrdering(t *testing.T) {
	assert.Equal(t, "0000000000000000001", rowKey(1))
	assert.Less(t, rowKey(9), rowKey(10))
}

func TestToEntity(t *testing.T) {
	e := toEntity(model.Transaction{ID: 3, Date: "d", Description: "desc", Amount: "1", CustomDescription: "c"})
	assert.Equal(t, tablePartition, e.PartitionKey)
	assert.Equal(t, rowKey(3), e.RowKey)
	assert.Equal(t, "desc", e.Description)
	assert.Equal(t, "c", e.CustomDescription)
}

func TestTableStore_Azurite(t *testing.T) {
	url := os.Getenv("TRACKER_AZURITE_TABLE_URL")
	if url == "" {
		t.Skip("TRACKER_AZURITE_TABLE_URL not set")
	}
	ctx := context.Background()
	s, err := OpenTableStore(ctx, url, "trackertest")
	require.NoError(t, err)
	require.NoError(t, s.Clear(ctx))
	exerciseStore(t, s)
}
