package postgres

import (
	"context"
	"testing"

	"github.com/dom/league-inhouse-server/internal/domain"
	"github.com/dom/league-inhouse-server/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChampionRepository(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	repo := NewChampionRepository(tdb.DB)
	ctx := context.Background()

	require.NoError(t, repo.UpsertMany(ctx, []*domain.Champion{
		{ID: "Zed", Key: "238", Name: "Zed"},
		{ID: "Aatrox", Key: "266", Name: "Aatrox"},
	}))
	require.NoError(t, repo.UpsertMany(ctx, nil), "empty sync is a no-op")

	// A re-sync replaces the existing row instead of failing on the key.
	require.NoError(t, repo.Upsert(ctx, &domain.Champion{
		ID: "Aatrox", Key: "266", Name: "Aatrox", Title: "the Darkin Blade",
	}))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Aatrox", all[0].Name, "catalog is name-ordered")

	got, err := repo.GetByID(ctx, "Aatrox")
	require.NoError(t, err)
	assert.Equal(t, "the Darkin Blade", got.Title)

	_, err = repo.GetByID(ctx, "Teemo")
	assert.ErrorIs(t, err, domain.ErrUnknownChampion)
}
