package repos

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vineyard-api/internal/apperr"
	"vineyard-api/internal/domain/vines"
	"vineyard-api/internal/metrics"
)

func counts(t *testing.T, f *fixture) (int64, int64) {
	t.Helper()
	var nv, nl int64
	require.NoError(t, f.db.Model(&vines.Vine{}).Count(&nv).Error)
	require.NoError(t, f.db.Model(&vines.VineLocation{}).Count(&nl).Error)
	return nv, nl
}

func TestSyncTaggedVineIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := vines.SyncInput{
		Vine:     vines.VineInput{AlphaNumericID: str("S-1"), Variety: str("Dornfelder"), YearOfPlanting: num(2012)},
		Location: position("Hillside", "A", 2, 4),
	}
	v, created, err := f.inventory.Sync(ctx, nil, in)
	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, v.Locations, 1)
	assert.Equal(t, "S-1", *v.Locations[0].AlphaNumericID)
	assert.Equal(t, 2012, *v.Locations[0].YearOfPlanting)

	in.Vine.Variety = str("Regent")
	in.Location.SpotNumber = num(5)
	again, created, err := f.inventory.Sync(ctx, nil, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, v.ID, again.ID)
	assert.Equal(t, "Regent", *again.Variety)
	require.Len(t, again.Locations, 1)
	assert.Equal(t, 5, *again.Locations[0].SpotNumber)

	nv, nl := counts(t, f)
	assert.EqualValues(t, 1, nv)
	assert.EqualValues(t, 1, nl)
}

func TestSyncCountsEachVineOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := func() float64 {
		return testutil.ToFloat64(metrics.SyncTotal.WithLabelValues("vine", metrics.SyncCreated))
	}
	updated := func() float64 {
		return testutil.ToFloat64(metrics.SyncTotal.WithLabelValues("vine", metrics.SyncUpdated))
	}

	c0, u0 := created(), updated()
	tagged := vines.SyncInput{Vine: vines.VineInput{AlphaNumericID: str("M-1")}, Location: position("Hillside", "B", 1, 1)}
	_, _, err := f.inventory.Sync(ctx, nil, tagged)
	require.NoError(t, err)
	_, _, err = f.inventory.Sync(ctx, nil, tagged)
	require.NoError(t, err)
	_, _, err = f.inventory.Sync(ctx, nil, vines.SyncInput{Location: position("Hillside", "B", 1, 2)})
	require.NoError(t, err)

	assert.Equal(t, c0+2, created())
	assert.Equal(t, u0+1, updated())
}

func TestSyncTaggedWithoutPositionSkipsLocation(t *testing.T) {
	f := newFixture(t)

	v, created, err := f.inventory.Sync(context.Background(), nil, vines.SyncInput{Vine: vines.VineInput{AlphaNumericID: str("S-2")}})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Empty(t, v.Locations)
}

func TestSyncUntaggedMatchesOnPosition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := vines.SyncInput{
		Vine:     vines.VineInput{Variety: str("Müller-Thurgau")},
		Location: position("Valley", "B", 8, 1),
	}
	v, created, err := f.inventory.Sync(ctx, nil, in)
	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, v.Locations, 1)
	assert.Nil(t, v.Locations[0].AlphaNumericID)

	in.Vine.Rootstock = str("SO4")
	again, created, err := f.inventory.Sync(ctx, nil, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, v.ID, again.ID)
	assert.Equal(t, "SO4", *again.Rootstock)

	nv, nl := counts(t, f)
	assert.EqualValues(t, 1, nv)
	assert.EqualValues(t, 1, nl)
}

func TestSyncUntaggedPartialPositionFails(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.inventory.Sync(context.Background(), nil, vines.SyncInput{
		Vine:     vines.VineInput{Variety: str("Kerner")},
		Location: vines.LocationInput{VineyardName: str("Valley")},
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	nv, nl := counts(t, f)
	assert.Zero(t, nv)
	assert.Zero(t, nl)
}
