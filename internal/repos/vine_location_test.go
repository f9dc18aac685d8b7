package repos

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vineyard-api/internal/apperr"
	"vineyard-api/internal/domain/issues"
	"vineyard-api/internal/domain/vines"
)

func TestCreateOrUpdateByPositionIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := position("Hillside", "A", 3, 12)
	first, created, err := f.locations.CreateOrUpdateByPosition(ctx, nil, in)
	require.NoError(t, err)
	assert.True(t, created)

	in.YearOfPlanting = num(2015)
	second, created, err := f.locations.CreateOrUpdateByPosition(ctx, nil, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2015, *second.YearOfPlanting)

	var n int64
	require.NoError(t, f.db.Model(&vines.VineLocation{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestCreateOrUpdateByPositionNeedsFullPosition(t *testing.T) {
	f := newFixture(t)
	in := vines.LocationInput{VineyardName: str("Hillside"), RowNumber: num(1)}

	_, _, err := f.locations.CreateOrUpdateByPosition(context.Background(), nil, in)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUntaggedPositionIsUnique(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.locations.Create(ctx, nil, position("Hillside", "A", 1, 1))
	require.NoError(t, err)
	_, err = f.locations.Create(ctx, nil, position("Hillside", "A", 1, 1))
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, apperr.CodeDuplicatePosition, apperr.CodeOf(err))

	// A tagged location may stand at the same position.
	tagged := position("Hillside", "A", 1, 1)
	tagged.AlphaNumericID = str("T-1")
	_, err = f.locations.Create(ctx, nil, tagged)
	require.NoError(t, err)

	dup := position("Valley", "B", 2, 2)
	dup.AlphaNumericID = str("T-1")
	_, err = f.locations.Create(ctx, nil, dup)
	assert.Equal(t, apperr.CodeDuplicateTag, apperr.CodeOf(err))
}

func TestGetByPositionPrefersUntagged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tagged := position("Hillside", "A", 5, 5)
	tagged.AlphaNumericID = str("T-5")
	_, err := f.locations.Create(ctx, nil, tagged)
	require.NoError(t, err)
	untagged, err := f.locations.Create(ctx, nil, position("Hillside", "A", 5, 5))
	require.NoError(t, err)

	got, err := f.locations.GetByPosition(ctx, nil, vines.Position{VineyardName: "Hillside", FieldName: "A", RowNumber: 5, SpotNumber: 5})
	require.NoError(t, err)
	assert.Equal(t, untagged.ID, got.ID)

	_, err = f.locations.GetByPosition(ctx, nil, vines.Position{VineyardName: "Hillside", FieldName: "A", RowNumber: 5, SpotNumber: 6})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestLocationCreateOrUpdateByTag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := position("Hillside", "A", 1, 1)
	in.AlphaNumericID = str("L-1")
	first, created, err := f.locations.CreateOrUpdate(ctx, nil, in)
	require.NoError(t, err)
	assert.True(t, created)

	moved := position("Hillside", "B", 9, 9)
	moved.AlphaNumericID = str("L-1")
	second, created, err := f.locations.CreateOrUpdate(ctx, nil, moved)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "B", *second.FieldName)
}

func TestLocationLinkCopiesVineYear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.vines.Create(ctx, nil, vines.VineInput{YearOfPlanting: num(2008)})
	require.NoError(t, err)

	in := position("Hillside", "A", 2, 2)
	in.VineID = &v.ID
	loc, err := f.locations.Create(ctx, nil, in)
	require.NoError(t, err)
	assert.Equal(t, 2008, *loc.YearOfPlanting)

	in = position("Hillside", "A", 2, 3)
	in.VineID = id(9999)
	_, err = f.locations.Create(ctx, nil, in)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	list, err := f.locations.GetByVineID(ctx, nil, v.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, loc.ID, list[0].ID)
}

func TestLocationUpdateIntoTakenPositionConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.locations.Create(ctx, nil, position("Hillside", "A", 1, 1))
	require.NoError(t, err)
	other, err := f.locations.Create(ctx, nil, position("Hillside", "A", 1, 2))
	require.NoError(t, err)

	_, err = f.locations.Update(ctx, nil, other.ID, vines.LocationInput{SpotNumber: num(1)})
	assert.Equal(t, apperr.CodeDuplicatePosition, apperr.CodeOf(err))

	updated, err := f.locations.Update(ctx, nil, other.ID, vines.LocationInput{YearOfPlanting: num(2001)})
	require.NoError(t, err)
	assert.Equal(t, 2, *updated.SpotNumber)
}

func TestLocationRemoveDeletesItsIssues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	loc, err := f.locations.Create(ctx, nil, position("Hillside", "C", 7, 7))
	require.NoError(t, err)
	_, err = f.issues.Create(ctx, nil, issues.CreateInput{VineLocationID: &loc.ID, Description: "frost", ReportedBy: &f.reporter.ID})
	require.NoError(t, err)

	_, err = f.locations.Remove(ctx, nil, loc.ID)
	require.NoError(t, err)

	got, err := f.issues.GetByLocationID(ctx, nil, loc.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	_, err = f.locations.Get(ctx, nil, loc.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
