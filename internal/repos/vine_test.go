package repos

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vineyard-api/internal/apperr"
	"vineyard-api/internal/domain/issues"
	"vineyard-api/internal/domain/maintenance"
	"vineyard-api/internal/domain/vines"
)

func TestVineCreateRejectsDuplicateTag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.vines.Create(ctx, nil, vines.VineInput{AlphaNumericID: str("A-1"), Variety: str("Riesling")})
	require.NoError(t, err)

	_, err = f.vines.Create(ctx, nil, vines.VineInput{AlphaNumericID: str("A-1")})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, apperr.CodeDuplicateTag, apperr.CodeOf(err))
}

func TestUntaggedVinesMayRepeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.vines.Create(ctx, nil, vines.VineInput{AlphaNumericID: str(""), Variety: str("Merlot")})
		require.NoError(t, err)
	}
	list, err := f.vines.List(ctx, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for _, v := range list {
		assert.Nil(t, v.AlphaNumericID)
	}
}

func TestVineCreateOrUpdateMergesSuppliedFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, created, err := f.vines.CreateOrUpdate(ctx, nil, vines.VineInput{
		AlphaNumericID: str("B-7"),
		Variety:        str("Pinot Noir"),
		Nursery:        str("Hofmann"),
	})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := f.vines.CreateOrUpdate(ctx, nil, vines.VineInput{
		AlphaNumericID: str("B-7"),
		Variety:        str("Pinot Blanc"),
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Pinot Blanc", *second.Variety)
	assert.Equal(t, "Hofmann", *second.Nursery)

	list, err := f.vines.List(ctx, nil, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestVineCreateOrUpdateWithoutTagAlwaysCreates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, created, err := f.vines.CreateOrUpdate(ctx, nil, vines.VineInput{Variety: str("Silvaner")})
	require.NoError(t, err)
	assert.True(t, created)
	b, created, err := f.vines.CreateOrUpdate(ctx, nil, vines.VineInput{Variety: str("Silvaner")})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestVineTagsStayUniqueUnderRandomUpserts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	tags := []string{"", "R-1", "R-2", "R-3", "R-4"}
	for i := 0; i < 40; i++ {
		tag := tags[rng.Intn(len(tags))]
		_, _, err := f.vines.CreateOrUpdate(ctx, nil, vines.VineInput{
			AlphaNumericID: str(tag),
			YearOfPlanting: num(1990 + rng.Intn(30)),
		})
		require.NoError(t, err)
	}

	list, err := f.vines.List(ctx, nil, 0, MaxLimit)
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, v := range list {
		if v.AlphaNumericID == nil {
			continue
		}
		assert.False(t, seen[*v.AlphaNumericID], "tag %s stored twice", *v.AlphaNumericID)
		seen[*v.AlphaNumericID] = true
	}
}

func TestVineUpdateClearsDateDiedWhenRevived(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	died := time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC)

	v, err := f.vines.Create(ctx, nil, vines.VineInput{IsDead: yes(), DateDied: &died})
	require.NoError(t, err)
	require.NotNil(t, v.DateDied)

	v, err = f.vines.Update(ctx, nil, v.ID, vines.VineInput{IsDead: no()})
	require.NoError(t, err)
	assert.False(t, v.IsDead)
	assert.Nil(t, v.DateDied)
}

func TestVineUpdateRejectsTagHeldByAnother(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.vines.Create(ctx, nil, vines.VineInput{AlphaNumericID: str("X")})
	require.NoError(t, err)
	other, err := f.vines.Create(ctx, nil, vines.VineInput{AlphaNumericID: str("Y")})
	require.NoError(t, err)

	_, err = f.vines.Update(ctx, nil, other.ID, vines.VineInput{AlphaNumericID: str("X")})
	assert.Equal(t, apperr.CodeDuplicateTag, apperr.CodeOf(err))

	_, err = f.vines.Update(ctx, nil, other.ID, vines.VineInput{AlphaNumericID: str("Y"), Variety: str("Kerner")})
	assert.NoError(t, err)
}

func TestVineYearFollowsToUnsetLocations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.vines.Create(ctx, nil, vines.VineInput{})
	require.NoError(t, err)
	in := position("North", "F1", 1, 1)
	in.VineID = &v.ID
	loose, err := f.locations.Create(ctx, nil, in)
	require.NoError(t, err)
	own := position("North", "F1", 1, 2)
	own.VineID = &v.ID
	own.YearOfPlanting = num(1999)
	fixed, err := f.locations.Create(ctx, nil, own)
	require.NoError(t, err)

	_, err = f.vines.Update(ctx, nil, v.ID, vines.VineInput{YearOfPlanting: num(2011)})
	require.NoError(t, err)

	got, err := f.locations.Get(ctx, nil, loose.ID)
	require.NoError(t, err)
	assert.Equal(t, 2011, *got.YearOfPlanting)
	got, err = f.locations.Get(ctx, nil, fixed.ID)
	require.NoError(t, err)
	assert.Equal(t, 1999, *got.YearOfPlanting)
}

func TestVineGetMissing(t *testing.T) {
	f := newFixture(t)
	_, err := f.vines.Get(context.Background(), nil, 404)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	ok, err := f.vines.Exists(context.Background(), nil, 404)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVineRemoveDeletesDependentRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.vines.Create(ctx, nil, vines.VineInput{AlphaNumericID: str("DEL")})
	require.NoError(t, err)
	in := position("South", "F2", 4, 9)
	in.VineID = &v.ID
	loc, err := f.locations.Create(ctx, nil, in)
	require.NoError(t, err)

	_, err = f.issues.Create(ctx, nil, issues.CreateInput{VineID: &v.ID, Description: "mildew", ReportedBy: &f.reporter.ID})
	require.NoError(t, err)
	_, err = f.issues.Create(ctx, nil, issues.CreateInput{VineLocationID: &loc.ID, Description: "broken post", ReportedBy: &f.reporter.ID})
	require.NoError(t, err)

	typ, err := f.types.Create(ctx, nil, maintenance.TypeInput{Name: str("Pruning")})
	require.NoError(t, err)
	at := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	_, err = f.activities.Create(ctx, nil, maintenance.ActivityInput{VineID: &v.ID, TypeID: &typ.ID, ActivityDate: &at})
	require.NoError(t, err)

	removed, err := f.vines.Remove(ctx, nil, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "DEL", *removed.AlphaNumericID)

	got, err := f.issues.GetByVineID(ctx, nil, v.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	acts, err := f.activities.GetByVineID(ctx, nil, v.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, acts)

	survivor, err := f.locations.Get(ctx, nil, loc.ID)
	require.NoError(t, err)
	assert.Nil(t, survivor.VineID)

	_, err = f.vines.Remove(ctx, nil, v.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestVineListPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := f.vines.Create(ctx, nil, vines.VineInput{AlphaNumericID: str(fmt.Sprintf("P-%d", i))})
		require.NoError(t, err)
	}

	page, err := f.vines.List(ctx, nil, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "P-2", *page[0].AlphaNumericID)
	assert.Equal(t, "P-3", *page[1].AlphaNumericID)
}
