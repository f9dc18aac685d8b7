package vines

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vineyard-api/internal/apperr"
	"vineyard-api/internal/domain/vines"
)

func intp(v int) *int { return &v }

func TestSearchRequestPaging(t *testing.T) {
	_, page, err := SearchRequest{}.Filters()
	require.NoError(t, err)
	assert.Equal(t, vines.Page{Page: vines.DefaultPage, ItemsPerPage: vines.DefaultItemsPerPage}, page)

	_, page, err = SearchRequest{Page: intp(3), ItemsPerPage: intp(25)}.Filters()
	require.NoError(t, err)
	assert.Equal(t, vines.Page{Page: 3, ItemsPerPage: 25}, page)

	for name, req := range map[string]SearchRequest{
		"zero page":          {Page: intp(0)},
		"negative page":      {Page: intp(-2)},
		"zero page size":     {ItemsPerPage: intp(0)},
		"negative page size": {ItemsPerPage: intp(-5)},
	} {
		_, _, err := req.Filters()
		require.Error(t, err, name)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), name)
	}
}
