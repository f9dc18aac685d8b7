package vines

import (
	"vineyard-api/internal/api/httpx"
	"vineyard-api/internal/apperr"
	"vineyard-api/internal/domain/vines"
)

// ---------- requests

type VineRequest struct {
	AlphaNumericID *string          `json:"alpha_numeric_id"`
	YearOfPlanting *int             `json:"year_of_planting"`
	Nursery        *string          `json:"nursery"`
	Variety        *string          `json:"variety"`
	Rootstock      *string          `json:"rootstock"`
	IsDead         *bool            `json:"is_dead"`
	DateDied       *httpx.Timestamp `json:"date_died"`
}

func (r VineRequest) Input() vines.VineInput {
	return vines.VineInput{
		AlphaNumericID: r.AlphaNumericID,
		YearOfPlanting: r.YearOfPlanting,
		Nursery:        r.Nursery,
		Variety:        r.Variety,
		Rootstock:      r.Rootstock,
		IsDead:         r.IsDead,
		DateDied:       r.DateDied.Ptr(),
	}
}

// SyncRequest is the payload field clients send: vine attributes plus the
// position the vine stands at.
type SyncRequest struct {
	VineRequest
	VineyardName *string `json:"vineyard_name"`
	FieldName    *string `json:"field_name"`
	RowNumber    *int    `json:"row_number"`
	SpotNumber   *int    `json:"spot_number"`
}

func (r SyncRequest) Input() vines.SyncInput {
	return vines.SyncInput{
		Vine: r.VineRequest.Input(),
		Location: vines.LocationInput{
			VineyardName: r.VineyardName,
			FieldName:    r.FieldName,
			RowNumber:    r.RowNumber,
			SpotNumber:   r.SpotNumber,
		},
	}
}

type LocationRequest struct {
	AlphaNumericID *string `json:"alpha_numeric_id"`
	VineyardName   *string `json:"vineyard_name"`
	FieldName      *string `json:"field_name"`
	RowNumber      *int    `json:"row_number"`
	SpotNumber     *int    `json:"spot_number"`
	YearOfPlanting *int    `json:"year_of_planting"`
	VineID         *uint   `json:"vine_id"`
}

func (r LocationRequest) Input() vines.LocationInput {
	return vines.LocationInput{
		AlphaNumericID: r.AlphaNumericID,
		VineyardName:   r.VineyardName,
		FieldName:      r.FieldName,
		RowNumber:      r.RowNumber,
		SpotNumber:     r.SpotNumber,
		YearOfPlanting: r.YearOfPlanting,
		VineID:         r.VineID,
	}
}

type SearchRequest struct {
	AlphaNumericID string `json:"alpha_numeric_id"`
	Variety        string `json:"variety"`
	VineyardName   string `json:"vineyard_name"`
	FieldName      string `json:"field_name"`
	RowNumber      *int   `json:"row_number"`
	IsDead         *bool  `json:"is_dead"`
	YearMin        *int   `json:"year_min"`
	YearMax        *int   `json:"year_max"`
	Page           *int   `json:"page"`
	ItemsPerPage   *int   `json:"items_per_page"`
}

// Filters splits the request into filters and a page window. Omitted
// paging fields take the defaults; explicit values below 1 are rejected.
func (r SearchRequest) Filters() (vines.SearchFilters, vines.Page, error) {
	page := vines.Page{Page: vines.DefaultPage, ItemsPerPage: vines.DefaultItemsPerPage}
	if r.Page != nil {
		if *r.Page < 1 {
			return vines.SearchFilters{}, page, apperr.Validation(apperr.CodeInvalidInput, "page must be >= 1")
		}
		page.Page = *r.Page
	}
	if r.ItemsPerPage != nil {
		if *r.ItemsPerPage < 1 {
			return vines.SearchFilters{}, page, apperr.Validation(apperr.CodeInvalidInput, "items_per_page must be >= 1")
		}
		page.ItemsPerPage = *r.ItemsPerPage
	}
	f := vines.SearchFilters{
		AlphaNumericID: r.AlphaNumericID,
		Variety:        r.Variety,
		VineyardName:   r.VineyardName,
		FieldName:      r.FieldName,
		RowNumber:      r.RowNumber,
		IsDead:         r.IsDead,
		YearMin:        r.YearMin,
		YearMax:        r.YearMax,
	}
	return f, page, nil
}

// ---------- responses

type SearchResponse struct {
	Items        []vines.Vine `json:"items"`
	Total        int64        `json:"total"`
	Page         int          `json:"page"`
	ItemsPerPage int          `json:"items_per_page"`
	Pages        int64        `json:"pages"`
}

func searchResponse(res *vines.SearchResult) SearchResponse {
	return SearchResponse{
		Items:        res.Items,
		Total:        res.Total,
		Page:         res.Page.Page,
		ItemsPerPage: res.Page.ItemsPerPage,
		Pages:        res.Page.Pages(res.Total),
	}
}
