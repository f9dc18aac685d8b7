package repos

import (
	"context"

	"gorm.io/gorm"

	"vineyard-api/internal/domain/vines"
)

// Search filters vines and returns one page plus the size of the whole
// filtered set. Location filters match when any of the vine's locations
// matches.
func (r *VineRepo) Search(ctx context.Context, tx *gorm.DB, f vines.SearchFilters, page vines.Page) (*vines.SearchResult, error) {
	page = page.Normalize()
	base := conn(ctx, r.db, tx)

	filtered := func() *gorm.DB {
		q := base.Model(&vines.Vine{})
		if f.AlphaNumericID != "" {
			q = q.Where(`LOWER(vines.alpha_numeric_id) LIKE ? ESCAPE '\'`, likeContains(f.AlphaNumericID))
		}
		if f.Variety != "" {
			q = q.Where(`LOWER(vines.variety) LIKE ? ESCAPE '\'`, likeContains(f.Variety))
		}
		if f.IsDead != nil {
			q = q.Where("vines.is_dead = ?", *f.IsDead)
		}
		if f.YearMin != nil {
			q = q.Where("vines.year_of_planting >= ?", *f.YearMin)
		}
		if f.YearMax != nil {
			q = q.Where("vines.year_of_planting <= ?", *f.YearMax)
		}

		if f.VineyardName != "" || f.FieldName != "" || f.RowNumber != nil {
			sub := base.Model(&vines.VineLocation{}).Select("vine_locations.vine_id").Where("vine_locations.vine_id IS NOT NULL")
			if f.VineyardName != "" {
				sub = sub.Where(`LOWER(vine_locations.vineyard_name) LIKE ? ESCAPE '\'`, likeContains(f.VineyardName))
			}
			if f.FieldName != "" {
				sub = sub.Where(`LOWER(vine_locations.field_name) LIKE ? ESCAPE '\'`, likeContains(f.FieldName))
			}
			if f.RowNumber != nil {
				sub = sub.Where("vine_locations.row_number = ?", *f.RowNumber)
			}
			q = q.Where("vines.vine_id IN (?)", sub)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		r.log.Error("Vine search count failed", "error", err)
		return nil, err
	}

	items := []vines.Vine{}
	if total > 0 {
		err := withLocations(filtered()).
			Order("vines.vine_id").
			Offset(page.Offset()).
			Limit(page.ItemsPerPage).
			Find(&items).Error
		if err != nil {
			r.log.Error("Vine search failed", "error", err)
			return nil, err
		}
	}
	return &vines.SearchResult{Items: items, Total: total, Page: page}, nil
}
