package repos

import (
	"context"

	"gorm.io/gorm"

	"vineyard-api/internal/apperr"
	"vineyard-api/internal/domain/users"
	"vineyard-api/internal/domain/vines"
)

// ensureUsers fails NotFound for the first supplied user id with no row.
// Nil ids are skipped.
func ensureUsers(ctx context.Context, db, tx *gorm.DB, ids ...*uint) error {
	q := conn(ctx, db, tx)
	for _, id := range ids {
		if id == nil {
			continue
		}
		var n int64
		if err := q.Model(&users.User{}).Where("user_id = ?", *id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return apperr.NotFound(apperr.CodeNotFound, "user %d not found", *id)
		}
	}
	return nil
}

// resolveRefs checks the vine and location an issue or activity points at.
// Both must exist. A location linked to a vine fills in a missing vine id and
// must agree with a supplied one. It returns the effective vine id.
func resolveRefs(ctx context.Context, db, tx *gorm.DB, vineID, locationID *uint) (*uint, error) {
	q := conn(ctx, db, tx)
	if vineID != nil {
		var n int64
		if err := q.Model(&vines.Vine{}).Where("vine_id = ?", *vineID).Count(&n).Error; err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, apperr.NotFound(apperr.CodeNotFound, "vine %d not found", *vineID)
		}
	}
	if locationID == nil {
		return vineID, nil
	}

	var loc vines.VineLocation
	if err := q.Where("location_id = ?", *locationID).First(&loc).Error; err != nil {
		return nil, notFound("vine location", err)
	}
	if loc.VineID == nil {
		return vineID, nil
	}
	if vineID == nil {
		owner := *loc.VineID
		return &owner, nil
	}
	if *vineID != *loc.VineID {
		return nil, apperr.Validation(apperr.CodeMismatchedReference,
			"vine location %d belongs to vine %d, not vine %d", *locationID, *loc.VineID, *vineID)
	}
	return vineID, nil
}
