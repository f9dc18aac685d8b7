package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vineyard-api/internal/apperr"
	"vineyard-api/internal/domain/issues"
	"vineyard-api/internal/domain/maintenance"
	"vineyard-api/internal/domain/vines"
	"vineyard-api/internal/metrics"
	"vineyard-api/internal/platform/logger"
)

type VineRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVineRepo(db *gorm.DB, baseLog *logger.Logger) *VineRepo {
	repoLog := baseLog.With("repo", "VineRepo")
	return &VineRepo{db: db, log: repoLog}
}

func withLocations(db *gorm.DB) *gorm.DB {
	return db.Preload("Locations", func(db *gorm.DB) *gorm.DB {
		return db.Order("vine_locations.location_id")
	})
}

// Create inserts a new vine. A tag already held by another vine is a
// conflict.
func (r *VineRepo) Create(ctx context.Context, tx *gorm.DB, in vines.VineInput) (*vines.Vine, error) {
	var out *vines.Vine
	err := inTx(ctx, r.db, tx, func(tx *gorm.DB) error {
		v, err := r.create(ctx, tx, in)
		if err != nil {
			return err
		}
		out, err = r.Get(ctx, tx, v.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *VineRepo) create(ctx context.Context, tx *gorm.DB, in vines.VineInput) (*vines.Vine, error) {
	if tag := in.Tag(); tag != nil {
		if err := r.ensureTagFree(ctx, tx, *tag, 0); err != nil {
			return nil, err
		}
	}
	v := &vines.Vine{}
	in.Apply(v)
	if err := conn(ctx, r.db, tx).Omit(clause.Associations).Create(v).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict(apperr.CodeDuplicateTag, "vine with alpha_numeric_id %q already exists", deref(v.AlphaNumericID))
		}
		r.log.Error("Failed to create vine", "error", err)
		return nil, err
	}
	r.log.Debug("Created vine", "vine_id", v.ID)
	return v, nil
}

func (r *VineRepo) ensureTagFree(ctx context.Context, tx *gorm.DB, tag string, selfID uint) error {
	var n int64
	q := conn(ctx, r.db, tx).Model(&vines.Vine{}).Where("alpha_numeric_id = ?", tag)
	if selfID != 0 {
		q = q.Where("vine_id <> ?", selfID)
	}
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflict(apperr.CodeDuplicateTag, "vine with alpha_numeric_id %q already exists", tag)
	}
	return nil
}

// Get returns the vine with its locations.
func (r *VineRepo) Get(ctx context.Context, tx *gorm.DB, id uint) (*vines.Vine, error) {
	var v vines.Vine
	err := withLocations(conn(ctx, r.db, tx)).Where("vine_id = ?", id).First(&v).Error
	if err != nil {
		return nil, notFound("vine", err)
	}
	return &v, nil
}

// GetByTag returns the vine carrying tag, with its locations.
func (r *VineRepo) GetByTag(ctx context.Context, tx *gorm.DB, tag string) (*vines.Vine, error) {
	var v vines.Vine
	err := withLocations(conn(ctx, r.db, tx)).Where("alpha_numeric_id = ?", tag).First(&v).Error
	if err != nil {
		return nil, notFound("vine", err)
	}
	return &v, nil
}

// Exists reports whether a vine with id is stored.
func (r *VineRepo) Exists(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	var n int64
	if err := conn(ctx, r.db, tx).Model(&vines.Vine{}).Where("vine_id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// List pages through vines ordered by id.
func (r *VineRepo) List(ctx context.Context, tx *gorm.DB, skip, limit int) ([]vines.Vine, error) {
	skip, limit = window(skip, limit)
	out := []vines.Vine{}
	err := withLocations(conn(ctx, r.db, tx)).
		Order("vines.vine_id").
		Offset(skip).
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update merges the supplied fields into the stored vine.
func (r *VineRepo) Update(ctx context.Context, tx *gorm.DB, id uint, in vines.VineInput) (*vines.Vine, error) {
	var out *vines.Vine
	err := inTx(ctx, r.db, tx, func(tx *gorm.DB) error {
		var v vines.Vine
		if err := conn(ctx, r.db, tx).Where("vine_id = ?", id).First(&v).Error; err != nil {
			return notFound("vine", err)
		}
		if err := r.apply(ctx, tx, &v, in); err != nil {
			return err
		}
		var err error
		out, err = r.Get(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *VineRepo) apply(ctx context.Context, tx *gorm.DB, v *vines.Vine, in vines.VineInput) error {
	if tag := in.Tag(); tag != nil && (v.AlphaNumericID == nil || *v.AlphaNumericID != *tag) {
		if err := r.ensureTagFree(ctx, tx, *tag, v.ID); err != nil {
			return err
		}
	}
	in.Apply(v)
	if err := conn(ctx, r.db, tx).Omit(clause.Associations).Save(v).Error; err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict(apperr.CodeDuplicateTag, "vine with alpha_numeric_id %q already exists", deref(v.AlphaNumericID))
		}
		r.log.Error("Failed to update vine", "vine_id", v.ID, "error", err)
		return err
	}
	if v.YearOfPlanting != nil {
		// Linked locations without their own year follow the vine.
		err := conn(ctx, r.db, tx).Model(&vines.VineLocation{}).
			Where("vine_id = ? AND year_of_planting IS NULL", v.ID).
			Update("year_of_planting", *v.YearOfPlanting).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// CreateOrUpdate upserts by tag. Without a tag it is a plain create. The
// second return value reports whether a new vine was created.
func (r *VineRepo) CreateOrUpdate(ctx context.Context, tx *gorm.DB, in vines.VineInput) (*vines.Vine, bool, error) {
	var (
		out     *vines.Vine
		created bool
	)
	err := inTx(ctx, r.db, tx, func(tx *gorm.DB) error {
		id, isNew, err := r.upsert(ctx, tx, in)
		if err != nil {
			return err
		}
		created = isNew
		out, err = r.Get(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	metrics.RecordSync("vine", created)
	return out, created, nil
}

func (r *VineRepo) upsert(ctx context.Context, tx *gorm.DB, in vines.VineInput) (uint, bool, error) {
	tag := in.Tag()
	if tag != nil {
		var existing vines.Vine
		err := conn(ctx, r.db, tx).Where("alpha_numeric_id = ?", *tag).First(&existing).Error
		switch {
		case err == nil:
			if err := r.apply(ctx, tx, &existing, in); err != nil {
				return 0, false, err
			}
			r.log.Debug("Updated vine by tag", "vine_id", existing.ID)
			return existing.ID, false, nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return 0, false, err
		}
	}
	v, err := r.create(ctx, tx, in)
	if err != nil {
		return 0, false, err
	}
	return v.ID, true, nil
}

// Remove deletes the vine together with its issues and maintenance
// activities. Its locations survive, unlinked.
func (r *VineRepo) Remove(ctx context.Context, tx *gorm.DB, id uint) (*vines.Vine, error) {
	var removed *vines.Vine
	err := inTx(ctx, r.db, tx, func(tx *gorm.DB) error {
		v, err := r.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		db := conn(ctx, r.db, tx)
		if err := db.Where("vine_id = ?", id).Delete(&issues.Issue{}).Error; err != nil {
			return err
		}
		if err := db.Where("vine_id = ?", id).Delete(&maintenance.Activity{}).Error; err != nil {
			return err
		}
		if err := db.Model(&vines.VineLocation{}).Where("vine_id = ?", id).Update("vine_id", nil).Error; err != nil {
			return err
		}
		if err := db.Where("vine_id = ?", id).Delete(&vines.Vine{}).Error; err != nil {
			return err
		}
		removed = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.log.Info("Removed vine", "vine_id", id)
	return removed, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
