package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"vineyard-api/internal/apperr"
	"vineyard-api/internal/domain/issues"
	"vineyard-api/internal/domain/maintenance"
	"vineyard-api/internal/domain/vines"
	"vineyard-api/internal/metrics"
	"vineyard-api/internal/platform/logger"
)

type VineLocationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVineLocationRepo(db *gorm.DB, baseLog *logger.Logger) *VineLocationRepo {
	repoLog := baseLog.With("repo", "VineLocationRepo")
	return &VineLocationRepo{db: db, log: repoLog}
}

func positionQuery(db *gorm.DB, p vines.Position) *gorm.DB {
	return db.Where("vineyard_name = ? AND field_name = ? AND row_number = ? AND spot_number = ?",
		p.VineyardName, p.FieldName, p.RowNumber, p.SpotNumber)
}

func (r *VineLocationRepo) Create(ctx context.Context, tx *gorm.DB, in vines.LocationInput) (*vines.VineLocation, error) {
	var out *vines.VineLocation
	err := inTx(ctx, r.db, tx, func(tx *gorm.DB) error {
		var err error
		out, err = r.create(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *VineLocationRepo) create(ctx context.Context, tx *gorm.DB, in vines.LocationInput) (*vines.VineLocation, error) {
	l := &vines.VineLocation{}
	in.Apply(l)
	if err := r.checkUnique(ctx, tx, l); err != nil {
		return nil, err
	}
	if err := r.linkVine(ctx, tx, l); err != nil {
		return nil, err
	}
	if err := conn(ctx, r.db, tx).Create(l).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, r.conflictFor(l)
		}
		r.log.Error("Failed to create vine location", "error", err)
		return nil, err
	}
	r.log.Debug("Created vine location", "location_id", l.ID)
	return l, nil
}

// checkUnique applies the tag rule to tagged locations and the position rule
// to untagged ones.
func (r *VineLocationRepo) checkUnique(ctx context.Context, tx *gorm.DB, l *vines.VineLocation) error {
	db := conn(ctx, r.db, tx).Model(&vines.VineLocation{})
	if l.ID != 0 {
		db = db.Where("location_id <> ?", l.ID)
	}
	var n int64
	if l.AlphaNumericID != nil {
		if err := db.Where("alpha_numeric_id = ?", *l.AlphaNumericID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return r.conflictFor(l)
		}
		return nil
	}
	pos, ok := l.Position()
	if !ok {
		return nil
	}
	if err := positionQuery(db, pos).Where("alpha_numeric_id IS NULL").Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return r.conflictFor(l)
	}
	return nil
}

func (r *VineLocationRepo) conflictFor(l *vines.VineLocation) error {
	if l.AlphaNumericID != nil {
		return apperr.Conflict(apperr.CodeDuplicateTag, "vine location with alpha_numeric_id %q already exists", *l.AlphaNumericID)
	}
	pos, _ := l.Position()
	return apperr.Conflict(apperr.CodeDuplicatePosition,
		"an untagged vine location already exists at %s/%s row %d spot %d",
		pos.VineyardName, pos.FieldName, pos.RowNumber, pos.SpotNumber)
}

// linkVine checks the referenced vine and copies its planting year when the
// location has none.
func (r *VineLocationRepo) linkVine(ctx context.Context, tx *gorm.DB, l *vines.VineLocation) error {
	if l.VineID == nil {
		return nil
	}
	var v vines.Vine
	if err := conn(ctx, r.db, tx).Where("vine_id = ?", *l.VineID).First(&v).Error; err != nil {
		return notFound("vine", err)
	}
	if l.YearOfPlanting == nil && v.YearOfPlanting != nil {
		year := *v.YearOfPlanting
		l.YearOfPlanting = &year
	}
	return nil
}

func (r *VineLocationRepo) Get(ctx context.Context, tx *gorm.DB, id uint) (*vines.VineLocation, error) {
	var l vines.VineLocation
	if err := conn(ctx, r.db, tx).Where("location_id = ?", id).First(&l).Error; err != nil {
		return nil, notFound("vine location", err)
	}
	return &l, nil
}

func (r *VineLocationRepo) GetByTag(ctx context.Context, tx *gorm.DB, tag string) (*vines.VineLocation, error) {
	var l vines.VineLocation
	if err := conn(ctx, r.db, tx).Where("alpha_numeric_id = ?", tag).First(&l).Error; err != nil {
		return nil, notFound("vine location", err)
	}
	return &l, nil
}

// GetByPosition returns the location at p. The untagged location wins when a
// tagged one shares the position.
func (r *VineLocationRepo) GetByPosition(ctx context.Context, tx *gorm.DB, p vines.Position) (*vines.VineLocation, error) {
	var l vines.VineLocation
	err := positionQuery(conn(ctx, r.db, tx), p).
		Order("CASE WHEN alpha_numeric_id IS NULL THEN 0 ELSE 1 END").
		Order("location_id").
		First(&l).Error
	if err != nil {
		return nil, notFound("vine location", err)
	}
	return &l, nil
}

func (r *VineLocationRepo) GetByVineID(ctx context.Context, tx *gorm.DB, vineID uint) ([]vines.VineLocation, error) {
	out := []vines.VineLocation{}
	err := conn(ctx, r.db, tx).Where("vine_id = ?", vineID).Order("location_id").Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *VineLocationRepo) Update(ctx context.Context, tx *gorm.DB, id uint, in vines.LocationInput) (*vines.VineLocation, error) {
	var out *vines.VineLocation
	err := inTx(ctx, r.db, tx, func(tx *gorm.DB) error {
		l, err := r.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		out, err = r.update(ctx, tx, l, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *VineLocationRepo) update(ctx context.Context, tx *gorm.DB, l *vines.VineLocation, in vines.LocationInput) (*vines.VineLocation, error) {
	before := *l
	in.Apply(l)
	if !sameIdentity(&before, l) {
		if err := r.checkUnique(ctx, tx, l); err != nil {
			return nil, err
		}
	}
	if in.VineID != nil {
		if err := r.linkVine(ctx, tx, l); err != nil {
			return nil, err
		}
	}
	if err := conn(ctx, r.db, tx).Save(l).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, r.conflictFor(l)
		}
		r.log.Error("Failed to update vine location", "location_id", l.ID, "error", err)
		return nil, err
	}
	return l, nil
}

func sameIdentity(a, b *vines.VineLocation) bool {
	if deref(a.AlphaNumericID) != deref(b.AlphaNumericID) || (a.AlphaNumericID == nil) != (b.AlphaNumericID == nil) {
		return false
	}
	pa, okA := a.Position()
	pb, okB := b.Position()
	return okA == okB && pa == pb
}

// CreateOrUpdateByPosition upserts an untagged location keyed by its full
// position.
func (r *VineLocationRepo) CreateOrUpdateByPosition(ctx context.Context, tx *gorm.DB, in vines.LocationInput) (*vines.VineLocation, bool, error) {
	pos, ok := in.Position()
	if !ok {
		return nil, false, apperr.Validation(apperr.CodeInvalidInput,
			"vineyard_name, field_name, row_number and spot_number are all required")
	}
	var (
		out     *vines.VineLocation
		created bool
	)
	err := inTx(ctx, r.db, tx, func(tx *gorm.DB) error {
		var existing vines.VineLocation
		err := positionQuery(conn(ctx, r.db, tx), pos).Where("alpha_numeric_id IS NULL").First(&existing).Error
		switch {
		case err == nil:
			out, err = r.update(ctx, tx, &existing, in)
			return err
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			out, err = r.create(ctx, tx, in)
			return err
		default:
			return err
		}
	})
	if err != nil {
		return nil, false, err
	}
	metrics.RecordSync("location", created)
	return out, created, nil
}

// CreateOrUpdate upserts by tag when one is given, otherwise by position.
func (r *VineLocationRepo) CreateOrUpdate(ctx context.Context, tx *gorm.DB, in vines.LocationInput) (*vines.VineLocation, bool, error) {
	tag := in.Tag()
	if tag == nil {
		return r.CreateOrUpdateByPosition(ctx, tx, in)
	}
	var (
		out     *vines.VineLocation
		created bool
	)
	err := inTx(ctx, r.db, tx, func(tx *gorm.DB) error {
		var existing vines.VineLocation
		err := conn(ctx, r.db, tx).Where("alpha_numeric_id = ?", *tag).First(&existing).Error
		switch {
		case err == nil:
			out, err = r.update(ctx, tx, &existing, in)
			return err
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			out, err = r.create(ctx, tx, in)
			return err
		default:
			return err
		}
	})
	if err != nil {
		return nil, false, err
	}
	metrics.RecordSync("location", created)
	return out, created, nil
}

// Remove deletes the location and the issues and activities recorded
// against it.
func (r *VineLocationRepo) Remove(ctx context.Context, tx *gorm.DB, id uint) (*vines.VineLocation, error) {
	var removed *vines.VineLocation
	err := inTx(ctx, r.db, tx, func(tx *gorm.DB) error {
		l, err := r.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		db := conn(ctx, r.db, tx)
		if err := db.Where("vine_location_id = ?", id).Delete(&issues.Issue{}).Error; err != nil {
			return err
		}
		if err := db.Where("vine_location_id = ?", id).Delete(&maintenance.Activity{}).Error; err != nil {
			return err
		}
		if err := db.Where("location_id = ?", id).Delete(&vines.VineLocation{}).Error; err != nil {
			return err
		}
		removed = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.log.Info("Removed vine location", "location_id", id)
	return removed, nil
}
