package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"vineyard-api/internal/apperr"
	"vineyard-api/internal/domain/vines"
	"vineyard-api/internal/metrics"
	"vineyard-api/internal/platform/logger"
)

// InventoryRepo applies combined vine + location sync payloads in a single
// transaction.
type InventoryRepo struct {
	db        *gorm.DB
	vines     *VineRepo
	locations *VineLocationRepo
	log       *logger.Logger
}

func NewInventoryRepo(db *gorm.DB, vineRepo *VineRepo, locationRepo *VineLocationRepo, baseLog *logger.Logger) *InventoryRepo {
	repoLog := baseLog.With("repo", "InventoryRepo")
	return &InventoryRepo{db: db, vines: vineRepo, locations: locationRepo, log: repoLog}
}

// Sync creates or updates a vine and its location. Tagged payloads match on
// the tag; untagged payloads match on the full position. It returns the
// vine with locations loaded and whether the vine was created.
func (r *InventoryRepo) Sync(ctx context.Context, tx *gorm.DB, in vines.SyncInput) (*vines.Vine, bool, error) {
	tag := in.Vine.Tag()
	in.Location.AlphaNumericID = tag
	in.Location.VineID = nil

	var (
		out     *vines.Vine
		created bool
	)
	err := inTx(ctx, r.db, tx, func(tx *gorm.DB) error {
		var (
			vineID uint
			err    error
		)
		if tag != nil {
			vineID, created, err = r.syncTagged(ctx, tx, in)
		} else {
			vineID, created, err = r.syncUntagged(ctx, tx, in)
		}
		if err != nil {
			return err
		}
		out, err = r.vines.Get(ctx, tx, vineID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	// Tagged syncs are counted by VineRepo.CreateOrUpdate.
	if tag == nil {
		metrics.RecordSync("vine", created)
	}
	r.log.Debug("Synced vine", "vine_id", out.ID, "created", created)
	return out, created, nil
}

func (r *InventoryRepo) syncTagged(ctx context.Context, tx *gorm.DB, in vines.SyncInput) (uint, bool, error) {
	v, created, err := r.vines.CreateOrUpdate(ctx, tx, in.Vine)
	if err != nil {
		return 0, false, err
	}
	vineID := v.ID

	existing, err := r.locations.GetByTag(ctx, tx, *in.Location.AlphaNumericID)
	switch {
	case err == nil:
		in.Location.VineID = &vineID
		_, err = r.locations.update(ctx, tx, existing, in.Location)
		return vineID, created, err
	case !apperr.Is(err, apperr.KindNotFound):
		return 0, false, err
	}
	if !in.Location.HasPosition() {
		return vineID, created, nil
	}
	in.Location.VineID = &vineID
	if _, err := r.locations.create(ctx, tx, in.Location); err != nil {
		return 0, false, err
	}
	return vineID, created, nil
}

func (r *InventoryRepo) syncUntagged(ctx context.Context, tx *gorm.DB, in vines.SyncInput) (uint, bool, error) {
	if !in.Location.HasPosition() {
		v, err := r.vines.create(ctx, tx, in.Vine)
		if err != nil {
			return 0, false, err
		}
		return v.ID, true, nil
	}
	if _, ok := in.Location.Position(); !ok {
		return 0, false, apperr.Validation(apperr.CodeInvalidInput,
			"untagged vines need vineyard_name, field_name, row_number and spot_number")
	}

	loc, _, err := r.locations.CreateOrUpdateByPosition(ctx, tx, in.Location)
	if err != nil {
		return 0, false, err
	}

	if loc.VineID != nil {
		var v vines.Vine
		err := conn(ctx, r.db, tx).Where("vine_id = ?", *loc.VineID).First(&v).Error
		switch {
		case err == nil:
			if err := r.vines.apply(ctx, tx, &v, in.Vine); err != nil {
				return 0, false, err
			}
			return v.ID, false, nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return 0, false, err
		}
	}

	v, err := r.vines.create(ctx, tx, in.Vine)
	if err != nil {
		return 0, false, err
	}
	_, err = r.locations.update(ctx, tx, loc, vines.LocationInput{VineID: &v.ID})
	if err != nil {
		return 0, false, err
	}
	return v.ID, true, nil
}
