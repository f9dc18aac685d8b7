package repos

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"vineyard-api/internal/apperr"
	"vineyard-api/internal/domain/maintenance"
	"vineyard-api/internal/domain/vines"
	"vineyard-api/internal/platform/logger"
)

type MaintenanceTypeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaintenanceTypeRepo(db *gorm.DB, baseLog *logger.Logger) *MaintenanceTypeRepo {
	repoLog := baseLog.With("repo", "MaintenanceTypeRepo")
	return &MaintenanceTypeRepo{db: db, log: repoLog}
}

func (r *MaintenanceTypeRepo) ensureNameFree(ctx context.Context, tx *gorm.DB, name string, selfID uint) error {
	q := conn(ctx, r.db, tx).Model(&maintenance.Type{}).Where("type_name = ?", name)
	if selfID != 0 {
		q = q.Where("type_id <> ?", selfID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflict(apperr.CodeDuplicateName, "maintenance type %q already exists", name)
	}
	return nil
}

func (r *MaintenanceTypeRepo) Create(ctx context.Context, tx *gorm.DB, in maintenance.TypeInput) (*maintenance.Type, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "name is required")
	}
	t := &maintenance.Type{Name: strings.TrimSpace(*in.Name), Description: in.Description}
	err := inTx(ctx, r.db, tx, func(tx *gorm.DB) error {
		if err := r.ensureNameFree(ctx, tx, t.Name, 0); err != nil {
			return err
		}
		return conn(ctx, r.db, tx).Create(t).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict(apperr.CodeDuplicateName, "maintenance type %q already exists", t.Name)
		}
		return nil, err
	}
	return t, nil
}

func (r *MaintenanceTypeRepo) Get(ctx context.Context, tx *gorm.DB, id uint) (*maintenance.Type, error) {
	var t maintenance.Type
	if err := conn(ctx, r.db, tx).Where("type_id = ?", id).First(&t).Error; err != nil {
		return nil, notFound("maintenance type", err)
	}
	return &t, nil
}

func (r *MaintenanceTypeRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*maintenance.Type, error) {
	var t maintenance.Type
	if err := conn(ctx, r.db, tx).Where("type_name = ?", name).First(&t).Error; err != nil {
		return nil, notFound("maintenance type", err)
	}
	return &t, nil
}

func (r *MaintenanceTypeRepo) List(ctx context.Context, tx *gorm.DB, skip, limit int) ([]maintenance.Type, error) {
	skip, limit = window(skip, limit)
	out := []maintenance.Type{}
	if err := conn(ctx, r.db, tx).Order("type_id").Offset(skip).Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MaintenanceTypeRepo) Update(ctx context.Context, tx *gorm.DB, id uint, in maintenance.TypeInput) (*maintenance.Type, error) {
	var out *maintenance.Type
	err := inTx(ctx, r.db, tx, func(tx *gorm.DB) error {
		t, err := r.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return apperr.Validation(apperr.CodeInvalidInput, "name cannot be empty")
			}
			if name != t.Name {
				if err := r.ensureNameFree(ctx, tx, name, t.ID); err != nil {
					return err
				}
			}
			t.Name = name
		}
		if in.Description != nil {
			t.Description = in.Description
		}
		if err := conn(ctx, r.db, tx).Save(t).Error; err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict(apperr.CodeDuplicateName, "maintenance type %q already exists", deref(in.Name))
		}
		return nil, err
	}
	return out, nil
}

// Remove deletes a type no activity uses.
func (r *MaintenanceTypeRepo) Remove(ctx context.Context, tx *gorm.DB, id uint) (*maintenance.Type, error) {
	var removed *maintenance.Type
	err := inTx(ctx, r.db, tx, func(tx *gorm.DB) error {
		t, err := r.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		var used int64
		if err := conn(ctx, r.db, tx).Model(&maintenance.Activity{}).Where("type_id = ?", id).Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return apperr.Conflict(apperr.CodeInUse, "maintenance type %q is used by %d activities", t.Name, used)
		}
		if err := conn(ctx, r.db, tx).Where("type_id = ?", id).Delete(&maintenance.Type{}).Error; err != nil {
			return err
		}
		removed = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.log.Info("Removed maintenance type", "type_id", id)
	return removed, nil
}

type MaintenanceActivityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaintenanceActivityRepo(db *gorm.DB, baseLog *logger.Logger) *MaintenanceActivityRepo {
	repoLog := baseLog.With("repo", "MaintenanceActivityRepo")
	return &MaintenanceActivityRepo{db: db, log: repoLog}
}

func (r *MaintenanceActivityRepo) ensureType(ctx context.Context, tx *gorm.DB, typeID uint) error {
	var n int64
	if err := conn(ctx, r.db, tx).Model(&maintenance.Type{}).Where("type_id = ?", typeID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound(apperr.CodeNotFound, "maintenance type %d not found", typeID)
	}
	return nil
}

func (r *MaintenanceActivityRepo) Create(ctx context.Context, tx *gorm.DB, in maintenance.ActivityInput) (*maintenance.Activity, error) {
	if in.TypeID == nil {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "type_id is required")
	}
	if in.ActivityDate == nil {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "activity_date is required")
	}
	a := &maintenance.Activity{
		VineLocationID: in.VineLocationID,
		TypeID:         *in.TypeID,
		ActivityDate:   *in.ActivityDate,
		Notes:          in.Notes,
	}
	err := inTx(ctx, r.db, tx, func(tx *gorm.DB) error {
		if err := r.ensureType(ctx, tx, a.TypeID); err != nil {
			return err
		}
		vineID, err := resolveRefs(ctx, r.db, tx, in.VineID, in.VineLocationID)
		if err != nil {
			return err
		}
		a.VineID = vineID
		return conn(ctx, r.db, tx).Omit("Type").Create(a).Error
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *MaintenanceActivityRepo) Get(ctx context.Context, tx *gorm.DB, id uint) (*maintenance.Activity, error) {
	var a maintenance.Activity
	if err := conn(ctx, r.db, tx).Preload("Type").Where("activity_id = ?", id).First(&a).Error; err != nil {
		return nil, notFound("maintenance activity", err)
	}
	return &a, nil
}

func (r *MaintenanceActivityRepo) list(ctx context.Context, tx *gorm.DB, skip, limit int, scope func(*gorm.DB) *gorm.DB) ([]maintenance.Activity, error) {
	skip, limit = window(skip, limit)
	q := conn(ctx, r.db, tx).Preload("Type")
	if scope != nil {
		q = scope(q)
	}
	out := []maintenance.Activity{}
	err := q.Order("activity_date DESC").Order("activity_id DESC").Offset(skip).Limit(limit).Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MaintenanceActivityRepo) List(ctx context.Context, tx *gorm.DB, skip, limit int) ([]maintenance.Activity, error) {
	return r.list(ctx, tx, skip, limit, nil)
}

// GetByVineID returns the vine's activities, newest first, including those
// logged against its locations.
func (r *MaintenanceActivityRepo) GetByVineID(ctx context.Context, tx *gorm.DB, vineID uint, skip, limit int) ([]maintenance.Activity, error) {
	return r.list(ctx, tx, skip, limit, func(q *gorm.DB) *gorm.DB {
		owned := conn(ctx, r.db, tx).Model(&vines.VineLocation{}).Select("location_id").Where("vine_id = ?", vineID)
		return q.Where("vine_id = ? OR vine_location_id IN (?)", vineID, owned)
	})
}

func (r *MaintenanceActivityRepo) GetByType(ctx context.Context, tx *gorm.DB, typeID uint, skip, limit int) ([]maintenance.Activity, error) {
	return r.list(ctx, tx, skip, limit, func(q *gorm.DB) *gorm.DB {
		return q.Where("type_id = ?", typeID)
	})
}

func (r *MaintenanceActivityRepo) Update(ctx context.Context, tx *gorm.DB, id uint, in maintenance.ActivityInput) (*maintenance.Activity, error) {
	var out *maintenance.Activity
	err := inTx(ctx, r.db, tx, func(tx *gorm.DB) error {
		var a maintenance.Activity
		if err := conn(ctx, r.db, tx).Where("activity_id = ?", id).First(&a).Error; err != nil {
			return notFound("maintenance activity", err)
		}
		if in.TypeID != nil {
			if err := r.ensureType(ctx, tx, *in.TypeID); err != nil {
				return err
			}
			a.TypeID = *in.TypeID
		}
		if in.VineID != nil || in.VineLocationID != nil {
			locRef := a.VineLocationID
			if in.VineLocationID != nil {
				locRef = in.VineLocationID
			}
			// A new location alone re-derives the vine from its owner.
			vineID, err := resolveRefs(ctx, r.db, tx, in.VineID, locRef)
			if err != nil {
				return err
			}
			a.VineLocationID = locRef
			if vineID != nil {
				a.VineID = vineID
			}
		}
		if in.ActivityDate != nil {
			a.ActivityDate = *in.ActivityDate
		}
		if in.Notes != nil {
			a.Notes = in.Notes
		}
		if err := conn(ctx, r.db, tx).Omit("Type").Save(&a).Error; err != nil {
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

func (r *MaintenanceActivityRepo) Remove(ctx context.Context, tx *gorm.DB, id uint) (*maintenance.Activity, error) {
	var removed *maintenance.Activity
	err := inTx(ctx, r.db, tx, func(tx *gorm.DB) error {
		a, err := r.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := conn(ctx, r.db, tx).Where("activity_id = ?", id).Delete(&maintenance.Activity{}).Error; err != nil {
			return err
		}
		removed = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}
