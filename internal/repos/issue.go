package repos

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"vineyard-api/internal/apperr"
	"vineyard-api/internal/domain/issues"
	"vineyard-api/internal/domain/users"
	"vineyard-api/internal/domain/vines"
	"vineyard-api/internal/infra/imagestore"
	"vineyard-api/internal/platform/logger"
)

// minBlobBytes is the smallest inline photo considered intact.
const minBlobBytes = 10

// PhotoStore is the part of the image store the issue repository needs.
type PhotoStore interface {
	ProcessBase64(payload, fallbackType string) (imagestore.Stored, error)
	Exists(rel string) bool
	Read(rel string) ([]byte, error)
	Remove(rel string) error
}

// PhotoContent is a photo ready to be served.
type PhotoContent struct {
	Data        []byte
	ContentType string
}

type IssueRepo struct {
	db    *gorm.DB
	store PhotoStore
	log   *logger.Logger
	now   func() time.Time
}

func NewIssueRepo(db *gorm.DB, store PhotoStore, baseLog *logger.Logger) *IssueRepo {
	repoLog := baseLog.With("repo", "IssueRepo")
	return &IssueRepo{
		db:    db,
		store: store,
		log:   repoLog,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// preparePhoto turns an upload into a stored file. It runs before any
// transaction is opened.
func (r *IssueRepo) preparePhoto(p *issues.PhotoUpload) (*issues.StoredOnDisk, error) {
	if p.Empty() {
		return nil, nil
	}
	if p.Stored != nil {
		return p.Stored, nil
	}
	stored, err := r.store.ProcessBase64(p.Base64, p.ContentType)
	if err != nil {
		return nil, err
	}
	return &issues.StoredOnDisk{Path: stored.RelPath, ContentType: stored.MIME}, nil
}

// rejectUpload drops a file the boundary layer stored when the call fails
// before the record is written.
func (r *IssueRepo) rejectUpload(p *issues.PhotoUpload, err error) (*issues.Issue, error) {
	if p != nil {
		r.discardPhoto(p.Stored)
	}
	return nil, err
}

// discardPhoto removes a photo whose record write failed.
func (r *IssueRepo) discardPhoto(photo *issues.StoredOnDisk) {
	if photo == nil {
		return
	}
	if err := r.store.Remove(photo.Path); err != nil {
		r.log.Warn("Failed to remove orphaned photo", "path", photo.Path, "error", err)
	}
}

// Create stores the photo first, then writes the issue. A photo that fails
// validation or storage aborts the call before anything is written.
func (r *IssueRepo) Create(ctx context.Context, tx *gorm.DB, in issues.CreateInput) (*issues.Issue, error) {
	if strings.TrimSpace(in.Description) == "" {
		return r.rejectUpload(in.Photo, apperr.Validation(apperr.CodeInvalidInput, "description is required"))
	}
	if in.ReportedBy == nil {
		return r.rejectUpload(in.Photo, apperr.Validation(apperr.CodeMissingReporter, "reported_by is required"))
	}

	issue := &issues.Issue{
		VineLocationID: in.VineLocationID,
		Description:    in.Description,
		DateReported:   r.now(),
		ReportedBy:     *in.ReportedBy,
	}
	if in.IsResolved {
		if err := r.resolve(issue, in.DateResolved, in.ResolvedBy); err != nil {
			return r.rejectUpload(in.Photo, err)
		}
	}

	photo, err := r.preparePhoto(in.Photo)
	if err != nil {
		return nil, err
	}
	if photo != nil {
		issue.AttachPhoto(*photo)
	}

	err = inTx(ctx, r.db, tx, func(tx *gorm.DB) error {
		if err := ensureUsers(ctx, r.db, tx, &issue.ReportedBy, issue.ResolvedBy); err != nil {
			return err
		}
		vineID, err := resolveRefs(ctx, r.db, tx, in.VineID, in.VineLocationID)
		if err != nil {
			return err
		}
		issue.VineID = vineID
		return conn(ctx, r.db, tx).Create(issue).Error
	})
	if err != nil {
		r.discardPhoto(photo)
		r.log.Warn("Failed to create issue", "error", err)
		return nil, err
	}
	r.log.Info("Created issue", "issue_id", issue.ID, "has_photo", photo != nil)
	return issue, nil
}

// resolve marks the issue resolved. The timestamp defaults to now unless one
// is supplied or already recorded; a resolver is required.
func (r *IssueRepo) resolve(issue *issues.Issue, at *time.Time, by *uint) error {
	issue.IsResolved = true
	switch {
	case at != nil:
		t := *at
		issue.DateResolved = &t
	case issue.DateResolved == nil:
		t := r.now()
		issue.DateResolved = &t
	}
	if by != nil {
		v := *by
		issue.ResolvedBy = &v
	}
	if issue.ResolvedBy == nil {
		return apperr.Validation(apperr.CodeMissingResolver, "resolved_by is required when resolving an issue")
	}
	return nil
}

func (r *IssueRepo) Get(ctx context.Context, tx *gorm.DB, id uint) (*issues.Issue, error) {
	var issue issues.Issue
	if err := conn(ctx, r.db, tx).Where("issue_id = ?", id).First(&issue).Error; err != nil {
		return nil, notFound("issue", err)
	}
	return &issue, nil
}

// Update applies the supplied fields. As with Create, a new photo is stored
// before the record is touched.
func (r *IssueRepo) Update(ctx context.Context, tx *gorm.DB, id uint, in issues.UpdateInput) (*issues.Issue, error) {
	if _, err := r.Get(ctx, tx, id); err != nil {
		return r.rejectUpload(in.Photo, err)
	}
	if in.Description != nil && strings.TrimSpace(*in.Description) == "" {
		return r.rejectUpload(in.Photo, apperr.Validation(apperr.CodeInvalidInput, "description cannot be empty"))
	}

	photo, err := r.preparePhoto(in.Photo)
	if err != nil {
		return nil, err
	}

	var (
		out      *issues.Issue
		oldPhoto string
	)
	err = inTx(ctx, r.db, tx, func(tx *gorm.DB) error {
		issue, err := r.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := ensureUsers(ctx, r.db, tx, in.ResolvedBy); err != nil {
			return err
		}
		if in.Description != nil {
			issue.Description = *in.Description
		}
		switch {
		case in.IsResolved != nil && *in.IsResolved:
			if err := r.resolve(issue, in.DateResolved, in.ResolvedBy); err != nil {
				return err
			}
		case in.IsResolved != nil:
			issue.IsResolved = false
			issue.DateResolved = nil
			issue.ResolvedBy = nil
		default:
			if in.DateResolved != nil {
				t := *in.DateResolved
				issue.DateResolved = &t
			}
			if in.ResolvedBy != nil {
				v := *in.ResolvedBy
				issue.ResolvedBy = &v
			}
		}
		if photo != nil {
			if issue.PhotoPath != nil {
				oldPhoto = *issue.PhotoPath
			}
			issue.AttachPhoto(*photo)
		}
		if err := conn(ctx, r.db, tx).Save(issue).Error; err != nil {
			return err
		}
		out = issue
		return nil
	})
	if err != nil {
		r.discardPhoto(photo)
		return nil, err
	}
	if oldPhoto != "" && oldPhoto != photo.Path {
		r.discardPhoto(&issues.StoredOnDisk{Path: oldPhoto})
	}
	r.log.Info("Updated issue", "issue_id", id, "new_photo", photo != nil)
	return out, nil
}

// Remove deletes the issue if caller reported it or is a superuser.
func (r *IssueRepo) Remove(ctx context.Context, tx *gorm.DB, id uint, caller users.Identity) (*issues.Issue, error) {
	var removed *issues.Issue
	err := inTx(ctx, r.db, tx, func(tx *gorm.DB) error {
		issue, err := r.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		if !issue.RemovableBy(caller) {
			return apperr.Forbidden("only the reporter or an administrator can delete issue %d", id)
		}
		if err := conn(ctx, r.db, tx).Where("issue_id = ?", id).Delete(&issues.Issue{}).Error; err != nil {
			return err
		}
		removed = issue
		return nil
	})
	if err != nil {
		return nil, err
	}
	if removed.PhotoPath != nil && *removed.PhotoPath != "" {
		r.discardPhoto(&issues.StoredOnDisk{Path: *removed.PhotoPath})
	}
	r.log.Info("Removed issue", "issue_id", id, "user_id", caller.UserID)
	return removed, nil
}

func (r *IssueRepo) list(ctx context.Context, tx *gorm.DB, skip, limit int, scope func(*gorm.DB) *gorm.DB) ([]issues.Issue, error) {
	skip, limit = window(skip, limit)
	q := conn(ctx, r.db, tx)
	if scope != nil {
		q = scope(q)
	}
	out := []issues.Issue{}
	err := q.Order("date_reported DESC").Order("issue_id DESC").Offset(skip).Limit(limit).Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// List returns issues newest first.
func (r *IssueRepo) List(ctx context.Context, tx *gorm.DB, skip, limit int) ([]issues.Issue, error) {
	return r.list(ctx, tx, skip, limit, nil)
}

// GetByVineID returns the issues recorded against the vine or any of its
// locations. An unknown vine yields an empty list.
func (r *IssueRepo) GetByVineID(ctx context.Context, tx *gorm.DB, vineID uint, skip, limit int) ([]issues.Issue, error) {
	return r.list(ctx, tx, skip, limit, func(q *gorm.DB) *gorm.DB {
		owned := conn(ctx, r.db, tx).Model(&vines.VineLocation{}).Select("location_id").Where("vine_id = ?", vineID)
		return q.Where("vine_id = ? OR vine_location_id IN (?)", vineID, owned)
	})
}

func (r *IssueRepo) GetByLocationID(ctx context.Context, tx *gorm.DB, locationID uint, skip, limit int) ([]issues.Issue, error) {
	return r.list(ctx, tx, skip, limit, func(q *gorm.DB) *gorm.DB {
		return q.Where("vine_location_id = ?", locationID)
	})
}

func (r *IssueRepo) GetByStatus(ctx context.Context, tx *gorm.DB, resolved bool, skip, limit int) ([]issues.Issue, error) {
	return r.list(ctx, tx, skip, limit, func(q *gorm.DB) *gorm.DB {
		return q.Where("is_resolved = ?", resolved)
	})
}

// Photo returns the bytes to serve for the issue's photo. A readable file
// wins, then the legacy inline blob.
func (r *IssueRepo) Photo(ctx context.Context, tx *gorm.DB, id uint) (*PhotoContent, error) {
	issue, err := r.Get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if disk, ok := issue.Photo().(issues.StoredOnDisk); ok {
		if r.store.Exists(disk.Path) {
			data, err := r.store.Read(disk.Path)
			if err == nil {
				return &PhotoContent{Data: data, ContentType: disk.ContentType}, nil
			}
			r.log.Warn("Failed to read photo", "issue_id", id, "path", disk.Path, "error", err)
		} else {
			r.log.Warn("Photo file missing", "issue_id", id, "path", disk.Path)
		}
	}
	if blob, ok := issue.LegacyBlob(); ok {
		if len(blob.Data) < minBlobBytes {
			return nil, apperr.DataIntegrity("photo data for issue %d is corrupt (%d bytes)", id, len(blob.Data))
		}
		return &PhotoContent{Data: blob.Data, ContentType: blob.ContentType}, nil
	}
	return nil, apperr.NotFound(apperr.CodeNoPhoto, "issue %d has no photo", id)
}

// GetWithDetails returns the issue with reporter and resolver names and the
// tag of its vine.
func (r *IssueRepo) GetWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*issues.Details, error) {
	issue, err := r.Get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	details, err := r.details(ctx, tx, []issues.Issue{*issue})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func (r *IssueRepo) ListWithDetails(ctx context.Context, tx *gorm.DB, skip, limit int) ([]issues.Details, error) {
	list, err := r.List(ctx, tx, skip, limit)
	if err != nil {
		return nil, err
	}
	return r.details(ctx, tx, list)
}

// details batch-loads the people and vines referenced by list.
func (r *IssueRepo) details(ctx context.Context, tx *gorm.DB, list []issues.Issue) ([]issues.Details, error) {
	userIDs := map[uint]struct{}{}
	vineIDs := map[uint]struct{}{}
	for _, i := range list {
		userIDs[i.ReportedBy] = struct{}{}
		if i.ResolvedBy != nil {
			userIDs[*i.ResolvedBy] = struct{}{}
		}
		if i.VineID != nil {
			vineIDs[*i.VineID] = struct{}{}
		}
	}

	q := conn(ctx, r.db, tx)
	names := map[uint]string{}
	if len(userIDs) > 0 {
		var people []users.User
		if err := q.Where("user_id IN ?", keys(userIDs)).Find(&people).Error; err != nil {
			return nil, err
		}
		for i := range people {
			names[people[i].ID] = people[i].DisplayName()
		}
	}
	tags := map[uint]*string{}
	if len(vineIDs) > 0 {
		var vs []vines.Vine
		if err := q.Select("vine_id", "alpha_numeric_id").Where("vine_id IN ?", keys(vineIDs)).Find(&vs).Error; err != nil {
			return nil, err
		}
		for _, v := range vs {
			tags[v.ID] = v.AlphaNumericID
		}
	}

	out := make([]issues.Details, 0, len(list))
	for _, i := range list {
		d := issues.Details{Issue: i, ReporterName: names[i.ReportedBy]}
		if i.ResolvedBy != nil {
			if name, ok := names[*i.ResolvedBy]; ok {
				d.ResolverName = &name
			}
		}
		if i.VineID != nil {
			d.VineAlphaNumericID = tags[*i.VineID]
		}
		out = append(out, d)
	}
	return out, nil
}

func keys(m map[uint]struct{}) []uint {
	out := make([]uint, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
