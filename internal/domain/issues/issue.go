package issues

import (
	"strconv"
	"time"

	"vineyard-api/internal/domain/users"
)

// Issue is a problem reported against a vine and/or a vine location.
//
// The photo columns are persisted as-is but must be read through Photo and
// written through AttachPhoto, which keeps disk and inline storage exclusive.
type Issue struct {
	ID             uint   `gorm:"column:issue_id;primaryKey" json:"id"`
	VineID         *uint  `gorm:"index" json:"vine_id"`
	VineLocationID *uint  `gorm:"index" json:"vine_location_id"`
	Description    string `gorm:"column:issue_description;type:text;not null" json:"description"`

	PhotoPath        *string `gorm:"column:photo_path" json:"-"`
	PhotoData        []byte  `gorm:"column:photo_data" json:"-"`
	PhotoContentType *string `gorm:"column:photo_content_type" json:"-"`

	DateReported time.Time  `gorm:"not null" json:"date_reported"`
	ReportedBy   uint       `gorm:"not null;index" json:"reported_by"`
	IsResolved   bool       `gorm:"not null;default:false;index" json:"is_resolved"`
	DateResolved *time.Time `json:"date_resolved"`
	ResolvedBy   *uint      `json:"resolved_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Issue) TableName() string { return "vine_issues" }

// DefaultPhotoContentType is served when a stored photo has no recorded type.
const DefaultPhotoContentType = "image/jpeg"

// Photo returns the stored photo variant, nil when the issue has none. A
// path takes precedence over a legacy blob.
func (i *Issue) Photo() Photo {
	ct := DefaultPhotoContentType
	if i.PhotoContentType != nil && *i.PhotoContentType != "" {
		ct = *i.PhotoContentType
	}
	switch {
	case i.PhotoPath != nil && *i.PhotoPath != "":
		return StoredOnDisk{Path: *i.PhotoPath, ContentType: ct}
	case len(i.PhotoData) > 0:
		return StoredInline{Data: i.PhotoData, ContentType: ct}
	}
	return nil
}

// LegacyBlob returns the inline blob if the row still carries one. It is the
// fallback when a disk photo cannot be read.
func (i *Issue) LegacyBlob() (StoredInline, bool) {
	if len(i.PhotoData) == 0 {
		return StoredInline{}, false
	}
	ct := DefaultPhotoContentType
	if i.PhotoContentType != nil && *i.PhotoContentType != "" {
		ct = *i.PhotoContentType
	}
	return StoredInline{Data: i.PhotoData, ContentType: ct}, true
}

// AttachPhoto records a new on-disk photo and clears any inline blob.
func (i *Issue) AttachPhoto(p StoredOnDisk) {
	path, ct := p.Path, p.ContentType
	i.PhotoPath = &path
	i.PhotoContentType = &ct
	i.PhotoData = nil
}

// PhotoURL is the retrieval endpoint for the issue's photo, empty when the
// issue has none.
func (i *Issue) PhotoURL() string {
	if i.Photo() == nil {
		return ""
	}
	return PhotoURL(i.ID)
}

func PhotoURL(id uint) string {
	return "/api/v1/issues/" + strconv.FormatUint(uint64(id), 10) + "/photo"
}

// RemovableBy reports whether caller may delete the issue: its reporter or
// a superuser.
func (i *Issue) RemovableBy(caller users.Identity) bool {
	return caller.Superuser || caller.UserID == i.ReportedBy
}

// Details joins an issue with the names of the people involved and the tag
// of the vine it concerns.
type Details struct {
	Issue
	ReporterName       string  `json:"reporter_name"`
	ResolverName       *string `json:"resolver_name"`
	VineAlphaNumericID *string `json:"vine_alpha_numeric_id"`
}
