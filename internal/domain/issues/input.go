package issues

import "time"

// PhotoUpload is either a base64 payload that still has to be validated and
// stored, or a file the boundary layer already stored.
type PhotoUpload struct {
	Base64      string
	ContentType string
	Stored      *StoredOnDisk
}

func (p *PhotoUpload) Empty() bool {
	return p == nil || (p.Base64 == "" && p.Stored == nil)
}

type CreateInput struct {
	VineID         *uint
	VineLocationID *uint
	Description    string
	ReportedBy     *uint
	IsResolved     bool
	DateResolved   *time.Time
	ResolvedBy     *uint
	Photo          *PhotoUpload
}

// UpdateInput holds the supplied fields only; nil leaves a field unchanged.
type UpdateInput struct {
	Description  *string
	IsResolved   *bool
	DateResolved *time.Time
	ResolvedBy   *uint
	Photo        *PhotoUpload
}

// CanonicalUserRef reconciles the two external spellings of a user reference
// ("reported_by" and "reported_by_id", likewise for resolvers). The
// _id-suffixed value wins when both are given.
func CanonicalUserRef(plain, suffixed *uint) *uint {
	if suffixed != nil {
		v := *suffixed
		return &v
	}
	if plain != nil {
		v := *plain
		return &v
	}
	return nil
}
