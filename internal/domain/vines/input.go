package vines

import "time"

// VineInput carries the fields a caller explicitly supplied. Nil means
// "not supplied" and leaves the stored value untouched on update.
type VineInput struct {
	AlphaNumericID *string
	YearOfPlanting *int
	Nursery        *string
	Variety        *string
	Rootstock      *string
	IsDead         *bool
	DateDied       *time.Time
}

// Apply merges the supplied fields over v. A vine that ends up alive never
// keeps a date of death.
func (in VineInput) Apply(v *Vine) {
	if in.AlphaNumericID != nil {
		v.AlphaNumericID = normalizeTag(in.AlphaNumericID)
	}
	if in.YearOfPlanting != nil {
		v.YearOfPlanting = in.YearOfPlanting
	}
	if in.Nursery != nil {
		v.Nursery = in.Nursery
	}
	if in.Variety != nil {
		v.Variety = in.Variety
	}
	if in.Rootstock != nil {
		v.Rootstock = in.Rootstock
	}
	if in.IsDead != nil {
		v.IsDead = *in.IsDead
	}
	if in.DateDied != nil {
		v.DateDied = in.DateDied
	}
	if !v.IsDead {
		v.DateDied = nil
	}
}

// Tag returns the normalised tag, nil when absent or blank.
func (in VineInput) Tag() *string { return normalizeTag(in.AlphaNumericID) }

// LocationInput is the partial-update counterpart of VineLocation.
type LocationInput struct {
	AlphaNumericID *string
	VineyardName   *string
	FieldName      *string
	RowNumber      *int
	SpotNumber     *int
	YearOfPlanting *int
	VineID         *uint
}

func (in LocationInput) Apply(l *VineLocation) {
	if in.AlphaNumericID != nil {
		l.AlphaNumericID = normalizeTag(in.AlphaNumericID)
	}
	if in.VineyardName != nil {
		l.VineyardName = in.VineyardName
	}
	if in.FieldName != nil {
		l.FieldName = in.FieldName
	}
	if in.RowNumber != nil {
		l.RowNumber = in.RowNumber
	}
	if in.SpotNumber != nil {
		l.SpotNumber = in.SpotNumber
	}
	if in.YearOfPlanting != nil {
		l.YearOfPlanting = in.YearOfPlanting
	}
	if in.VineID != nil {
		l.VineID = in.VineID
	}
}

func (in LocationInput) Tag() *string { return normalizeTag(in.AlphaNumericID) }

// Position returns the supplied position and whether all four parts are set.
func (in LocationInput) Position() (Position, bool) {
	l := VineLocation{VineyardName: in.VineyardName, FieldName: in.FieldName, RowNumber: in.RowNumber, SpotNumber: in.SpotNumber}
	return l.Position()
}

// HasPosition reports whether any position part was supplied.
func (in LocationInput) HasPosition() bool {
	return in.VineyardName != nil || in.FieldName != nil || in.RowNumber != nil || in.SpotNumber != nil
}

// An empty tag is stored as NULL so it never competes for uniqueness.
func normalizeTag(tag *string) *string {
	if tag == nil || *tag == "" {
		return nil
	}
	t := *tag
	return &t
}

// SyncInput is the combined payload field clients send: vine attributes plus
// where the vine stands. The location shares the vine's tag.
type SyncInput struct {
	Vine     VineInput
	Location LocationInput
}
