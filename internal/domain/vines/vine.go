package vines

import "time"

// Vine is a planting. A vine is "tagged" when AlphaNumericID is set; tags are
// unique among tagged vines only.
type Vine struct {
	ID             uint       `gorm:"column:vine_id;primaryKey" json:"id"`
	AlphaNumericID *string    `gorm:"size:50;uniqueIndex:idx_vines_alpha_numeric_id,where:alpha_numeric_id IS NOT NULL" json:"alpha_numeric_id"`
	YearOfPlanting *int       `json:"year_of_planting"`
	Nursery        *string    `gorm:"size:255" json:"nursery"`
	Variety        *string    `gorm:"size:255;index" json:"variety"`
	Rootstock      *string    `gorm:"size:255" json:"rootstock"`
	IsDead         bool       `gorm:"not null;default:false" json:"is_dead"`
	DateDied       *time.Time `json:"date_died"`

	Locations []VineLocation `gorm:"foreignKey:VineID;references:ID;constraint:OnDelete:SET NULL;" json:"locations"`

	RecordCreated time.Time `gorm:"autoCreateTime" json:"record_created"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Vine) TableName() string { return "vines" }

// Tagged reports whether the vine carries a non-empty tag.
func (v *Vine) Tagged() bool {
	return v.AlphaNumericID != nil && *v.AlphaNumericID != ""
}
