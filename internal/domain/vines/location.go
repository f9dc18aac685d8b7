package vines

import "time"

// VineLocation is a physical position. Untagged locations are identified by
// (vineyard, field, row, spot), which is unique among them.
type VineLocation struct {
	ID             uint    `gorm:"column:location_id;primaryKey" json:"id"`
	AlphaNumericID *string `gorm:"size:50;uniqueIndex:idx_vine_locations_alpha_numeric_id,where:alpha_numeric_id IS NOT NULL" json:"alpha_numeric_id"`
	VineyardName   *string `gorm:"size:255;uniqueIndex:idx_unique_location_position,priority:1,where:alpha_numeric_id IS NULL" json:"vineyard_name"`
	FieldName      *string `gorm:"size:255;uniqueIndex:idx_unique_location_position,priority:2,where:alpha_numeric_id IS NULL" json:"field_name"`
	RowNumber      *int    `gorm:"column:row_number;uniqueIndex:idx_unique_location_position,priority:3,where:alpha_numeric_id IS NULL" json:"row_number"`
	SpotNumber     *int    `gorm:"column:spot_number;uniqueIndex:idx_unique_location_position,priority:4,where:alpha_numeric_id IS NULL" json:"spot_number"`
	YearOfPlanting *int    `json:"year_of_planting"`
	VineID         *uint   `gorm:"index" json:"vine_id"`

	RecordCreated time.Time `gorm:"autoCreateTime" json:"record_created"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (VineLocation) TableName() string { return "vine_locations" }

// Position is the identity of an untagged location.
type Position struct {
	VineyardName string
	FieldName    string
	RowNumber    int
	SpotNumber   int
}

// Position returns the location's position and whether all four parts are set.
func (l *VineLocation) Position() (Position, bool) {
	if l.VineyardName == nil || l.FieldName == nil || l.RowNumber == nil || l.SpotNumber == nil {
		return Position{}, false
	}
	return Position{
		VineyardName: *l.VineyardName,
		FieldName:    *l.FieldName,
		RowNumber:    *l.RowNumber,
		SpotNumber:   *l.SpotNumber,
	}, true
}
