package maintenance

import "time"

type Type struct {
	ID          uint      `gorm:"column:type_id;primaryKey" json:"id"`
	Name        string    `gorm:"column:type_name;size:255;not null;uniqueIndex:idx_maintenance_types_name" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Type) TableName() string { return "maintenance_types" }

// Activity is a logged maintenance event against a vine or location.
type Activity struct {
	ID             uint      `gorm:"column:activity_id;primaryKey" json:"id"`
	VineID         *uint     `gorm:"index" json:"vine_id"`
	VineLocationID *uint     `gorm:"index" json:"vine_location_id"`
	TypeID         uint      `gorm:"not null;index" json:"type_id"`
	Type           *Type     `gorm:"foreignKey:TypeID;references:ID" json:"type,omitempty"`
	ActivityDate   time.Time `gorm:"not null;index" json:"activity_date"`
	Notes          *string   `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Activity) TableName() string { return "maintenance_activities" }

type TypeInput struct {
	Name        *string
	Description *string
}

type ActivityInput struct {
	VineID         *uint
	VineLocationID *uint
	TypeID         *uint
	ActivityDate   *time.Time
	Notes          *string
}
