package users

import "time"

const (
	RoleUser          = "user"
	RoleAdministrator = "administrator"

	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

type User struct {
	ID           uint    `gorm:"column:user_id;primaryKey" json:"id"`
	UserName     string  `gorm:"size:255;not null;uniqueIndex:idx_users_user_name" json:"user_name"`
	Email        *string `gorm:"size:255;uniqueIndex:idx_users_email" json:"email"`
	FullName     string  `gorm:"size:255" json:"full_name"`
	PasswordHash *string `json:"-"`
	Role         string  `gorm:"column:user_role;size:50;not null;default:'user'" json:"user_role"`
	IsActive     bool    `gorm:"not null;default:true" json:"is_active"`
	AuthProvider string  `gorm:"type:varchar(20);not null;default:'local'" json:"auth_provider"`
	GoogleSub    *string `gorm:"uniqueIndex:idx_users_google_sub" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) IsSuperuser() bool { return u.Role == RoleAdministrator }

// DisplayName is the name shown next to issues the user reported or resolved.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.UserName
}

// Identity is the already-authenticated caller as seen by the core.
type Identity struct {
	UserID    uint
	Superuser bool
}
