package domain

import "time"

// UserRole is the account tier.
type UserRole string

const (
	RoleWarrior UserRole = "warrior"
	RoleAdmin   UserRole = "admin"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleWarrior || r == RoleAdmin
}

// User is a registered account. PasswordHash never leaves the service layer;
// handlers render Profile instead.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	PasswordHash   string    `json:"passwordHash"`
	Role           UserRole  `json:"role"`
	InvitationCode string    `json:"invitationCode"`
	InvitedBy      string    `json:"invitedBy,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	TradingStyle   string    `json:"tradingStyle,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Profile is the public view of a user.
type Profile struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         UserRole  `json:"role"`
	Bio          string    `json:"bio,omitempty"`
	TradingStyle string    `json:"tradingStyle,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Profile returns the public view of u.
func (u User) Profile() Profile {
	return Profile{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         u.Role,
		Bio:          u.Bio,
		TradingStyle: u.TradingStyle,
		CreatedAt:    u.CreatedAt,
	}
}

// InvitationCode gates registration.
type InvitationCode struct {
	Code      string    `json:"code"`
	CreatedBy string    `json:"createdBy"`
	MaxUses   int       `json:"maxUses"`
	Uses      int       `json:"uses"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"createdAt"`
}

// Usable reports whether the code can still admit a new user at now.
func (c InvitationCode) Usable(now time.Time) bool {
	if c.Revoked {
		return false
	}
	if c.MaxUses > 0 && c.Uses >= c.MaxUses {
		return false
	}
	if !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt) {
		return false
	}
	return true
}
