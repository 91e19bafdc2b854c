package model

import "time"

// User roles as carried in the identity token's "role" claim. Authentication
// itself is external; the service only verifies and reads claims.
const (
	RoleCustomer   = "customer"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Profile is the loyalty-bearing user record. Points is the only mutable
// field here and is written solely through the profile repository's atomic
// award/redeem updates.
//
// Fields:
//  UserID    – primary key, matches the identity token subject.
//  Name      – display name.
//  Email     – contact email.
//  Role      – role name (customer, admin, super_admin).
//  Points    – loyalty point balance, never negative.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last modification timestamp.
type Profile struct {
	UserID    uint64    `json:"user_id"`    // user_profiles.user_id
	Name      string    `json:"name"`       // user_profiles.name
	Email     string    `json:"email"`      // user_profiles.email
	Role      string    `json:"role"`       // user_profiles.role
	Points    int64     `json:"points"`     // user_profiles.points
	CreatedAt time.Time `json:"created_at"` // user_profiles.created_at
	UpdatedAt time.Time `json:"updated_at"` // user_profiles.updated_at
}

// MerchItem is a catalog item redeemable for points.
type MerchItem struct {
	ID         uint64 `json:"id"`          // merch_items.id
	Name       string `json:"name"`        // merch_items.name
	PointsCost int64  `json:"points_cost"` // merch_items.points_cost
	InStock    bool   `json:"in_stock"`    // merch_items.in_stock
}
