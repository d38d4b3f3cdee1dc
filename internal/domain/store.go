package domain

import "time"

// Store is a row in the main directory database. Subdomain is the public
// label customers see; ID is the internal tenant key and may differ.
type Store struct {
	ID        string
	Subdomain string
	Name      string
	Status    string // active | suspended | deleted
	CreatedAt time.Time
}

const (
	StoreStatusActive    = "active"
	StoreStatusSuspended = "suspended"
	StoreStatusDeleted   = "deleted"
)

// StoreSettings lives in the tenant database and carries the operator-editable
// storefront settings snapshot loaded once per request.
type StoreSettings struct {
	StoreID       string
	DisplayName   string
	SupportEmail  string
	SupportPhone  string
	Currency      string
	OTPTemplateID string // per-store SMS template override, optional
	UpdatedAt     time.Time
}
