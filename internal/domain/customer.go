package domain

import "time"

// Customer is a tenant-scoped identity. Email and phone are sparse-unique:
// at most one customer per non-null value of each. At least one of the two is
// always set; phone-only customers may have no password hash.
type Customer struct {
	ID            string
	Name          string
	Email         *string
	Phone         *string
	PasswordHash  *string
	EmailVerified bool
	PhoneVerified bool

	LoginAttempts     int
	LockedUntil       *time.Time
	PasswordChangedAt *time.Time
	LastLoginAt       *time.Time

	MarketingOptIn bool
	OrderCount     int
	TotalSpent     int64 // minor units

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Customer) IsLocked(now time.Time) bool {
	return c.LockedUntil != nil && now.Before(*c.LockedUntil)
}

// Summary is the customer shape returned to clients after authentication.
type CustomerSummary struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         *string `json:"email,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	EmailVerified bool    `json:"email_verified"`
	PhoneVerified bool    `json:"phone_verified"`
}

func (c *Customer) Summary() CustomerSummary {
	return CustomerSummary{
		ID:            c.ID,
		Name:          c.Name,
		Email:         c.Email,
		Phone:         c.Phone,
		EmailVerified: c.EmailVerified,
		PhoneVerified: c.PhoneVerified,
	}
}
