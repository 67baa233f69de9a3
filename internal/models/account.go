package models

import "time"

// Account is a credential record for a banking customer. The account number
// is the identity: the stable, unique key used for login and throttling.
type Account struct {
	ID            string
	AccountNumber string
	FullName      string
	IDNumber      string // national ID number
	PasswordHash  string
	Role          string // "customer" or "admin"
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Payment is a submitted payment order, recorded after field validation.
// Settlement happens elsewhere; Status stays "accepted" here.
type Payment struct {
	ID            string
	AccountID     string
	Amount        string // decimal string, validated to 2 fraction digits
	Currency      string // ISO 4217
	SwiftBic      string
	Beneficiary   string
	Reference     string
	Status        string
	CreatedAt     time.Time
}
