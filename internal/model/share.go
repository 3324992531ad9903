package model

import "time"

// Share grants read access to a company profile to an external email address.
// The token is the credential carried by the shared link.
type Share struct {
	ID             string    `json:"id"`
	CompanyID      string    `json:"company_id"`
	RecipientEmail string    `json:"recipient_email"`
	Token          string    `json:"token"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}

// ReceivedShare is a share as seen by its recipient, joined with the company fields
// used for display and deduplication.
type ReceivedShare struct {
	Share
	CompanyName  string `json:"company_name"`
	CompanyTaxID string `json:"company_tax_id,omitempty"`
}
