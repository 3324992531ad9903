package model

import "time"

// Company is the tenant that owns documents and shares. TaxID is the national
// registration identifier (e.g. a 14 digit SIRET) and may be empty.
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TaxID     string    `json:"tax_id,omitempty"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}
