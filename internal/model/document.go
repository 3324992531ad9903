package model

import (
	"strings"
	"time"
)

// DocumentType tags what a document is about. The set is fixed.
type DocumentType string

const (
	DocumentTypeBankDetails         DocumentType = "bank-details"
	DocumentTypeRegistrationExtract DocumentType = "registration-extract"
	DocumentTypeContract            DocumentType = "contract"
	DocumentTypeInvoice             DocumentType = "invoice"
	DocumentTypeQuote               DocumentType = "quote"
	DocumentTypeOther               DocumentType = "other"
)

// DocumentTypes lists every accepted tag.
var DocumentTypes = []DocumentType{
	DocumentTypeBankDetails,
	DocumentTypeRegistrationExtract,
	DocumentTypeContract,
	DocumentTypeInvoice,
	DocumentTypeQuote,
	DocumentTypeOther,
}

// ParseDocumentType returns the tag for s, case-insensitively.
func ParseDocumentType(s string) (DocumentType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range DocumentTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Document is a stored file plus its metadata, owned by exactly one company.
// FilePath is immutable after creation and always starts with
// "<category>/<CompanyID>/". Optional fields are nil when unknown.
type Document struct {
	ID                string        `json:"id"`
	CompanyID         string        `json:"company_id"`
	Name              string        `json:"name"`
	FilePath          string        `json:"file_path"`
	FileSize          int64         `json:"file_size"`
	MimeType          string        `json:"mime_type"`
	IsPublic          bool          `json:"is_public"`
	DocumentType      *DocumentType `json:"document_type,omitempty"`
	DocumentVersion   *int          `json:"document_version,omitempty"`
	DocumentReference *string       `json:"document_reference,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// DocumentPatch carries a metadata-only update. Nil fields are left unchanged.
type DocumentPatch struct {
	Name         *string
	IsPublic     *bool
	DocumentType *DocumentType
}

// Empty reports whether the patch changes nothing.
func (p DocumentPatch) Empty() bool {
	return p.Name == nil && p.IsPublic == nil && p.DocumentType == nil
}
