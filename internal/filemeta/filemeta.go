// Package filemeta derives document metadata from uploaded file names such as
// "RIB_ACME_v2.pdf" or "facture-ref-F2024-0012.pdf".
package filemeta

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"companydocs/internal/model"
)

// Metadata holds whatever could be recognised; unknown parts stay nil.
type Metadata struct {
	Type      *model.DocumentType
	Version   *int
	Reference *string
}

var (
	versionRe   = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])v(?:ersion)?[ _.-]?(\d{1,4})(?:[^0-9]|$)`)
	referenceRe = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])ref(?:erence)?[ _.:#-]+([a-z0-9][a-z0-9-]{1,39})`)
	wordSplitRe = regexp.MustCompile(`[^a-z0-9]+`)
)

// keywords are matched against whole words of the lowercased base name.
// The first matching rule wins.
var keywords = []struct {
	words []string
	typ   model.DocumentType
}{
	{[]string{"rib", "iban", "bic", "bank", "banque"}, model.DocumentTypeBankDetails},
	{[]string{"kbis", "extrait", "extract", "registration", "siret", "siren"}, model.DocumentTypeRegistrationExtract},
	{[]string{"contrat", "contract", "agreement"}, model.DocumentTypeContract},
	{[]string{"facture", "invoice", "inv"}, model.DocumentTypeInvoice},
	{[]string{"devis", "quote", "quotation", "estimate"}, model.DocumentTypeQuote},
}

// Parse inspects the base name of filename (extension excluded).
func Parse(filename string) Metadata {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	lower := strings.ToLower(stem)

	var md Metadata
	if t, ok := detectType(lower); ok {
		md.Type = &t
	}
	if m := versionRe.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			md.Version = &n
		}
	}
	if m := referenceRe.FindStringSubmatch(stem); m != nil {
		ref := strings.ToUpper(strings.Trim(m[1], "-"))
		if ref != "" {
			md.Reference = &ref
		}
	}
	return md
}

func detectType(lower string) (model.DocumentType, bool) {
	words := wordSplitRe.Split(lower, -1)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w != "" {
			set[w] = struct{}{}
		}
	}
	for _, k := range keywords {
		for _, w := range k.words {
			if _, ok := set[w]; ok {
				return k.typ, true
			}
		}
	}
	return "", false
}
