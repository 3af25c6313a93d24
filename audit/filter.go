package audit

import (
	"strings"

	"f0oster/adsiteaudit/activedirectory/ldaphelpers"
)

// LocationFilter selects directory objects whose location starts with one of a set of
// country-code prefixes. Codes are used as given, without case folding or trimming.
type LocationFilter struct {
	codes []string
}

// NewLocationFilter builds the filter for codes. Callers must pass at least one code.
func NewLocationFilter(codes []string) LocationFilter {
	return LocationFilter{codes: append([]string(nil), codes...)}
}

// LDAP renders the filter as (|(location=C1*)(location=C2*)...).
func (f LocationFilter) LDAP() ldaphelpers.Filter {
	parts := make([]ldaphelpers.Filter, 0, len(f.codes))
	for _, code := range f.codes {
		parts = append(parts, ldaphelpers.Prefix("location", code))
	}
	return ldaphelpers.Or(parts...)
}

func (f LocationFilter) String() string {
	return f.LDAP().String()
}

// Matches reports whether location starts with any of the codes.
func (f LocationFilter) Matches(location string) bool {
	for _, code := range f.codes {
		if strings.HasPrefix(location, code) {
			return true
		}
	}
	return false
}

func (f LocationFilter) Codes() []string {
	return append([]string(nil), f.codes...)
}
