package activedirectory

import (
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// SiteNameFromDN returns the value of the first CN component of dn, e.g. "Leuven" for
// "CN=Leuven,CN=Sites,CN=Configuration,DC=contoso,DC=net". It returns an empty string
// when dn is empty, malformed or has no CN component.
func SiteNameFromDN(dn string) string {
	if dn == "" {
		return ""
	}
	parsed, err := ldap.ParseDN(dn)
	if err != nil {
		return ""
	}
	for _, rdn := range parsed.RDNs {
		for _, attr := range rdn.Attributes {
			if strings.EqualFold(attr.Type, "CN") {
				return attr.Value
			}
		}
	}
	return ""
}

// ParentContainer strips the leading RDN of dn, giving the OU or container the object
// lives in, spelled as in dn. A dn with a single component, or a malformed one, yields
// an empty string.
func ParentContainer(dn string) string {
	parsed, err := ldap.ParseDN(dn)
	if err != nil || len(parsed.RDNs) < 2 {
		return ""
	}
	if i := firstRDNEnd(dn); i >= 0 {
		return strings.TrimSpace(dn[i+1:])
	}
	return ""
}

// firstRDNEnd returns the index of the separator ending the first RDN of dn, skipping
// backslash escapes and quoted values, or -1.
func firstRDNEnd(dn string) int {
	quoted := false
	for i := 0; i < len(dn); i++ {
		switch dn[i] {
		case '\\':
			i++
		case '"':
			quoted = !quoted
		case ',', ';':
			if !quoted {
				return i
			}
		}
	}
	return -1
}
