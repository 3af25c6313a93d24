package ldaphelpers

import (
	"strings"

	"github.com/go-ldap/ldap/v3"
)

type Filter interface {
	String() string
}

type rawFilter string

func (f rawFilter) String() string {
	return string(f)
}

// Logical operators
type andFilter struct {
	parts []Filter
}

func And(filters ...Filter) Filter {
	return andFilter{parts: filters}
}
func (f andFilter) String() string {
	var parts []string
	for _, p := range f.parts {
		parts = append(parts, p.String())
	}
	return "(&" + strings.Join(parts, "") + ")"
}

type orFilter struct {
	parts []Filter
}

func Or(filters ...Filter) Filter {
	return orFilter{parts: filters}
}
func (f orFilter) String() string {
	var parts []string
	for _, p := range f.parts {
		parts = append(parts, p.String())
	}
	return "(|" + strings.Join(parts, "") + ")"
}

type notFilter struct {
	part Filter
}

func Not(f Filter) Filter {
	return notFilter{part: f}
}
func (f notFilter) String() string {
	return "(!" + f.part.String() + ")"
}

// Eq matches attr against value exactly. The value is escaped.
func Eq(attr, value string) Filter {
	return rawFilter("(" + attr + "=" + ldap.EscapeFilter(value) + ")")
}

// Prefix matches every value of attr starting with prefix. The prefix itself is
// escaped so a literal '*' in the input cannot widen the match.
func Prefix(attr, prefix string) Filter {
	return rawFilter("(" + attr + "=" + ldap.EscapeFilter(prefix) + "*)")
}

func Present(attr string) Filter {
	return rawFilter("(" + attr + "=*)")
}

// Raw wraps an already formed filter string, e.g. one of the constants in this package.
func Raw(filter string) Filter {
	return rawFilter(filter)
}
