package activedirectory

import (
	"fmt"
	"time"

	"f0oster/adsiteaudit/activedirectory/formatters"

	"github.com/go-ldap/ldap/v3"
)

var (
	siteAttributes       = []string{"name", "description", "location", "siteObjectBL", "objectClass", "distinguishedName", "whenCreated", "whenChanged"}
	subnetAttributes     = []string{"name", "description", "location", "siteObject", "objectClass", "distinguishedName", "whenCreated", "whenChanged"}
	userAttributes       = []string{"sAMAccountName", "displayName", "physicalDeliveryOfficeName", "distinguishedName"}
	computerAttributes   = []string{"name"}
	printQueueAttributes = []string{"printerName", "location", "shortServerName", "serverName"}
)

// ParseSite converts a site entry. Only the attributes in siteAttributes are read,
// anything else returned by the server is ignored.
func ParseSite(entry *ldap.Entry) (Site, error) {
	created, changed, err := parseTimestamps(entry)
	if err != nil {
		return Site{}, err
	}
	return Site{
		Name:              stringAttr(entry, "name"),
		Description:       stringAttr(entry, "description"),
		Location:          stringAttr(entry, "location"),
		SubnetCount:       len(entry.GetAttributeValues("siteObjectBL")),
		ObjectClass:       formatters.LastValue(entry.GetAttributeValues("objectClass")),
		DistinguishedName: entry.DN,
		CreatedAt:         created,
		ChangedAt:         changed,
	}, nil
}

func ParseSubnet(entry *ldap.Entry) (Subnet, error) {
	created, changed, err := parseTimestamps(entry)
	if err != nil {
		return Subnet{}, err
	}
	return Subnet{
		Name:              stringAttr(entry, "name"),
		Description:       stringAttr(entry, "description"),
		Location:          stringAttr(entry, "location"),
		SiteName:          SiteNameFromDN(entry.GetAttributeValue("siteObject")),
		ObjectClass:       formatters.LastValue(entry.GetAttributeValues("objectClass")),
		DistinguishedName: entry.DN,
		CreatedAt:         created,
		ChangedAt:         changed,
	}, nil
}

func ParseUser(entry *ldap.Entry) User {
	return User{
		LogonName:          stringAttr(entry, "sAMAccountName"),
		DisplayName:        stringAttr(entry, "displayName"),
		Office:             stringAttr(entry, "physicalDeliveryOfficeName"),
		OrganizationalUnit: ParentContainer(entry.DN),
	}
}

// ParsePrinter converts a printQueue entry. shortServerName is preferred over the
// FQDN in serverName so printers group under the computer name that was queried.
func ParsePrinter(entry *ldap.Entry) Printer {
	server := stringAttr(entry, "shortServerName")
	if server == "" {
		server = stringAttr(entry, "serverName")
	}
	return Printer{
		ServerName:  server,
		PrinterName: stringAttr(entry, "printerName"),
		Location:    stringAttr(entry, "location"),
	}
}

func stringAttr(entry *ldap.Entry, name string) string {
	return formatters.SanitizeString(entry.GetAttributeValue(name))
}

func parseTimestamps(entry *ldap.Entry) (time.Time, time.Time, error) {
	created, err := formatters.ParseGeneralizedTime(entry.GetAttributeValue("whenCreated"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("whenCreated of %s: %w", entry.DN, err)
	}
	changed, err := formatters.ParseGeneralizedTime(entry.GetAttributeValue("whenChanged"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("whenChanged of %s: %w", entry.DN, err)
	}
	return created, changed, nil
}
