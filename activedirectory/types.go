package activedirectory

import (
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/sirupsen/logrus"
)

type ActiveDirectoryInstance struct {
	BaseDn               string
	DomainControllerFQDN string
	PageSize             uint32
	UseTLS               bool
	ConfigurationDn      string
	ldapConnection       *ldap.Conn
	logger               logrus.FieldLogger
}

// Site is a replication topology site from CN=Sites,CN=Configuration.
type Site struct {
	Name              string
	Description       string
	Location          string
	SubnetCount       int
	ObjectClass       string
	DistinguishedName string
	CreatedAt         time.Time
	ChangedAt         time.Time
}

// Subnet is a replication topology subnet. SiteName is parsed from the siteObject
// reference and is empty when the subnet is not linked to a site.
type Subnet struct {
	Name              string
	Description       string
	Location          string
	SiteName          string
	ObjectClass       string
	DistinguishedName string
	CreatedAt         time.Time
	ChangedAt         time.Time
}

type User struct {
	LogonName          string
	DisplayName        string
	Office             string
	OrganizationalUnit string
}

// Printer is a print queue published in the directory by a print server.
type Printer struct {
	ServerName  string
	PrinterName string
	Location    string
}

// PrintServer groups the printers published by one computer.
type PrintServer struct {
	ServerName string
	Printers   []Printer
}
