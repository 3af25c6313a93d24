package activedirectory

import (
	"fmt"
	"sort"

	"f0oster/adsiteaudit/activedirectory/ldaphelpers"

	"github.com/sirupsen/logrus"
)

// FetchSites returns the sites matching locationFilter.
func (ad *ActiveDirectoryInstance) FetchSites(locationFilter ldaphelpers.Filter) ([]Site, error) {
	filter := ldaphelpers.And(ldaphelpers.Raw(ldaphelpers.AllSiteObjects), locationFilter)
	entries, err := ad.search(ad.sitesDn(), filter, siteAttributes)
	if err != nil {
		return nil, fmt.Errorf("fetch sites: %w", err)
	}

	sites := make([]Site, 0, len(entries))
	for _, entry := range entries {
		site, err := ParseSite(entry)
		if err != nil {
			return nil, fmt.Errorf("parse site %s: %w", entry.DN, err)
		}
		sites = append(sites, site)
	}
	return sites, nil
}

// FetchSubnets returns the subnets matching locationFilter.
func (ad *ActiveDirectoryInstance) FetchSubnets(locationFilter ldaphelpers.Filter) ([]Subnet, error) {
	filter := ldaphelpers.And(ldaphelpers.Raw(ldaphelpers.AllSubnetObjects), locationFilter)
	entries, err := ad.search(ad.subnetsDn(), filter, subnetAttributes)
	if err != nil {
		return nil, fmt.Errorf("fetch subnets: %w", err)
	}

	subnets := make([]Subnet, 0, len(entries))
	for _, entry := range entries {
		subnet, err := ParseSubnet(entry)
		if err != nil {
			return nil, fmt.Errorf("parse subnet %s: %w", entry.DN, err)
		}
		subnets = append(subnets, subnet)
	}
	return subnets, nil
}

// FetchUsers returns every user object below each of the given OUs.
func (ad *ActiveDirectoryInstance) FetchUsers(organizationalUnits []string) ([]User, error) {
	var users []User
	for _, ou := range organizationalUnits {
		entries, err := ad.search(ou, ldaphelpers.Raw(ldaphelpers.AllUserObjects), userAttributes)
		if err != nil {
			return nil, fmt.Errorf("fetch users in %s: %w", ou, err)
		}
		for _, entry := range entries {
			users = append(users, ParseUser(entry))
		}
		ad.logger.WithFields(logrus.Fields{"ou": ou, "users": len(entries)}).Debug("Fetched users")
	}
	return users, nil
}

// ResolveComputerNames returns the distinct computer names below each of the given OUs,
// sorted.
func (ad *ActiveDirectoryInstance) ResolveComputerNames(organizationalUnits []string) ([]string, error) {
	seen := make(map[string]struct{})
	for _, ou := range organizationalUnits {
		entries, err := ad.search(ou, ldaphelpers.Raw(ldaphelpers.AllComputerObjects), computerAttributes)
		if err != nil {
			return nil, fmt.Errorf("resolve computers in %s: %w", ou, err)
		}
		for _, entry := range entries {
			if name := entry.GetAttributeValue("name"); name != "" {
				seen[name] = struct{}{}
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// FetchInstalledPrinters returns the print queues each computer publishes in the
// directory. Computers publishing nothing are returned with an empty printer list.
func (ad *ActiveDirectoryInstance) FetchInstalledPrinters(computerNames []string) ([]PrintServer, error) {
	servers := make([]PrintServer, 0, len(computerNames))
	for _, name := range computerNames {
		filter := ldaphelpers.And(
			ldaphelpers.Raw(ldaphelpers.AllPrintQueues),
			ldaphelpers.Eq("shortServerName", name),
		)
		entries, err := ad.search(ad.BaseDn, filter, printQueueAttributes)
		if err != nil {
			return nil, fmt.Errorf("fetch printers of %s: %w", name, err)
		}

		server := PrintServer{ServerName: name, Printers: make([]Printer, 0, len(entries))}
		for _, entry := range entries {
			server.Printers = append(server.Printers, ParsePrinter(entry))
		}
		servers = append(servers, server)
	}
	return servers, nil
}
