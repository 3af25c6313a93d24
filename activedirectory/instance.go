package activedirectory

import (
	"errors"
	"fmt"

	"f0oster/adsiteaudit/activedirectory/ldaphelpers"

	"github.com/go-ldap/ldap/v3"
	"github.com/sirupsen/logrus"
)

var errNotConnected = errors.New("not connected to a domain controller")

// NewActiveDirectoryInstance returns an unconnected instance logging to logger, or to the
// logrus standard logger when logger is nil.
func NewActiveDirectoryInstance(baseDn string, domainControllerFQDN string, pageSize uint32, useTLS bool, logger logrus.FieldLogger) *ActiveDirectoryInstance {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ActiveDirectoryInstance{
		BaseDn:               baseDn,
		DomainControllerFQDN: domainControllerFQDN,
		PageSize:             pageSize,
		UseTLS:               useTLS,
		logger:               logger,
	}
}

// Connect to the Active Directory Domain Controller
func (ad *ActiveDirectoryInstance) Connect(username, password string) error {
	var err error

	bindString := fmt.Sprintf("ldap://%s:389", ad.DomainControllerFQDN)
	if ad.UseTLS {
		bindString = fmt.Sprintf("ldaps://%s:636", ad.DomainControllerFQDN)
	}
	ad.logger.WithField("server", bindString).Debug("Connecting to domain controller")
	ad.ldapConnection, err = ldap.DialURL(bindString)
	if err != nil {
		return fmt.Errorf("failed to connect to LDAP server %s: %w", bindString, err)
	}

	err = ad.ldapConnection.Bind(username, password)
	if err != nil {
		ad.ldapConnection.Close()
		ad.ldapConnection = nil
		return fmt.Errorf("failed to bind to LDAP server: %w", err)
	}

	res, err := ad.ldapConnection.WhoAmI(nil)
	if err != nil {
		ad.ldapConnection.Close()
		ad.ldapConnection = nil
		return fmt.Errorf("failed to call WhoAmI(): %w", err)
	}
	ad.logger.WithFields(logrus.Fields{"server": bindString, "authz_id": res.AuthzID}).Info("Authenticated to domain controller")

	return nil
}

func (ad *ActiveDirectoryInstance) Close() error {
	if ad.ldapConnection == nil {
		return nil
	}
	err := ad.ldapConnection.Close()
	ad.ldapConnection = nil
	return err
}

// fetch the configuration naming context from the Root DSE. Sites and subnets live there,
// not under the domain base DN.
func (ad *ActiveDirectoryInstance) FetchConfigurationContext() error {
	if ad.ldapConnection == nil {
		return errNotConnected
	}

	rootDSERequest := ldap.NewSearchRequest(
		"", // Root DSE
		ldap.ScopeBaseObject,
		ldap.NeverDerefAliases,
		0, 0, false,
		ldaphelpers.AllObjects,
		[]string{"configurationNamingContext"},
		nil,
	)

	rootDSEResults, err := ad.ldapConnection.Search(rootDSERequest)
	if err != nil {
		return fmt.Errorf("failed to fetch configurationNamingContext from Root DSE: %w", err)
	}

	if len(rootDSEResults.Entries) == 0 || rootDSEResults.Entries[0].GetAttributeValue("configurationNamingContext") == "" {
		return fmt.Errorf("configurationNamingContext not found in the Root DSE of %s", ad.DomainControllerFQDN)
	}
	ad.ConfigurationDn = rootDSEResults.Entries[0].GetAttributeValue("configurationNamingContext")
	ad.logger.WithField("configuration_dn", ad.ConfigurationDn).Debug("Resolved configuration naming context")

	return nil
}

// perform a paged subtree search below baseDn
func (ad *ActiveDirectoryInstance) search(baseDn string, filter ldaphelpers.Filter, attributes []string) ([]*ldap.Entry, error) {
	if ad.ldapConnection == nil {
		return nil, errNotConnected
	}

	request := ldap.NewSearchRequest(
		baseDn,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, 0, false,
		filter.String(),
		attributes,
		nil,
	)

	results, err := ad.ldapConnection.SearchWithPaging(request, ad.PageSize)
	if err != nil {
		return nil, fmt.Errorf("LDAP search %s below %s failed: %w", filter.String(), baseDn, err)
	}
	return results.Entries, nil
}

func (ad *ActiveDirectoryInstance) sitesDn() string {
	return "CN=Sites," + ad.ConfigurationDn
}

func (ad *ActiveDirectoryInstance) subnetsDn() string {
	return "CN=Subnets,CN=Sites," + ad.ConfigurationDn
}
