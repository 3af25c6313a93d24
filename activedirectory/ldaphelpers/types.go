package ldaphelpers

const (
	AllObjects         = "(objectClass=*)"
	AllUserObjects     = "(&(objectCategory=person)(objectClass=user))"
	AllComputerObjects = "(objectCategory=computer)"
	AllSiteObjects     = "(objectClass=site)"
	AllSubnetObjects   = "(objectClass=subnet)"
	AllPrintQueues     = "(objectClass=printQueue)"
)
