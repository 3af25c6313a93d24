package report

import (
	"f0oster/adsiteaudit/activedirectory"
	"f0oster/adsiteaudit/audit"
)

// Workbook labels, used in the file name after the run prefix.
const (
	LabelSitesAndSubnets = "AD Sites and subnets"
	LabelUsers           = "AD Users"
	LabelPrinters        = "Printers installed"
)

// Table is one sheet of a workbook: a header row followed by data rows.
type Table struct {
	Name    string
	Sheet   string
	Columns []string
	Rows    [][]any
}

func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

func SitesTable(sites []activedirectory.Site) Table {
	table := Table{
		Name:    "Sites",
		Sheet:   "Sites",
		Columns: []string{"Name", "Description", "Location", "Subnets", "ObjectClass", "DistinguishedName", "Created", "Changed"},
	}
	for _, s := range sites {
		table.Rows = append(table.Rows, []any{s.Name, s.Description, s.Location, s.SubnetCount, s.ObjectClass, s.DistinguishedName, timeCell(s.CreatedAt), timeCell(s.ChangedAt)})
	}
	return table
}

func SubnetsTable(subnets []activedirectory.Subnet) Table {
	table := Table{
		Name:    "Subnets",
		Sheet:   "Subnets",
		Columns: []string{"Name", "Description", "Location", "Site", "ObjectClass", "DistinguishedName", "Created", "Changed"},
	}
	for _, s := range subnets {
		table.Rows = append(table.Rows, []any{s.Name, s.Description, s.Location, s.SiteName, s.ObjectClass, s.DistinguishedName, timeCell(s.CreatedAt), timeCell(s.ChangedAt)})
	}
	return table
}

// SummaryTable renders summary rows with keyColumn ("Office" or "Location") as the
// header of the grouping column.
func SummaryTable(name, keyColumn string, rows []audit.SummaryRow) Table {
	table := Table{
		Name:    name,
		Sheet:   "Summary",
		Columns: []string{keyColumn, "Count"},
	}
	for _, row := range rows {
		table.Rows = append(table.Rows, []any{row.Key, row.Count})
	}
	return table
}

// UsersTable expects users already ordered, see audit.UserDetails.
func UsersTable(users []activedirectory.User) Table {
	table := Table{
		Name:    "Users",
		Sheet:   "Users",
		Columns: []string{"Office", "LogonName", "DisplayName", "OU"},
	}
	for _, u := range users {
		table.Rows = append(table.Rows, []any{u.Office, u.LogonName, u.DisplayName, u.OrganizationalUnit})
	}
	return table
}

// PrintersTable expects printers already ordered, see audit.PrinterDetails.
func PrintersTable(printers []activedirectory.Printer) Table {
	table := Table{
		Name:    "Printers",
		Sheet:   "Printers",
		Columns: []string{"ServerName", "PrinterName", "Location"},
	}
	for _, p := range printers {
		table.Rows = append(table.Rows, []any{p.ServerName, p.PrinterName, p.Location})
	}
	return table
}
