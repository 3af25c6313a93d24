package audit

import (
	"sort"

	"f0oster/adsiteaudit/activedirectory"
)

// SummaryRow counts the anomalies sharing one office or location.
type SummaryRow struct {
	Key   string
	Count int
}

// Summarize groups anomalies by key and returns one row per distinct key, ordered by
// key ascending.
func Summarize[T any](anomalies []T, key func(T) string) []SummaryRow {
	counts := make(map[string]int)
	for _, anomaly := range anomalies {
		counts[key(anomaly)]++
	}

	rows := make([]SummaryRow, 0, len(counts))
	for k, count := range counts {
		rows = append(rows, SummaryRow{Key: k, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return rows
}

// UserDetails returns a sorted copy of users, by office then logon name.
func UserDetails(users []activedirectory.User) []activedirectory.User {
	sorted := append([]activedirectory.User(nil), users...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Office != sorted[j].Office {
			return sorted[i].Office < sorted[j].Office
		}
		return sorted[i].LogonName < sorted[j].LogonName
	})
	return sorted
}

// PrinterDetails returns a sorted copy of printers, by server then printer name.
func PrinterDetails(printers []activedirectory.Printer) []activedirectory.Printer {
	sorted := append([]activedirectory.Printer(nil), printers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ServerName != sorted[j].ServerName {
			return sorted[i].ServerName < sorted[j].ServerName
		}
		return sorted[i].PrinterName < sorted[j].PrinterName
	})
	return sorted
}
