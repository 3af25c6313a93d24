package audit

import "f0oster/adsiteaudit/activedirectory"

// Classify returns the records whose location is not in index, in input order.
// records is not modified. The result is empty, never nil, when nothing is anomalous.
func Classify[T any](records []T, location func(T) string, index *LocationIndex) []T {
	anomalies := make([]T, 0)
	for _, record := range records {
		if !index.Contains(location(record)) {
			anomalies = append(anomalies, record)
		}
	}
	return anomalies
}

func UserOffice(u activedirectory.User) string {
	return u.Office
}

func PrinterLocation(p activedirectory.Printer) string {
	return p.Location
}

// FlattenPrinters turns the per-server printer lists into one stream, server by server.
func FlattenPrinters(servers []activedirectory.PrintServer) []activedirectory.Printer {
	var printers []activedirectory.Printer
	for _, server := range servers {
		printers = append(printers, server.Printers...)
	}
	return printers
}
