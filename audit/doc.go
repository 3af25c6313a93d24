// Package audit holds the pure part of the location audit: the country-code filter,
// the index of known subnet locations, classification of users and printers against
// that index, and the summary/detail views used for the reports.
//
// Nothing in this package performs I/O.
package audit
