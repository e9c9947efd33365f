package store

import "strings"

// Operator-maintained sheets name their columns inconsistently. Each
// logical field lists the accepted spellings; resolution is
// case/punctuation-insensitive and the first variant found in the live
// header row wins.
var customerAliases = map[string][]string{
	"phone":        {"Phone", "phone", "phone number"},
	"name":         {"Name", "name", "customer name"},
	"dnc":          {"dnc", "do_not contact", "do not contact", "do_not_contact", "donotcontact"},
	"optin_date":   {"opt in date", "opt_in date", "opt_in_date", "optindate"},
	"optin_source": {"opt_in source", "opt in source", "optinsource"},
	"optout_date":  {"opt out date", "opt_out date", "opt_out_date", "optoutdate"},
}

var messageAliases = map[string][]string{
	"sid":     {"sid", "message sid", "message_sid"},
	"date":    {"date", "timestamp"},
	"phone":   {"phone", "Phone", "to"},
	"type":    {"type"},
	"message": {"message", "body"},
	"status":  {"status"},
	"error":   {"error", "error code", "error_code"},
}

// HeaderMap resolves logical field names to zero-based column indexes of a
// sheet tab. Built once at startup and never mutated; a logical field with
// no matching header is simply absent, and writes to it are dropped.
type HeaderMap struct {
	cols  map[string]int
	width int
}

func buildHeaderMap(headers []string, aliases map[string][]string) *HeaderMap {
	normToIdx := make(map[string]int, len(headers))
	for i, h := range headers {
		n := normalizeHeader(h)
		if _, seen := normToIdx[n]; !seen {
			normToIdx[n] = i
		}
	}

	m := &HeaderMap{cols: make(map[string]int), width: len(headers)}
	for logical, variants := range aliases {
		for _, v := range variants {
			if idx, ok := normToIdx[normalizeHeader(v)]; ok {
				m.cols[logical] = idx
				break
			}
		}
	}
	return m
}

// Col returns the column index for a logical field, if the sheet has one.
func (m *HeaderMap) Col(logical string) (int, bool) {
	idx, ok := m.cols[logical]
	return idx, ok
}

// Width is the number of columns in the header row.
func (m *HeaderMap) Width() int {
	return m.width
}

// normalizeHeader lower-cases and keeps only letters and digits, so
// "Opt_In Date" and "optindate" compare equal.
func normalizeHeader(h string) string {
	var b strings.Builder
	for _, ch := range strings.ToLower(h) {
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		}
	}
	return b.String()
}
