package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildHeaderMapResolvesVariants(t *testing.T) {
	headers := []string{"Name", "Phone", "Do_Not Contact", "Opt In Date", "opt_in source", "OPTOUTDATE"}
	m := buildHeaderMap(headers, customerAliases)

	tests := []struct {
		logical string
		want    int
	}{
		{"name", 0},
		{"phone", 1},
		{"dnc", 2},
		{"optin_date", 3},
		{"optin_source", 4},
		{"optout_date", 5},
	}
	for _, tt := range tests {
		got, ok := m.Col(tt.logical)
		assert.True(t, ok, "logical field %q not resolved", tt.logical)
		assert.Equal(t, tt.want, got, "logical field %q", tt.logical)
	}
	assert.Equal(t, 6, m.Width())
}

func TestBuildHeaderMapMissingField(t *testing.T) {
	// A sheet without a dnc column: writes to dnc get dropped.
	m := buildHeaderMap([]string{"Phone", "Name"}, customerAliases)

	_, ok := m.Col("dnc")
	assert.False(t, ok)
	_, ok = m.Col("phone")
	assert.True(t, ok)
}

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Do_Not Contact", "donotcontact"},
		{"Opt In Date", "optindate"},
		{"PHONE", "phone"},
		{"error code", "errorcode"},
		{"  spaced  ", "spaced"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeHeader(tt.in))
	}
}

func TestPhoneMatches(t *testing.T) {
	tests := []struct {
		stored   string
		incoming string
		want     bool
	}{
		// exact after canonicalization
		{"50760000000", "50760000000", true},
		// differing country-code prefixes resolve via the suffix rule
		{"50760000000", "60000000", true},
		{"60000000", "50760000000", true},
		// the suffix rule is deliberate: a short stored value matches a
		// longer incoming number that ends with it
		{"999", "1999", true},
		// no substring matching beyond suffixes
		{"12345", "999", false},
		{"50760000000", "50760000001", false},
		{"6000", "50760000000", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, phoneMatches(tt.stored, tt.incoming),
			"stored %q incoming %q", tt.stored, tt.incoming)
	}
}

func TestColLetter(t *testing.T) {
	tests := []struct {
		col  int
		want string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, colLetter(tt.col))
	}
}

func TestParseBool(t *testing.T) {
	assert.True(t, parseBool("TRUE"))
	assert.True(t, parseBool("true"))
	assert.True(t, parseBool(" 1 "))
	assert.False(t, parseBool("FALSE"))
	assert.False(t, parseBool(""))
	assert.Equal(t, "TRUE", formatBool(true))
	assert.Equal(t, "FALSE", formatBool(false))
}
