package consent

import "strings"

// Intent is the classification of an inbound message body.
type Intent int

const (
	Other Intent = iota
	Unsubscribe
	Resubscribe
)

func (i Intent) String() string {
	switch i {
	case Unsubscribe:
		return "unsubscribe"
	case Resubscribe:
		return "resubscribe"
	default:
		return "other"
	}
}

var unsubscribeTokens = map[string]struct{}{
	"SALIR":       {},
	"UNSUBSCRIBE": {},
	"CANCEL":      {},
	"END":         {},
	"STOP":        {},
	"BAJA":        {},
	"ALTO":        {},
}

var resubscribeTokens = map[string]struct{}{
	"START": {},
	"YES":   {},
	"SI":    {},
}

// Classify matches the trimmed, upper-cased body against the fixed keyword
// sets. Exact membership only, no partial matching.
func Classify(body string) Intent {
	if _, ok := unsubscribeTokens[body]; ok {
		return Unsubscribe
	}
	if _, ok := resubscribeTokens[body]; ok {
		return Resubscribe
	}
	return Other
}

// NormalizeFrom strips the WhatsApp channel prefix and surrounding
// whitespace from the raw From field, e.g. "whatsapp:+50760000000 " ->
// "+50760000000".
func NormalizeFrom(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, "whatsapp:", ""))
}

// CanonicalDigits reduces a phone value to its comparison form by dropping
// "+", spaces and hyphens.
func CanonicalDigits(phone string) string {
	r := strings.NewReplacer("+", "", " ", "", "-", "")
	return r.Replace(strings.TrimSpace(phone))
}
