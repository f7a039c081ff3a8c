package csvimport

import "strings"

// Synonyms maps a target field key to the lower-case header fragments that
// identify it. Keys missing from the table fall back to the field's key and
// lower-cased label.
type Synonyms map[string][]string

// DefaultSynonyms returns a fresh copy of the built-in synonym table.
// Callers may modify the result freely.
func DefaultSynonyms() Synonyms {
	out := make(Synonyms, len(defaultSynonyms))
	for k, v := range defaultSynonyms {
		out[k] = append([]string(nil), v...)
	}
	return out
}

var defaultSynonyms = Synonyms{
	"name":              {"name", "full name", "customer name", "client name", "author", "reviewer"},
	"email":             {"email", "e-mail", "email address", "mail"},
	"phone":             {"phone", "phone number", "mobile", "cell", "telephone"},
	"vehicle":           {"vehicle", "car", "make", "model", "vehicle info"},
	"notes":             {"notes", "note", "comments"},
	"total_bookings":    {"total bookings", "bookings", "visits", "appointments", "booking count"},
	"total_spent":       {"total spent", "spent", "revenue", "lifetime value", "ltv"},
	"last_service_date": {"last service", "last visit", "last booking", "last appointment"},
	"content":           {"content", "review", "testimonial", "feedback", "quote"},
	"rating":            {"rating", "stars", "score"},
	"service_date":      {"service date", "date"},
	"description":       {"description", "details", "summary"},
	"price":             {"price", "cost", "amount", "rate"},
	"duration_minutes":  {"duration", "minutes", "length", "time"},
	"category":          {"category", "type", "group"},
}

// For returns the synonym set used to match a target field.
func (s Synonyms) For(field TargetField) []string {
	if list, ok := s[field.Key]; ok {
		return list
	}
	return []string{field.Key, strings.ToLower(field.Label)}
}

// AutoMap proposes a mapping for every header, in header order.
//
// Fields are tried in the order given; the first field with a synonym that
// contains the header, or is contained by it, wins. Headers with no match
// are left unmapped. Blank or whitespace-only headers are never matched,
// even though every synonym contains the empty string; plain two-way
// substring matching would send them to the first field. A nil syn uses
// DefaultSynonyms.
func AutoMap(headers []string, fields []TargetField, syn Synonyms) Mappings {
	if syn == nil {
		syn = defaultSynonyms
	}

	mappings := make(Mappings, len(headers))
	for i, header := range headers {
		mappings[i] = ColumnMapping{Header: header}

		h := strings.ToLower(strings.TrimSpace(header))
		if h == "" {
			continue
		}
		for _, field := range fields {
			if matchesAny(h, syn.For(field)) {
				mappings[i].Field = field.Key
				mappings[i].Mapped = true
				break
			}
		}
	}
	return mappings
}

func matchesAny(header string, synonyms []string) bool {
	for _, s := range synonyms {
		if s == "" {
			continue
		}
		if strings.Contains(header, s) || strings.Contains(s, header) {
			return true
		}
	}
	return false
}
