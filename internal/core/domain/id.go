package domain

import "strings"

const idHexLen = 24

// CanonicalID normalizes a store object identifier to its canonical
// lowercase 24-hex form. ok is false when s is not a valid identifier.
func CanonicalID(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != idHexLen {
		return "", false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", false
		}
	}
	return s, true
}

// IdentifierField reports whether a predicate field holds an object
// identifier: "_id", "id" or any camel-case reference like "producerId".
func IdentifierField(field string) bool {
	if field == "_id" || field == "id" {
		return true
	}
	return strings.HasSuffix(field, "Id") || strings.HasSuffix(field, "_id")
}
