package bsky

import (
	"fmt"
	"strings"
)

// ATURI is a parsed at:// record address.
type ATURI struct {
	Authority  string
	Collection string
	RecordKey  string
}

// ParseATURI splits at://authority/collection/rkey.
func ParseATURI(value string) (ATURI, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(value), "at://")
	if !ok || rest == "" {
		return ATURI{}, fmt.Errorf("invalid at-uri %q", value)
	}

	parts := strings.SplitN(rest, "/", 3)
	uri := ATURI{Authority: parts[0]}
	if uri.Authority == "" {
		return ATURI{}, fmt.Errorf("invalid at-uri %q: missing authority", value)
	}
	if len(parts) > 1 {
		uri.Collection = parts[1]
	}
	if len(parts) > 2 {
		uri.RecordKey = parts[2]
	}
	return uri, nil
}

// IsDID reports whether the authority is a DID rather than a handle.
func (u ATURI) IsDID() bool {
	return strings.HasPrefix(u.Authority, "did:")
}

func (u ATURI) String() string {
	var b strings.Builder
	b.WriteString("at://")
	b.WriteString(u.Authority)
	if u.Collection != "" {
		b.WriteString("/")
		b.WriteString(u.Collection)
	}
	if u.RecordKey != "" {
		b.WriteString("/")
		b.WriteString(u.RecordKey)
	}
	return b.String()
}
