package catalog

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Normalize converts a raw detail document into the canonical shape the
// destination expects. It is pure: the same input always yields the same
// output, and no input makes it fail.
func Normalize(d RawDetail) NormalizedRecord {
	return NormalizedRecord{
		ID:      d.ID,
		Name:    d.Name,
		Friends: NormalizeFriends(d.Friends),
		BornAt:  NormalizeTimestamp(d.BornAt),
	}
}

// NormalizeFriends turns the friends field into a flat list of names. The
// service delivers it either as one comma-delimited string or as a proper
// array; a delimited string is split with empty segments dropped, an array
// passes through unchanged, and every other shape yields an empty list. The
// result is never nil so it always marshals as [].
func NormalizeFriends(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}

	var joined string
	if err := json.Unmarshal(raw, &joined); err == nil {
		names := []string{}
		for _, name := range strings.Split(joined, ",") {
			if name != "" {
				names = append(names, name)
			}
		}
		return names
	}

	var names []string
	if err := json.Unmarshal(raw, &names); err == nil && names != nil {
		return names
	}
	return []string{}
}

// NormalizeTimestamp converts a born_at value into an RFC 3339 UTC string.
// The field arrives as an epoch-milliseconds integer, a digit string, an
// empty string or null; anything that does not decode cleanly into epoch
// milliseconds degrades to nil rather than failing the record. A zero value
// also maps to nil, matching how the service marks an unknown birth date.
func NormalizeTimestamp(raw json.RawMessage) *string {
	ms, ok := parseEpochMillis(raw)
	if !ok || ms == 0 {
		return nil
	}

	t := time.UnixMilli(ms).UTC()
	if y := t.Year(); y < 1 || y > 9999 {
		return nil
	}
	iso := t.Format(time.RFC3339Nano)
	return &iso
}

// parseEpochMillis extracts epoch milliseconds from a JSON number or a
// string of digits. Decoding a JSON null into int64 is a no-op, so null
// falls out as the zero value and is filtered by the caller.
func parseEpochMillis(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return ms, true
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0, false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	ms, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, false
	}
	return ms, true
}
