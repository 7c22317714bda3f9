package butchers

import "encoding/json"

// FreshCodeSet is the allow-list of stock codes that count as fresh produce.
// Only items whose code is in the set are tracked on a butchers list.
type FreshCodeSet map[string]struct{}

// NewFreshCodeSet builds the set from raw allow-list rows. A row may be a
// bare stock code, a JSON-encoded string, or a JSON-encoded array of codes
// (a known irregularity in the products table); arrays are flattened one
// level. Rows that fail to decode as JSON are kept as literal strings.
func NewFreshCodeSet(raw []string) FreshCodeSet {
	set := make(FreshCodeSet, len(raw))
	for _, entry := range raw {
		var decoded any
		if err := json.Unmarshal([]byte(entry), &decoded); err != nil {
			set[entry] = struct{}{}
			continue
		}
		switch v := decoded.(type) {
		case string:
			set[v] = struct{}{}
		case []any:
			for _, elem := range v {
				if code, ok := elem.(string); ok {
					set[code] = struct{}{}
				}
			}
		default:
			// Numbers, booleans etc. round-trip as their literal text.
			set[entry] = struct{}{}
		}
	}
	return set
}

// Contains reports whether code is on the allow-list. The caller is expected
// to have trimmed the code already. An empty or nil set matches nothing.
func (s FreshCodeSet) Contains(code string) bool {
	_, ok := s[code]
	return ok
}
