package webhook

import (
	"regexp"
	"strings"
)

var refKVRe = regexp.MustCompile(`(?i)(?:^|[\s,;])([a-zA-Z0-9_]+)=([a-zA-Z0-9-]+)`)

// ParseKeyFromReference extracts a key=value token from a checkout reference
// string. Tolerant by design: references can include prefixes, punctuation,
// and provider-added text.
//
// Example reference:
//   "shootops: batch_id=9b2f... source=bulk"
func ParseKeyFromReference(ref string, key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}

	matches := refKVRe.FindAllStringSubmatch(ref, -1)
	for _, m := range matches {
		if len(m) != 3 {
			continue
		}
		if strings.EqualFold(m[1], key) {
			return m[2]
		}
	}
	return ""
}
