package keys

import (
	"context"
	"strings"
)

// AutoDetect returns the index of the first record whose public key is one
// of recipients. Records whose key cannot be derived are skipped. The
// choice is advisory: if the key then fails to decrypt, callers must ask
// for a key instead of trying the next one.
func AutoDetect(ctx context.Context, recipients []string, records []*Record, d Deriver) (int, bool) {
	if len(recipients) == 0 {
		return 0, false
	}
	matches := Matching(ctx, recipients, records, d)
	if len(matches) == 0 {
		return 0, false
	}
	return matches[0], true
}

// Matching returns the indexes of every record whose public key is one of
// recipients, in record order.
func Matching(ctx context.Context, recipients []string, records []*Record, d Deriver) []int {
	set := make(map[string]bool, len(recipients))
	for _, r := range recipients {
		set[r] = true
	}

	var out []int
	for i, rec := range records {
		pub, err := rec.PublicKey(ctx, d)
		if err != nil {
			continue
		}
		if set[pub] {
			out = append(out, i)
		}
	}
	return out
}

// Filter returns the indexes of records whose comment or public key
// contains query, ignoring case. An empty query matches everything.
func Filter(ctx context.Context, query string, records []*Record, d Deriver) []int {
	query = strings.ToLower(query)

	var out []int
	for i, rec := range records {
		if query == "" || strings.Contains(strings.ToLower(rec.Comment), query) {
			out = append(out, i)
			continue
		}
		if pub, err := rec.PublicKey(ctx, d); err == nil && strings.Contains(strings.ToLower(pub), query) {
			out = append(out, i)
		}
	}
	return out
}
