package httpclient

import "strings"

const redacted = "[REDACTED]"

// sensitiveParams are matched case-insensitively as substrings of a name.
var sensitiveParams = []string{
	"branch_key",
	"app_id",
	"key",
	"token",
	"secret",
	"password",
	"auth",
	"credential",
}

func isSensitiveParam(name string) bool {
	lower := strings.ToLower(name)
	for _, sensitive := range sensitiveParams {
		if strings.Contains(lower, sensitive) {
			return true
		}
	}
	return false
}

// sanitizeURL redacts sensitive query values before logging. The query is
// rewritten in place, pair by pair, so order and raw bytes survive.
func sanitizeURL(raw string) string {
	base, query, found := strings.Cut(raw, "?")
	if !found || query == "" {
		return raw
	}
	fragment := ""
	if i := strings.IndexByte(query, '#'); i >= 0 {
		query, fragment = query[:i], query[i:]
	}

	pairs := strings.Split(query, "&")
	for i, pair := range pairs {
		name, _, hasValue := strings.Cut(pair, "=")
		if hasValue && isSensitiveParam(name) {
			pairs[i] = name + "=" + redacted
		}
	}
	return base + "?" + strings.Join(pairs, "&") + fragment
}

// sanitizeParams returns a copy of p with sensitive top-level values redacted.
func sanitizeParams(p *Params) *Params {
	out := NewParams()
	p.Each(func(k string, v any) {
		if isSensitiveParam(k) {
			v = redacted
		}
		out.Set(k, v)
	})
	return out
}
