package httpclient

import "strings"

// EncodeQuery renders params as "?k=v&k=v" in insertion order. Keys and values
// are written verbatim without percent-encoding, matching what the Branch API
// has always received. An empty set encodes to "".
func EncodeQuery(params *Params) string {
	if params.Len() == 0 {
		return ""
	}

	var b strings.Builder
	first := true
	params.Each(func(k string, v any) {
		if first {
			b.WriteByte('?')
			first = false
		} else {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(stringValue(v))
	})
	return b.String()
}
