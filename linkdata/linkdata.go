// Package linkdata holds the link metadata that some Branch requests are made on
// behalf of. The HTTP client never inspects it; it only hands the same pointer
// back on the response so callers can correlate the two.
package linkdata

import "slices"

// Link types understood by the Branch API.
const (
	TypeDefault   = 0
	TypeOneTime   = 1
	TypeMarketing = 2
)

// LinkData describes the deep link a request was issued for.
type LinkData struct {
	Tags     []string       `json:"tags,omitempty"`
	Alias    string         `json:"alias,omitempty"`
	Type     int            `json:"type,omitempty"`
	Duration int            `json:"duration,omitempty"`
	Channel  string         `json:"channel,omitempty"`
	Feature  string         `json:"feature,omitempty"`
	Stage    string         `json:"stage,omitempty"`
	Campaign string         `json:"campaign,omitempty"`
	Params   map[string]any `json:"data,omitempty"`
}

// Equal reports whether two link descriptions would produce the same link.
func (d *LinkData) Equal(other *LinkData) bool {
	if d == nil || other == nil {
		return d == other
	}
	if d.Alias != other.Alias || d.Type != other.Type || d.Duration != other.Duration ||
		d.Channel != other.Channel || d.Feature != other.Feature ||
		d.Stage != other.Stage || d.Campaign != other.Campaign {
		return false
	}
	if !slices.Equal(d.Tags, other.Tags) || len(d.Params) != len(other.Params) {
		return false
	}
	for k, v := range d.Params {
		ov, ok := other.Params[k]
		if !ok || !shallowEqual(v, ov) {
			return false
		}
	}
	return true
}

// shallowEqual compares comparable values directly; anything else is unequal.
func shallowEqual(a, b any) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()
	return a == b
}
