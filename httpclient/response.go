package httpclient

import (
	"encoding/json"

	"github.com/gaborage/branch-remote/linkdata"
)

// PayloadKind tells which payload, if any, an envelope carries.
type PayloadKind int

const (
	PayloadNone PayloadKind = iota
	PayloadObject
	PayloadArray
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadObject:
		return "object"
	case PayloadArray:
		return "array"
	default:
		return "none"
	}
}

// Envelope is the result of every call. StatusCode is either the HTTP status
// or one of the sentinel statuses. It carries at most one payload.
type Envelope struct {
	Tag        string
	StatusCode int
	LinkData   *linkdata.LinkData
	Stats      Stats

	object map[string]any
	array  []any
	kind   PayloadKind
}

// NewEnvelope returns an envelope without payload.
func NewEnvelope(tag string, status int) *Envelope {
	return &Envelope{Tag: tag, StatusCode: status}
}

// SetObject stores an object payload, replacing any array payload. A nil map
// clears the payload.
func (e *Envelope) SetObject(obj map[string]any) {
	e.array = nil
	e.object = obj
	e.kind = PayloadObject
	if obj == nil {
		e.kind = PayloadNone
	}
}

// SetArray stores an array payload, replacing any object payload. A nil slice
// clears the payload.
func (e *Envelope) SetArray(arr []any) {
	e.object = nil
	e.array = arr
	e.kind = PayloadArray
	if arr == nil {
		e.kind = PayloadNone
	}
}

// Object returns the object payload, or nil.
func (e *Envelope) Object() map[string]any { return e.object }

// Array returns the array payload, or nil.
func (e *Envelope) Array() []any { return e.array }

// Payload returns whichever payload is present, or nil.
func (e *Envelope) Payload() any {
	switch e.kind {
	case PayloadObject:
		return e.object
	case PayloadArray:
		return e.array
	default:
		return nil
	}
}

func (e *Envelope) HasPayload() bool { return e.kind != PayloadNone }

func (e *Envelope) PayloadKind() PayloadKind { return e.kind }

// IsSuccess reports a 2xx HTTP status.
func (e *Envelope) IsSuccess() bool {
	return e.StatusCode >= 200 && e.StatusCode < 300
}

type envelopeJSON struct {
	Tag         string             `json:"tag,omitempty"`
	StatusCode  int                `json:"status_code"`
	PayloadKind string             `json:"payload_kind"`
	Payload     any                `json:"payload,omitempty"`
	LinkData    *linkdata.LinkData `json:"link_data,omitempty"`
	ElapsedMS   int64              `json:"elapsed_ms"`
	Attempts    int                `json:"attempts"`
}

// MarshalJSON renders the envelope for CLI output and logs.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelopeJSON{
		Tag:         e.Tag,
		StatusCode:  e.StatusCode,
		PayloadKind: e.kind.String(),
		Payload:     e.Payload(),
		LinkData:    e.LinkData,
		ElapsedMS:   e.Stats.ElapsedTime.Milliseconds(),
		Attempts:    e.Stats.Attempts,
	})
}
