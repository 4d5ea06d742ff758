// Package fixtures builds client envelopes for tests.
package fixtures

import (
	"net/http"

	"github.com/gaborage/branch-remote/httpclient"
)

// ObjectEnvelope returns a 200 envelope carrying obj.
func ObjectEnvelope(tag string, obj map[string]any) *httpclient.Envelope {
	env := httpclient.NewEnvelope(tag, http.StatusOK)
	env.SetObject(obj)
	env.Stats.Attempts = 1
	return env
}

// ArrayEnvelope returns a 200 envelope carrying arr.
func ArrayEnvelope(tag string, arr []any) *httpclient.Envelope {
	env := httpclient.NewEnvelope(tag, http.StatusOK)
	env.SetArray(arr)
	env.Stats.Attempts = 1
	return env
}

// StatusEnvelope returns an envelope with status and no payload.
func StatusEnvelope(tag string, status int) *httpclient.Envelope {
	env := httpclient.NewEnvelope(tag, status)
	env.Stats.Attempts = 1
	return env
}

// NoConnectivityEnvelope mirrors a call whose host could not be reached.
func NoConnectivityEnvelope(tag string) *httpclient.Envelope {
	return StatusEnvelope(tag, httpclient.StatusNoConnectivity)
}

// NoBranchKeyEnvelope mirrors a call made without credentials. No attempt is made.
func NoBranchKeyEnvelope(tag string) *httpclient.Envelope {
	return httpclient.NewEnvelope(tag, httpclient.StatusNoBranchKey)
}

// IOFailureEnvelope mirrors a call that failed with a generic I/O error.
func IOFailureEnvelope(tag string) *httpclient.Envelope {
	return StatusEnvelope(tag, httpclient.StatusIOFailure)
}
