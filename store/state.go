// Package store holds the client application state and the actions that
// talk to the band gap prediction service.
//
// State is only ever written through the four mutators (SetPredictions,
// SetAPIStatus, SetProcessing, SetError). Actions perform one HTTP call and
// commit their outcome through those mutators.
package store

import (
	"bytes"
	"encoding/json"
)

// State is the application state observed by the views
type State struct {
	Predictions  Predictions `json:"predictions"`
	APIStatus    string      `json:"apiStatus"`
	IsProcessing bool        `json:"isProcessing"`
	Error        string      `json:"error,omitempty"` // empty when there is no error
}

// HasError reports whether an error message is present
func (s State) HasError() bool {
	return s.Error != ""
}

// clone returns a copy that shares no memory with s
func (s State) clone() State {
	s.Predictions = s.Predictions.clone()
	return s
}

// Predictions is the prediction response body exactly as the backend sent it
type Predictions json.RawMessage

// emptyPredictions is the initial value, an empty list
func emptyPredictions() Predictions {
	return Predictions("[]")
}

// MarshalJSON returns the body unchanged
func (p Predictions) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

// UnmarshalJSON keeps a copy of data
func (p *Predictions) UnmarshalJSON(data []byte) error {
	*p = append((*p)[0:0], data...)
	return nil
}

// Equal reports whether both bodies are byte-for-byte identical
func (p Predictions) Equal(other Predictions) bool {
	return bytes.Equal(p, other)
}

// IsEmpty reports whether there is nothing to display
func (p Predictions) IsEmpty() bool {
	trimmed := bytes.TrimSpace(p)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("[]")) || bytes.Equal(trimmed, []byte("null"))
}

func (p Predictions) String() string {
	return string(p)
}

func (p Predictions) clone() Predictions {
	if p == nil {
		return nil
	}
	return append(Predictions(nil), p...)
}
