package api

import "github.com/danielgtaylor/huma/v2"

// envelopeVersion is bumped when the wire shape of the envelope changes.
// Clients check it before parsing the rest of the body.
const envelopeVersion = 1

type successEnvelope struct {
	V       int  `json:"v"`
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type errorEnvelope struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps every huma response body in the shared envelope
// so handlers only deal with their own payload types.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch err := v.(type) {
	case *APIError:
		if err.Code == "" {
			return &errorEnvelope{V: envelopeVersion, Error: err.Message}, nil
		}
		return &errorEnvelope{
			V:       envelopeVersion,
			Code:    err.Code,
			Message: err.Message,
			Details: err.Details,
		}, nil
	case huma.StatusError:
		return &errorEnvelope{V: envelopeVersion, Error: err.Error()}, nil
	}

	return &successEnvelope{V: envelopeVersion, Success: true, Data: v}, nil
}
