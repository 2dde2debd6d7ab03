package plandraft

import "errors"

var (
	// ErrInvalidTool is returned when a tool specification is malformed.
	ErrInvalidTool = errors.New("invalid tool specification")

	// ErrInvalidParameter is returned when a tool parameter specification is malformed.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidInput is returned when a session receives an input type it does not support.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingCredential is returned when a provider is requested without its API key.
	ErrMissingCredential = errors.New("missing provider credential")

	// ErrProvider is returned when an LLM provider call fails. The loop aborts on it
	// and surfaces the message in the generation result.
	ErrProvider = errors.New("provider call failed")

	// ErrProviderResponse is returned when a provider response cannot be decoded
	// into the canonical shape.
	ErrProviderResponse = errors.New("malformed provider response")

	// ErrInvalidRequest is returned for malformed generation requests. It is reported
	// at the API boundary and never enters the loop.
	ErrInvalidRequest = errors.New("invalid generation request")
)
