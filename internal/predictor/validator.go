package predictor

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas
var schemaFiles embed.FS

const schemaBaseURL = "https://heartsforbots.dev/schemas/"

var (
	ErrInvalidRequest  = errors.New("invalid prediction request")
	ErrInvalidResponse = errors.New("invalid prediction response")
)

// Validator checks prediction payloads against the embedded JSON schemas
type Validator struct {
	request  *jsonschema.Schema
	response *jsonschema.Schema
}

// NewValidator compiles the request and response schemas
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	// Shared definitions first so references resolve
	for _, filename := range []string{"card.json", "request.json", "response.json"} {
		data, err := schemaFiles.ReadFile("schemas/" + filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", filename, err)
		}
		if err := compiler.AddResource(schemaBaseURL+filename, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to add schema %s: %w", filename, err)
		}
	}

	request, err := compiler.Compile(schemaBaseURL + "request.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile request schema: %w", err)
	}
	response, err := compiler.Compile(schemaBaseURL + "response.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile response schema: %w", err)
	}
	return &Validator{request: request, response: response}, nil
}

// MustNewValidator is NewValidator for the embedded schemas, which are
// known to compile
func MustNewValidator() *Validator {
	v, err := NewValidator()
	if err != nil {
		panic(err)
	}
	return v
}

// ValidateRequest checks a raw request body
func (v *Validator) ValidateRequest(data []byte) error {
	if err := validate(v.request, data); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

// ValidateResponse checks a raw response body
func (v *Validator) ValidateResponse(data []byte) error {
	if err := validate(v.response, data); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return nil
}

func validate(schema *jsonschema.Schema, data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// DecodeRequest validates and decodes a request body
func (v *Validator) DecodeRequest(data []byte) (Request, error) {
	if err := v.ValidateRequest(data); err != nil {
		return Request{}, err
	}
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return req, nil
}

// DecodeResponse validates and decodes a response body into a card
func (v *Validator) DecodeResponse(data []byte) (Response, error) {
	if err := v.ValidateResponse(data); err != nil {
		return Response{}, err
	}
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return resp, nil
}
