package policydoc

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/docaccess/authz-core/internal/apperr"
	"github.com/docaccess/authz-core/pkg/types"
)

// DecodeResourcePolicyDocument strictly parses a full
// ResourcePolicyDocument, rejecting unknown fields so a misspelled
// filter key fails loudly instead of silently being dropped (spec §6
// wire format). It does not validate the decoded document — call
// ValidateResourcePolicyDocument separately.
func DecodeResourcePolicyDocument(raw []byte) (*types.ResourcePolicyDocument, error) {
	var doc types.ResourcePolicyDocument
	if err := strictDecode(raw, &doc); err != nil {
		return nil, apperr.Validation("resource policy document: %v", err)
	}
	return &doc, nil
}

// DecodeUserPolicyDocument is DecodeResourcePolicyDocument's
// counterpart for per-user documents.
func DecodeUserPolicyDocument(raw []byte) (*types.UserPolicyDocument, error) {
	var doc types.UserPolicyDocument
	if err := strictDecode(raw, &doc); err != nil {
		return nil, apperr.Validation("user policy document: %v", err)
	}
	return &doc, nil
}

// DecodeSimplePolicyOptions strictly parses the simple-form ingest
// body.
func DecodeSimplePolicyOptions(raw []byte) (*types.SimplePolicyOptions, error) {
	var opts types.SimplePolicyOptions
	if err := strictDecode(raw, &opts); err != nil {
		return nil, apperr.Validation("simple policy options: %v", err)
	}
	return &opts, nil
}

// IsSimpleForm structurally discriminates a simple-form ingest body
// from a full ResourcePolicyDocument: the simple form has a top-level
// "action" field, which a full document never does.
func IsSimpleForm(raw []byte) bool {
	var probe struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	return probe.Action != ""
}

func strictDecode(raw []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}
