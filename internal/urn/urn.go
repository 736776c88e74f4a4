// Package urn parses and formats the resource URN grammar that names
// every document in the system: urn:resource:<teamId>:<projectId>:<docId>.
package urn

import (
	"fmt"
	"regexp"
	"strings"
)

// ResourceURN is a parsed urn:resource:<teamId>:<projectId>:<docId>.
type ResourceURN struct {
	TeamID    string
	ProjectID string
	DocID     string
}

var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// Parse validates and decomposes a resource URN. Any deviation from
// the grammar is a validation error, never a not-found — callers look
// up entities only after a URN parses.
func Parse(raw string) (ResourceURN, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 5 || parts[0] != "urn" || parts[1] != "resource" {
		return ResourceURN{}, fmt.Errorf("invalid resource urn %q: expected urn:resource:<teamId>:<projectId>:<docId>", raw)
	}

	teamID, projectID, docID := parts[2], parts[3], parts[4]
	for name, seg := range map[string]string{"teamId": teamID, "projectId": projectID, "docId": docID} {
		if !segmentPattern.MatchString(seg) {
			return ResourceURN{}, fmt.Errorf("invalid resource urn %q: %s segment %q must match [A-Za-z0-9]+", raw, name, seg)
		}
	}

	return ResourceURN{TeamID: teamID, ProjectID: projectID, DocID: docID}, nil
}

// String formats the URN back into its canonical wire form.
func (u ResourceURN) String() string {
	return fmt.Sprintf("urn:resource:%s:%s:%s", u.TeamID, u.ProjectID, u.DocID)
}

// Valid reports whether raw parses as a well-formed resource URN,
// without returning the parsed parts.
func Valid(raw string) bool {
	_, err := Parse(raw)
	return err == nil
}
