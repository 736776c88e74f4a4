package types

// Decision is the result of evaluating a single permission for a
// single (user, document) pair.
type Decision struct {
	Allowed         bool     `json:"allowed"`
	Message         string   `json:"message"`
	MatchedPolicies []string `json:"matchedPolicies"`
}

// Context is the nested evaluation context the Context Assembler
// builds and the Filter Engine reads. Each top-level key is an entity
// name ("user", "document", "team", ...); each value is that entity's
// flat attribute map. A key is absent entirely when the entity was not
// supplied, which is what makes property resolution against it return
// null rather than a present empty value.
type Context map[string]interface{}
