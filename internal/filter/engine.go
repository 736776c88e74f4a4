// Package filter interprets policy filter predicates against an
// evaluation context (spec §4.2). Evaluate and EvaluateAll are pure,
// total functions: no input ever causes them to panic or return an
// error, so a malformed filter degrades to "does not match" rather
// than aborting a decision (invariant I7).
//
// Context values use Go's own dynamic JSON sum (nil, bool,
// float64/int, string, []interface{}, map[string]interface{})
// as the tagged value type spec design note §9 calls for: that sum is
// exactly what encoding/json and the map literals in internal/ctxbuild
// already produce, so resolution below type-switches on it directly
// rather than introducing a parallel wrapper type.
package filter

import (
	"reflect"
	"strings"

	"github.com/docaccess/authz-core/pkg/types"
)

// Evaluate interprets a single filter against ctx.
func Evaluate(f types.Filter, ctx types.Context) bool {
	left := resolveProperty(f.Prop, ctx)
	right := resolveValue(f.Value, ctx)

	// <> is special-cased before the null short-circuit: it IS the
	// null check, not a comparison that happens to receive null.
	if f.Op == types.OpNotNull {
		return left != nil
	}

	// Missing left-hand property is equivalent to null, and null
	// short-circuits every operator except <> to false — including
	// the negative operators, whose vacuous-true behavior only kicks
	// in once L is present but an operand is the wrong shape (see
	// notIn/hasNot below).
	if left == nil {
		return false
	}

	switch f.Op {
	case types.OpEq:
		return equal(left, right)
	case types.OpNeq:
		return !equal(left, right)
	case types.OpGt, types.OpGte, types.OpLt, types.OpLte:
		return compare(f.Op, left, right)
	case types.OpIn:
		return in(left, right)
	case types.OpNotIn:
		return notIn(left, right)
	case types.OpHas:
		return has(left, right)
	case types.OpHasNot:
		return hasNot(left, right)
	default:
		return false
	}
}

// EvaluateAll is the AND of every filter in fs. An empty or nil filter
// list matches unconditionally (invariant I9).
func EvaluateAll(fs []types.Filter, ctx types.Context) bool {
	for _, f := range fs {
		if !Evaluate(f, ctx) {
			return false
		}
	}
	return true
}

// resolveProperty walks a dot-separated path through ctx. It never
// panics: an unresolvable segment at any step returns null.
func resolveProperty(path string, ctx types.Context) interface{} {
	if path == "" {
		return nil
	}

	segments := strings.Split(path, ".")
	var current interface{} = map[string]interface{}(ctx)

	for _, seg := range segments {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		next, ok := m[seg]
		if !ok {
			return nil
		}
		current = next
	}

	return current
}

// resolveValue implements the property/value duality: a string value
// is treated as a property reference, and resolved through ctx, only
// when its first dot-separated segment names a top-level key actually
// present in ctx. This must be checked at evaluation time (not filter
// load time) because the set of recognized keys depends on which
// optional entities the caller supplied for this particular request.
func resolveValue(v interface{}, ctx types.Context) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}

	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return s
	}

	head := s[:dot]
	if _, present := ctx[head]; !present {
		return s
	}

	return resolveProperty(s, ctx)
}

func equal(a, b interface{}) bool {
	af, aIsNum := asFloat(a)
	bf, bIsNum := asFloat(b)
	if aIsNum && bIsNum {
		return af == bf
	}
	// DeepEqual rather than ==: two lists or two maps would make == panic.
	return reflect.DeepEqual(a, b)
}

// compare orders a and b the way Python's <, <=, >, >= operators would:
// numbers compare numerically, strings compare lexicographically, and
// anything else (including a number against a string) is the TypeError
// case the original catches and turns into false.
func compare(op types.FilterOperator, a, b interface{}) bool {
	if af, aOK := asFloat(a); aOK {
		if bf, bOK := asFloat(b); bOK {
			switch op {
			case types.OpGt:
				return af > bf
			case types.OpGte:
				return af >= bf
			case types.OpLt:
				return af < bf
			case types.OpLte:
				return af <= bf
			}
		}
		return false
	}
	if as, aOK := a.(string); aOK {
		if bs, bOK := b.(string); bOK {
			switch op {
			case types.OpGt:
				return as > bs
			case types.OpGte:
				return as >= bs
			case types.OpLt:
				return as < bs
			case types.OpLte:
				return as <= bs
			}
		}
	}
	return false
}

// asFloat recognizes only genuine numeric types. Unlike the naive
// strconv.ParseFloat coercion this package used to apply to strings, a
// numeric-looking string stays a string here: the original never
// coerces "123" into 123, so "123" == 123 is false and "10" > "9"
// compares lexically, not numerically (see compare above).
func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func asSlice(v interface{}) ([]interface{}, bool) {
	s, ok := v.([]interface{})
	return s, ok
}

func in(left, right interface{}) bool {
	items, ok := asSlice(right)
	if !ok {
		return false
	}
	for _, item := range items {
		if equal(left, item) {
			return true
		}
	}
	return false
}

func notIn(left, right interface{}) bool {
	items, ok := asSlice(right)
	if !ok {
		// Vacuous: "not in" an operand that isn't even a sequence.
		return true
	}
	for _, item := range items {
		if equal(left, item) {
			return false
		}
	}
	return true
}

func has(left, right interface{}) bool {
	if ls, ok := left.(string); ok {
		if rs, ok := right.(string); ok {
			return strings.Contains(ls, rs)
		}
		return false
	}
	if items, ok := asSlice(left); ok {
		for _, item := range items {
			if equal(item, right) {
				return true
			}
		}
		return false
	}
	return false
}

func hasNot(left, right interface{}) bool {
	if ls, ok := left.(string); ok {
		if rs, ok := right.(string); ok {
			return !strings.Contains(ls, rs)
		}
		return true
	}
	if items, ok := asSlice(left); ok {
		for _, item := range items {
			if equal(item, right) {
				return false
			}
		}
		return true
	}
	return true
}
