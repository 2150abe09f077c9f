package filter

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	talentErrors "talentsearch/internal/errors"
)

// Default limits applied when a Limits field is zero.
const (
	DefaultMaxDepth         = 6
	DefaultMaxAtoms         = 40
	DefaultMaxLiteralLength = 100
)

// Limits bounds the size of an accepted expression.
type Limits struct {
	MaxDepth         int
	MaxAtoms         int
	MaxLiteralLength int
}

func (l Limits) withDefaults() Limits {
	if l.MaxDepth <= 0 {
		l.MaxDepth = DefaultMaxDepth
	}
	if l.MaxAtoms <= 0 {
		l.MaxAtoms = DefaultMaxAtoms
	}
	if l.MaxLiteralLength <= 0 {
		l.MaxLiteralLength = DefaultMaxLiteralLength
	}
	return l
}

// Validator checks expressions against the field allow-list and the
// structural limits.
type Validator struct {
	limits Limits
}

// NewValidator creates a validator. Zero limits fall back to defaults.
func NewValidator(limits Limits) *Validator {
	return &Validator{limits: limits.withDefaults()}
}

// Limits returns the effective limits.
func (v *Validator) Limits() Limits {
	return v.limits
}

// Validated is an expression that passed validation. The executor only
// accepts this type, so unvalidated trees cannot reach SQL.
type Validated struct {
	root  *Node
	depth int
	atoms int
}

// Expression returns a copy of the normalised expression.
func (v *Validated) Expression() *Node {
	return v.root.Clone()
}

// Depth returns the nesting depth. A lone atom has depth 1.
func (v *Validated) Depth() int { return v.depth }

// Atoms returns the number of atoms.
func (v *Validated) Atoms() int { return v.atoms }

func (v *Validated) String() string { return v.root.String() }

// Validate normalises n and checks it. The input is not modified. Any
// violation is returned as a filter_rejected AppError that names the
// offending path and fragment.
func (v *Validator) Validate(n *Node) (*Validated, error) {
	if n == nil {
		return nil, talentErrors.NewFilterRejectedError(talentErrors.ErrCodeMalformedFilter,
			"filter expression is empty", nil)
	}

	w := &walker{limits: v.limits}
	root, depth, err := w.walk(n, "$", 1)
	if err != nil {
		return nil, err
	}
	return &Validated{root: root, depth: depth, atoms: w.atoms}, nil
}

type walker struct {
	limits Limits
	atoms  int
}

func (w *walker) walk(n *Node, path string, level int) (*Node, int, error) {
	if n == nil {
		return nil, 0, reject(talentErrors.ErrCodeMalformedFilter, path, "null", "null node")
	}
	if level > w.limits.MaxDepth {
		return nil, 0, reject(talentErrors.ErrCodeFilterTooDeep, path, n.String(),
			fmt.Sprintf("nesting depth exceeds %d", w.limits.MaxDepth))
	}

	switch {
	case n.IsGroup() && n.IsAtom():
		return nil, 0, reject(talentErrors.ErrCodeMalformedFilter, path, n.String(),
			"node mixes group and atom keys")
	case n.IsGroup():
		return w.walkGroup(n, path, level)
	case n.IsAtom():
		atom, err := w.walkAtom(n, path)
		return atom, 1, err
	default:
		return nil, 0, reject(talentErrors.ErrCodeMalformedFilter, path, "{}", "empty node")
	}
}

func (w *walker) walkGroup(n *Node, path string, level int) (*Node, int, error) {
	op := strings.ToLower(strings.TrimSpace(n.Op))
	if op != OpAnd && op != OpOr {
		return nil, 0, reject(talentErrors.ErrCodeOperatorNotAllowed, path, n.Op,
			"group operator must be AND or OR")
	}
	if len(n.Args) == 0 {
		return nil, 0, reject(talentErrors.ErrCodeMalformedFilter, path, n.String(),
			"group has no arguments")
	}

	out := &Node{Op: op, Args: make([]*Node, 0, len(n.Args))}
	maxChild := 0
	for i, arg := range n.Args {
		child, depth, err := w.walk(arg, fmt.Sprintf("%s.args[%d]", path, i), level+1)
		if err != nil {
			return nil, 0, err
		}
		if depth > maxChild {
			maxChild = depth
		}
		out.Args = append(out.Args, child)
	}
	return out, maxChild + 1, nil
}

func (w *walker) walkAtom(n *Node, path string) (*Node, error) {
	if _, ok := Column(n.Field); !ok {
		return nil, reject(talentErrors.ErrCodeFieldNotAllowed, path, string(n.Field),
			"field is not in the allow-list")
	}
	operator := strings.ToLower(strings.TrimSpace(n.Operator))
	if operator != OperatorContains {
		return nil, reject(talentErrors.ErrCodeOperatorNotAllowed, path, n.Operator,
			"only CONTAINS is supported")
	}

	// The literal is bound exactly as given: " Go " must not widen to "Go".
	value := n.Value
	if strings.TrimSpace(value) == "" {
		return nil, reject(talentErrors.ErrCodeInvalidLiteral, path, n.Value, "literal is empty")
	}
	if !utf8.ValidString(value) {
		return nil, reject(talentErrors.ErrCodeInvalidLiteral, path, value, "literal is not valid UTF-8")
	}
	if utf8.RuneCountInString(value) > w.limits.MaxLiteralLength {
		return nil, reject(talentErrors.ErrCodeInvalidLiteral, path, truncate(value, 32),
			fmt.Sprintf("literal exceeds %d characters", w.limits.MaxLiteralLength))
	}
	if strings.IndexFunc(value, unicode.IsControl) >= 0 {
		return nil, reject(talentErrors.ErrCodeInvalidLiteral, path, value,
			"literal contains control characters")
	}

	w.atoms++
	if w.atoms > w.limits.MaxAtoms {
		return nil, reject(talentErrors.ErrCodeFilterTooLarge, path, n.String(),
			fmt.Sprintf("more than %d atoms", w.limits.MaxAtoms))
	}
	return &Node{Field: n.Field, Operator: OperatorContains, Value: value}, nil
}

func reject(code, path, fragment, reason string) error {
	return talentErrors.NewFilterRejectedError(code,
		fmt.Sprintf("filter rejected at %s: %s", path, reason), nil).
		WithContext("path", path).
		WithContext("fragment", truncate(fragment, 120))
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "..."
}
