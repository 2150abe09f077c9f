package filter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Node is one element of a filter expression tree. A group sets Op and
// Args; an atom sets Field, Operator and Value. Mixed nodes are invalid.
type Node struct {
	Op       string  `json:"op,omitempty"`
	Args     []*Node `json:"args,omitempty"`
	Field    Field   `json:"field,omitempty"`
	Operator string  `json:"operator,omitempty"`
	Value    string  `json:"value,omitempty"`
}

// IsGroup reports whether n looks like a group node.
func (n *Node) IsGroup() bool {
	return n.Op != "" || n.Args != nil
}

// IsAtom reports whether n looks like an atom node.
func (n *Node) IsAtom() bool {
	return n.Field != "" || n.Operator != "" || n.Value != ""
}

// Contains builds an atom matching field against value.
func Contains(field Field, value string) *Node {
	return &Node{Field: field, Operator: OperatorContains, Value: value}
}

// And builds an AND group.
func And(args ...*Node) *Node {
	return &Node{Op: OpAnd, Args: args}
}

// Or builds an OR group.
func Or(args ...*Node) *Node {
	return &Node{Op: OpOr, Args: args}
}

// Parse strictly decodes a filter expression. Unknown keys, wrong value
// types and trailing data are errors.
func Parse(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var n Node
	if err := dec.Decode(&n); err != nil {
		return nil, fmt.Errorf("failed to decode filter expression: %w", err)
	}
	if err := ensureEOF(dec); err != nil {
		return nil, err
	}
	return &n, nil
}

func ensureEOF(dec *json.Decoder) error {
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("unexpected data after filter expression")
	}
	return nil
}

// String renders the expression in a readable infix form, for logs and the
// CLI. It is never used to build SQL.
func (n *Node) String() string {
	var b strings.Builder
	n.writeTo(&b)
	return b.String()
}

func (n *Node) writeTo(b *strings.Builder) {
	if n == nil {
		b.WriteString("<nil>")
		return
	}
	if !n.IsGroup() {
		fmt.Fprintf(b, "%s %s %q", n.Field, strings.ToUpper(n.Operator), n.Value)
		return
	}
	b.WriteString("(")
	for i, arg := range n.Args {
		if i > 0 {
			b.WriteString(" " + strings.ToUpper(n.Op) + " ")
		}
		arg.writeTo(b)
	}
	b.WriteString(")")
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Args != nil {
		c.Args = make([]*Node, len(n.Args))
		for i, arg := range n.Args {
			c.Args[i] = arg.Clone()
		}
	}
	return &c
}
