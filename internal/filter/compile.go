package filter

import (
	"fmt"
	"strings"
)

// likeEscaper escapes LIKE metacharacters so literals match verbatim.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Compiled is a WHERE fragment with its positional arguments. Placeholders
// are numbered from the start index passed to Compile.
type Compiled struct {
	SQL  string
	Args []any
}

// NextParam returns the next free placeholder index.
func (c Compiled) NextParam(start int) int {
	return start + len(c.Args)
}

// Compile renders the expression as a parameterised predicate. Literals
// are only ever emitted as $n arguments.
func (v *Validated) Compile(start int) Compiled {
	if start < 1 {
		start = 1
	}
	c := &compiler{next: start}
	var b strings.Builder
	c.node(&b, v.root)
	return Compiled{SQL: b.String(), Args: c.args}
}

type compiler struct {
	next int
	args []any
}

func (c *compiler) node(b *strings.Builder, n *Node) {
	if !n.IsGroup() {
		col, _ := Column(n.Field)
		c.args = append(c.args, "%"+likeEscaper.Replace(n.Value)+"%")
		fmt.Fprintf(b, `%s ILIKE $%d ESCAPE '\'`, col, c.next)
		c.next++
		return
	}

	joiner := " AND "
	if n.Op == OpOr {
		joiner = " OR "
	}
	b.WriteString("(")
	for i, arg := range n.Args {
		if i > 0 {
			b.WriteString(joiner)
		}
		c.node(b, arg)
	}
	b.WriteString(")")
}
