// Package cfg builds a function's control flow graph and reduces it into
// nested structured regions.
package cfg

import (
	"fmt"
	"strings"
)

// VtxKind is the vertex variant.
type VtxKind int

const (
	KindEntry VtxKind = iota
	KindExit
	KindBlock
	KindSequence
	KindIfElse
	KindWhile
)

// EndBranch describes how a region's last instruction leaves it.
type EndBranch struct {
	HasBranch    bool
	BranchLikely bool
	BranchAlways bool
}

// Vtx is one vertex. All six variants share the link-field record; a
// vertex claimed by a parent has its local link fields cleared.
type Vtx struct {
	Kind      VtxKind
	BlockID   int // KindBlock
	EndBranch EndBranch

	Seq       []*Vtx // KindSequence children
	Cond      *Vtx   // KindIfElse / KindWhile
	TrueCase  *Vtx   // KindIfElse
	FalseCase *Vtx   // KindIfElse
	Body      *Vtx   // KindWhile

	Parent     *Vtx
	Prev, Next *Vtx // top-level neighbors
	SuccFT     *Vtx // fallthrough successor
	SuccBranch *Vtx // taken-branch successor
	Pred       []*Vtx
}

// HasPred reports whether p is a predecessor of v.
func (v *Vtx) HasPred(p *Vtx) bool {
	for _, x := range v.Pred {
		if x == p {
			return true
		}
	}
	return false
}

func (v *Vtx) removePred(p *Vtx) {
	out := v.Pred[:0]
	for _, x := range v.Pred {
		if x != p {
			out = append(out, x)
		}
	}
	v.Pred = out
}

func (v *Vtx) replacePred(old, new *Vtx) {
	for i, x := range v.Pred {
		if x == old {
			v.Pred[i] = new
		}
	}
}

func (v *Vtx) String() string {
	switch v.Kind {
	case KindEntry:
		return "entry"
	case KindExit:
		return "exit"
	case KindBlock:
		return fmt.Sprintf("b%d", v.BlockID)
	case KindSequence:
		var b strings.Builder
		b.WriteString("(seq")
		for _, c := range v.Seq {
			b.WriteByte(' ')
			b.WriteString(c.String())
		}
		b.WriteByte(')')
		return b.String()
	case KindIfElse:
		return fmt.Sprintf("(if %s %s %s)", v.Cond, v.TrueCase, v.FalseCase)
	case KindWhile:
		return fmt.Sprintf("(while %s %s)", v.Cond, v.Body)
	default:
		return "?"
	}
}

// CFG owns all vertices of one function. Vertices are allocated from the
// arena and stay valid until the CFG is discarded.
type CFG struct {
	arena []*Vtx
	Entry *Vtx
	Exit  *Vtx
}

func (c *CFG) alloc(kind VtxKind) *Vtx {
	v := &Vtx{Kind: kind}
	c.arena = append(c.arena, v)
	return v
}

// parentClaim attaches child to parent and clears the child's link fields.
func parentClaim(parent, child *Vtx) {
	child.Parent = parent
	child.Prev = nil
	child.Next = nil
	child.SuccFT = nil
	child.SuccBranch = nil
	child.Pred = nil
}

// topLevelCount returns the number of top-level vertices besides
// entry and exit.
func (c *CFG) topLevelCount() int {
	n := 0
	for v := c.Entry.Next; v != nil && v != c.Exit; v = v.Next {
		n++
	}
	return n
}

// IsReduced reports whether reduction collapsed the graph to a single
// top-level vertex.
func (c *CFG) IsReduced() bool { return c.topLevelCount() == 1 }

// String renders the reduced graph, or an (ungrouped ...) form when the
// reduction did not fully resolve.
func (c *CFG) String() string {
	if c.IsReduced() {
		return c.Entry.Next.String()
	}
	var b strings.Builder
	b.WriteString("(ungrouped")
	for v := c.Entry.Next; v != nil && v != c.Exit; v = v.Next {
		b.WriteByte(' ')
		b.WriteString(v.String())
	}
	b.WriteByte(')')
	return b.String()
}
