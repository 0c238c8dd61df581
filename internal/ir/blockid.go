package ir

import "fmt"

// BlockKind enumerates the BlockId kinds of spec.md §3.
type BlockKind int

const (
	BlockFunctionWhole BlockKind = iota
	BlockFunction
	BlockLoop
	BlockInitializer
	BlockAnnotationFunc
	BlockAnnotationInit
	BlockAnnotationComp
	BlockScratch
)

// BlockId is (kind, base_variable, loop_name?). Loop names embed the
// source line so that reordering code inserts does not rename stable
// loops (spec.md §3, §4.3): "loop:<point>:<line>".
type BlockId struct {
	Kind     BlockKind
	Base     *Variable
	LoopName string // only meaningful when Kind == BlockLoop
}

// LoopName formats the stable loop name described in spec.md §4.3.
func LoopName(point, line int) string {
	return fmt.Sprintf("loop:%d:%d", point, line)
}

func (b *BlockId) hash() uint32 {
	h := HashCombine(0, uint32(b.Kind))
	if b.Base != nil {
		h = HashCombine(h, b.Base.hash())
	}
	h = HashCombine(h, HashString(b.LoopName))
	return h
}

func equalBlockId(a, bb *BlockId) bool {
	if a == bb {
		return true
	}
	if a == nil || bb == nil {
		return false
	}
	return a.Kind == bb.Kind && a.Base == bb.Base && a.LoopName == bb.LoopName
}

// BlockIdTable interns BlockId values.
type BlockIdTable struct{ t *Table[*BlockId] }

func NewBlockIdTable() *BlockIdTable {
	return &BlockIdTable{t: NewTable(func(b *BlockId) uint32 { return b.hash() }, equalBlockId)}
}

func (bt *BlockIdTable) Intern(cand *BlockId) *BlockId {
	result, _ := bt.t.Intern(cand)
	return result
}

func (bt *BlockIdTable) Len() int { return bt.t.Len() }

// BlockPPoint is a versioned program point: (BlockId, point index).
type BlockPPoint struct {
	Block *BlockId
	Point int
}

// String renders "block@point" for logging/keys.
func (p BlockPPoint) String() string {
	name := "?"
	if p.Block != nil && p.Block.Base != nil {
		name = p.Block.Base.Name
	}
	return fmt.Sprintf("%s@%d", name, p.Point)
}
