package memory

import "github.com/xgill-go/sixgill/internal/ir"

// BlockMemory is the per-function memory summary named in spec.md §4.8:
// guards, assigns, and (via the package-level helpers) alias/clobber/
// translation. It intentionally only implements the strategy tags
// spec.md names as exercised by the worked examples: MSIMP_Scalar
// (scalar assigns, the default path in ComputeAssigns), MALIAS_Buffer
// (CheckAlias/GetBaseBuffer), MCLB_Modset (TranslateClobber).
type BlockMemory struct {
	CFG     *ir.BlockCFG
	Guards  map[int]*ir.Bit
	Assigns []Assign
}

// Build computes a BlockMemory for cfg. cfg must already be loop-split
// and topologically renumbered (internal/cfgx.SplitLoops + Renumber).
func Build(cfg *ir.BlockCFG, bits *ir.BitTable, expand FieldExpander) *BlockMemory {
	guards := ComputeGuards(cfg, bits)
	assigns := ComputeAssigns(cfg, guards, expand)
	return &BlockMemory{CFG: cfg, Guards: guards, Assigns: assigns}
}

// AssignsAt returns every Assign recorded at point, in the order
// discovered (spec.md §4.8 step 2 keys assigns by point).
func (m *BlockMemory) AssignsAt(point int) []Assign {
	var out []Assign
	for _, a := range m.Assigns {
		if a.Point == point {
			out = append(out, a)
		}
	}
	return out
}
