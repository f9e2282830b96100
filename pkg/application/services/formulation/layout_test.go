package formulation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vsinha/scplan/pkg/optimization/model"
)

func TestLayout_AssignsDisjointHandles(t *testing.T) {
	l := Layout{Products: 2, Stages: 3, Suppliers: 2, Retailers: 2, DistributionCenters: 1, Pairs: 4}

	assert.Equal(t, 4+4*(24+12)+2, l.NumVariables())

	seen := make(map[model.VarID]string, l.NumVariables())
	claim := func(id model.VarID, name string) {
		prev, dup := seen[id]
		assert.False(t, dup, "%s collides with %s", name, prev)
		seen[id] = name
	}
	for p := 0; p < l.Products; p++ {
		for s := 0; s < l.Suppliers; s++ {
			claim(l.InitialOrder(p, s), "initial")
		}
		for d := 0; d < l.DistributionCenters; d++ {
			claim(l.DCInventory(d, p), "dc")
		}
		for sp := 0; sp < l.Pairs; sp++ {
			for t := 0; t < l.Stages; t++ {
				for r := 0; r < l.Retailers; r++ {
					claim(l.InventoryLevel(p, t, r, sp), "inventory")
					for s := 0; s < l.Suppliers; s++ {
						claim(l.AdditionalOrder(p, t, s, r, sp), "additional")
					}
				}
			}
		}
	}
	assert.Len(t, seen, l.NumVariables())
	for id := range seen {
		assert.True(t, id >= 0 && int(id) < l.NumVariables())
	}
}

func TestLayout_PairBlocksAreContiguous(t *testing.T) {
	l := Layout{Products: 1, Stages: 2, Suppliers: 1, Retailers: 1, Pairs: 3}

	assert.Equal(t, model.VarID(0), l.InitialOrder(0, 0))
	assert.Equal(t, model.VarID(1), l.AdditionalOrder(0, 0, 0, 0, 0))
	assert.Equal(t, model.VarID(2), l.AdditionalOrder(0, 1, 0, 0, 0))
	assert.Equal(t, model.VarID(3), l.InventoryLevel(0, 0, 0, 0))
	assert.Equal(t, model.VarID(4), l.InventoryLevel(0, 1, 0, 0))
	assert.Equal(t, model.VarID(5), l.AdditionalOrder(0, 0, 0, 0, 1))
	assert.Equal(t, 13, l.NumVariables())
}
