package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWritePlan_CollapsesRepeatedRefs(t *testing.T) {
	p := newWritePlan()
	p.add(pendingWrite{collection: ColEpics, id: "a", fields: map[string]any{"v": 1}, isSet: true})
	p.add(pendingWrite{collection: ColEpics, id: "b", fields: map[string]any{"v": 2}, isSet: true})
	p.add(pendingWrite{collection: ColEpics, id: "a", fields: map[string]any{"v": 3}, isSet: true})

	got := p.ordered()
	assert.Len(t, got, 2)
	// The replacement keeps the original slot, so ordering stays stable.
	assert.Equal(t, "a", got[0].id)
	assert.Equal(t, 3, got[0].fields["v"])
	assert.Equal(t, "b", got[1].id)
}

func TestWritePlan_SetReplacesUpdate(t *testing.T) {
	p := newWritePlan()
	p.add(pendingWrite{collection: ColTasks, id: "t", fields: map[string]any{"v": 1}})
	p.add(pendingWrite{collection: ColTasks, id: "t", fields: map[string]any{"v": 2}, isSet: true})

	got := p.ordered()
	assert.Len(t, got, 1)
	assert.True(t, got[0].isSet)
	assert.Equal(t, 2, got[0].fields["v"])
}
