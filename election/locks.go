// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"slices"
	"sync"

	"github.com/spaolacci/murmur3"
)

const lockStripes = 64

// stripedMutex guards entities by id. Ids hash onto a fixed set of
// mutexes, so two ids may share a stripe but one id always maps to the same one.
type stripedMutex struct {
	stripes [lockStripes]sync.Mutex
}

func stripeOf(id string) int {
	return int(murmur3.Sum32([]byte(id)) % lockStripes)
}

// lock acquires the stripes of all ids in ascending stripe order and
// returns the matching unlock.
func (m *stripedMutex) lock(ids ...string) (unlock func()) {
	idx := make([]int, 0, len(ids))
	for _, id := range ids {
		idx = append(idx, stripeOf(id))
	}
	slices.Sort(idx)
	idx = slices.Compact(idx)

	for _, i := range idx {
		m.stripes[i].Lock()
	}
	return func() {
		for j := len(idx) - 1; j >= 0; j-- {
			m.stripes[idx[j]].Unlock()
		}
	}
}
