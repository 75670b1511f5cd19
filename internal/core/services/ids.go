package services

import (
	"fmt"
	"sync/atomic"
	"time"
)

// provisionalPrefix marks locally generated identifiers. Server IDs are
// hex object IDs and never carry it.
const provisionalPrefix = "tmp-"

// idGenerator issues provisional identifiers that are unique within the
// process and never reused.
type idGenerator struct {
	seq atomic.Uint64
	now func() time.Time
}

func newIDGenerator() *idGenerator {
	return &idGenerator{now: time.Now}
}

// Next returns a fresh provisional identifier.
func (g *idGenerator) Next() string {
	n := g.seq.Add(1)
	return fmt.Sprintf("%s%d-%d", provisionalPrefix, g.now().UnixMilli(), n)
}
