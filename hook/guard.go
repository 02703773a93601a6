package hook

// GuardMeter accounts loop iterations reported by the guest-injected
// _g(guard_id, max_iter) calls. Counters only ever grow within one
// execution; exceeding max_iter is a forced rollback.
type GuardMeter struct {
	counts map[uint32]uint32
}

func NewGuardMeter() *GuardMeter {
	return &GuardMeter{counts: make(map[uint32]uint32)}
}

// Check records one iteration of guard id and reports whether the guest may
// continue. The n+1-th call for a guard declared with max_iter = n fails.
func (g *GuardMeter) Check(id uint32, maxIter uint32) bool {
	g.counts[id]++
	return g.counts[id] <= maxIter
}

// Count returns the iterations recorded for a guard id.
func (g *GuardMeter) Count(id uint32) uint32 {
	return g.counts[id]
}
