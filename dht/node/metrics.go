package node

import (
	"fmt"

	gometrics "github.com/rcrowley/go-metrics"

	"github.com/DFriend01/dht-go/dht/wire"
)

// nodeMetrics tracks operational counters that are never wire-visible
// (spec.md's invariants never mention them); they are readable only
// in-process through Node.Metrics — no wire operation exposes them, so
// dhtctl does not show them. This mirrors the teacher's own indirect
// use of this same dependency through MoacLib/metrics.
type nodeMetrics struct {
	registry   gometrics.Registry
	opCounters map[wire.Operation]gometrics.Counter
	stCounters map[wire.Status]gometrics.Counter
	storeUsage gometrics.GaugeFloat64
	cacheUsage gometrics.GaugeFloat64
}

func newNodeMetrics() *nodeMetrics {
	m := &nodeMetrics{
		registry:   gometrics.NewRegistry(),
		opCounters: make(map[wire.Operation]gometrics.Counter),
		stCounters: make(map[wire.Status]gometrics.Counter),
	}
	for _, op := range []wire.Operation{
		wire.OpPut, wire.OpGet, wire.OpDelete, wire.OpWipe, wire.OpPing,
		wire.OpShutdown, wire.OpGetPid, wire.OpGetNearestPrecedingNodeToKey,
		wire.OpGetSuccessor,
	} {
		c := gometrics.NewCounter()
		m.registry.Register(fmt.Sprintf("op.%s", op), c)
		m.opCounters[op] = c
	}
	for _, st := range []wire.Status{
		wire.StatusSuccess, wire.StatusInvalidKey, wire.StatusMissingKey,
		wire.StatusInvalidValue, wire.StatusMissingValue, wire.StatusKeyNotFound,
		wire.StatusOutOfMemory, wire.StatusUndefinedOperation, wire.StatusInternalError,
		wire.StatusInvalidValueSize,
	} {
		c := gometrics.NewCounter()
		m.registry.Register(fmt.Sprintf("status.%s", st), c)
		m.stCounters[st] = c
	}
	m.storeUsage = gometrics.NewGaugeFloat64()
	m.registry.Register("store.used_bytes", m.storeUsage)
	m.cacheUsage = gometrics.NewGaugeFloat64()
	m.registry.Register("cache.used_bytes", m.cacheUsage)
	return m
}

func (m *nodeMetrics) recordOp(op wire.Operation) {
	if c, ok := m.opCounters[op]; ok {
		c.Inc(1)
	}
}

func (m *nodeMetrics) recordStatus(status wire.Status) {
	if c, ok := m.stCounters[status]; ok {
		c.Inc(1)
	}
}

func (m *nodeMetrics) recordUsage(storeUsed, cacheUsed uint64) {
	m.storeUsage.Update(float64(storeUsed))
	m.cacheUsage.Update(float64(cacheUsed))
}

// Snapshot returns a point-in-time copy of every counter/gauge, as
// returned by Node.Metrics.
func (m *nodeMetrics) Snapshot() map[string]int64 {
	out := make(map[string]int64)
	m.registry.Each(func(name string, metric interface{}) {
		switch v := metric.(type) {
		case gometrics.Counter:
			out[name] = v.Count()
		case gometrics.GaugeFloat64:
			out[name] = int64(v.Value())
		}
	})
	return out
}
