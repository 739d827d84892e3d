package mstore

import (
	"github.com/ValentinKolb/kvrpc/lib/store"
	"github.com/VictoriaMetrics/metrics"
)

// meteredStore wraps an IStore and counts every operation in a metrics.Set
type meteredStore struct {
	inner store.IStore

	sets      *metrics.Counter
	getHits   *metrics.Counter
	getMisses *metrics.Counter
	removed   *metrics.Counter
	notFound  *metrics.Counter
}

// compile time check
var _ store.IStore = (*meteredStore)(nil)

// NewMeteredStore wraps inner so that every operation is recorded in set.
// The metric names are prefixed with kvrpc_store_.
func NewMeteredStore(inner store.IStore, set *metrics.Set) store.IStore {
	return &meteredStore{
		inner:     inner,
		sets:      set.GetOrCreateCounter(`kvrpc_store_ops_total{op="set"}`),
		getHits:   set.GetOrCreateCounter(`kvrpc_store_ops_total{op="get",result="hit"}`),
		getMisses: set.GetOrCreateCounter(`kvrpc_store_ops_total{op="get",result="miss"}`),
		removed:   set.GetOrCreateCounter(`kvrpc_store_ops_total{op="remove",result="removed"}`),
		notFound:  set.GetOrCreateCounter(`kvrpc_store_ops_total{op="remove",result="not_found"}`),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *meteredStore) Set(key, value string) {
	s.inner.Set(key, value)
	s.sets.Inc()
}

func (s *meteredStore) Get(key string) (string, bool) {
	val, ok := s.inner.Get(key)
	if ok {
		s.getHits.Inc()
	} else {
		s.getMisses.Inc()
	}
	return val, ok
}

func (s *meteredStore) Remove(key string) bool {
	ok := s.inner.Remove(key)
	if ok {
		s.removed.Inc()
	} else {
		s.notFound.Inc()
	}
	return ok
}
