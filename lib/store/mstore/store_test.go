package mstore

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ValentinKolb/kvrpc/lib/store"
	"github.com/ValentinKolb/kvrpc/lib/store/lstore"
	storetesting "github.com/ValentinKolb/kvrpc/lib/store/testing"
	"github.com/VictoriaMetrics/metrics"
)

func TestMeteredStore(t *testing.T) {
	storetesting.RunStoreTests(t, "MeteredStore", func() store.IStore {
		return NewMeteredStore(lstore.NewLocalStore(), metrics.NewSet())
	})
}

func TestMeteredStoreCounters(t *testing.T) {
	set := metrics.NewSet()
	s := NewMeteredStore(lstore.NewLocalStore(), set)

	s.Set("a", "1")
	s.Set("a", "2")
	s.Get("a")
	s.Get("b")
	s.Remove("a")
	s.Remove("a")

	tests := []struct {
		name string
		want uint64
	}{
		{`kvrpc_store_ops_total{op="set"}`, 2},
		{`kvrpc_store_ops_total{op="get",result="hit"}`, 1},
		{`kvrpc_store_ops_total{op="get",result="miss"}`, 1},
		{`kvrpc_store_ops_total{op="remove",result="removed"}`, 1},
		{`kvrpc_store_ops_total{op="remove",result="not_found"}`, 1},
	}

	for _, tc := range tests {
		if got := set.GetOrCreateCounter(tc.name).Get(); got != tc.want {
			t.Errorf("%s = %d, want %d", tc.name, got, tc.want)
		}
	}

	var buf bytes.Buffer
	set.WritePrometheus(&buf)
	if !strings.Contains(buf.String(), "kvrpc_store_ops_total") {
		t.Errorf("prometheus output misses store counters:\n%s", buf.String())
	}
}
