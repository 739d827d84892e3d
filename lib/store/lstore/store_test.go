package lstore

import (
	"testing"

	"github.com/ValentinKolb/kvrpc/lib/store"
	storetesting "github.com/ValentinKolb/kvrpc/lib/store/testing"
)

func TestLocalStore(t *testing.T) {
	storetesting.RunStoreTests(t, "LocalStore", func() store.IStore {
		return NewLocalStore()
	})
}

func BenchmarkLocalStore(b *testing.B) {
	storetesting.RunStoreBenchmarks(b, "LocalStore", func() store.IStore {
		return NewLocalStore()
	})
}
