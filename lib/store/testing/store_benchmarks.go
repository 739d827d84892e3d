package testing

import (
	"fmt"
	"testing"
)

// RunStoreBenchmarks runs all benchmarks for an IStore implementation
func RunStoreBenchmarks(b *testing.B, name string, factory StoreFactory) {
	b.Run(name+"/Set", func(b *testing.B) {
		s := factory()
		b.ResetTimer()
		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				s.Set(fmt.Sprintf("key-%d", counter%1000), "value")
				counter++
			}
		})
	})

	b.Run(name+"/Get", func(b *testing.B) {
		s := factory()
		for i := 0; i < 1000; i++ {
			s.Set(fmt.Sprintf("key-%d", i), "value")
		}
		b.ResetTimer()
		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				s.Get(fmt.Sprintf("key-%d", counter%1000))
				counter++
			}
		})
	})

	b.Run(name+"/Mixed", func(b *testing.B) {
		s := factory()
		b.ResetTimer()
		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				key := fmt.Sprintf("key-%d", counter%100)
				switch counter % 3 {
				case 0:
					s.Set(key, "value")
				case 1:
					s.Get(key)
				case 2:
					s.Remove(key)
				}
				counter++
			}
		})
	})
}
