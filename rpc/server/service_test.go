package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ValentinKolb/kvrpc/lib/store/lstore"
	"github.com/ValentinKolb/kvrpc/rpc/common"
)

func strPtr(s string) *string { return &s }

func TestKeyValueService(t *testing.T) {
	ctx := context.Background()

	t.Run("PutGetDelete", func(t *testing.T) {
		service := NewKeyValueService(lstore.NewLocalStore(), 0)

		putResp, err := service.Put(ctx, &common.PutRequest{Key: "A", Value: strPtr("B")})
		if err != nil || putResp.Status != common.StatusNone {
			t.Fatalf("put: %v %v", putResp, err)
		}

		getResp, err := service.Get(ctx, &common.GetRequest{Key: "A"})
		if err != nil || getResp.Value == nil || *getResp.Value != "B" {
			t.Fatalf("get: %v %v", getResp, err)
		}

		delResp, err := service.Delete(ctx, &common.DeleteRequest{Key: "A"})
		if err != nil || !delResp.Deleted {
			t.Fatalf("first delete: %v %v", delResp, err)
		}

		delResp, err = service.Delete(ctx, &common.DeleteRequest{Key: "A"})
		if err != nil || delResp.Deleted || delResp.Status != common.StatusNone {
			t.Fatalf("second delete: %v %v", delResp, err)
		}

		getResp, err = service.Get(ctx, &common.GetRequest{Key: "A"})
		if err != nil || getResp.Value != nil || getResp.Status != common.StatusNone {
			t.Fatalf("get after delete: %v %v", getResp, err)
		}
	})

	t.Run("EmptyValue", func(t *testing.T) {
		service := NewKeyValueService(lstore.NewLocalStore(), 0)
		if resp, _ := service.Put(ctx, &common.PutRequest{Key: "A", Value: strPtr("")}); resp.Status != common.StatusNone {
			t.Fatalf("empty value must be accepted, got %s", resp.Status)
		}
		resp, _ := service.Get(ctx, &common.GetRequest{Key: "A"})
		if resp.Value == nil || *resp.Value != "" {
			t.Errorf("expected empty value, got %s", resp)
		}
	})
}

func TestKeyValueServiceMalformed(t *testing.T) {
	ctx := context.Background()
	s := lstore.NewLocalStore()
	s.Set("A", "original")

	// a long delay proves validation happens before it
	service := NewKeyValueService(s, time.Hour)

	tests := []struct {
		name string
		call func() common.ErrorStatus
	}{
		{"put without value", func() common.ErrorStatus {
			resp, _ := service.Put(ctx, &common.PutRequest{Key: "A"})
			return resp.Status
		}},
		{"put without key", func() common.ErrorStatus {
			resp, _ := service.Put(ctx, &common.PutRequest{Value: strPtr("x")})
			return resp.Status
		}},
		{"get without key", func() common.ErrorStatus {
			resp, _ := service.Get(ctx, &common.GetRequest{})
			return resp.Status
		}},
		{"delete without key", func() common.ErrorStatus {
			resp, _ := service.Delete(ctx, &common.DeleteRequest{})
			return resp.Status
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if status := tc.call(); status != common.StatusInvalidRequestFormat {
				t.Errorf("status = %s, want %s", status, common.StatusInvalidRequestFormat)
			}
		})
	}

	if v, ok := s.Get("A"); !ok || v != "original" {
		t.Errorf("malformed requests must not touch the store, got %q (%v)", v, ok)
	}
}

func TestKeyValueServiceDelay(t *testing.T) {
	t.Run("Applied", func(t *testing.T) {
		service := NewKeyValueService(lstore.NewLocalStore(), 50*time.Millisecond)
		start := time.Now()
		if _, err := service.Put(context.Background(), &common.PutRequest{Key: "A", Value: strPtr("B")}); err != nil {
			t.Fatalf("put: %v", err)
		}
		if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
			t.Errorf("delay not applied, call took %s", elapsed)
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		s := lstore.NewLocalStore()
		service := NewKeyValueService(s, time.Hour)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := service.Put(ctx, &common.PutRequest{Key: "A", Value: strPtr("B")})
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline exceeded, got %v", err)
		}
		if _, ok := s.Get("A"); ok {
			t.Errorf("cancelled call must not reach the store")
		}
	})

	t.Run("NegativeIsZero", func(t *testing.T) {
		service := NewKeyValueService(lstore.NewLocalStore(), -time.Second)
		if _, err := service.Get(context.Background(), &common.GetRequest{Key: "A"}); err != nil {
			t.Fatalf("get: %v", err)
		}
	})
}
