package server

import (
	"context"
	"time"

	"github.com/ValentinKolb/kvrpc/lib/store"
	"github.com/ValentinKolb/kvrpc/rpc/common"
)

// NewKeyValueService creates the key-value service on top of the given store.
// Every valid call is delayed by simulatedProcessingTime before the store is
// touched, a negative duration is treated as 0.
func NewKeyValueService(store store.IStore, simulatedProcessingTime time.Duration) IKeyValueService {
	return &keyValueService{
		store: store,
		delay: max(0, simulatedProcessingTime),
	}
}

type keyValueService struct {
	store store.IStore
	delay time.Duration
}

// --------------------------------------------------------------------------
// Interface Methods (docu see server.IKeyValueService)
// --------------------------------------------------------------------------

func (s *keyValueService) Put(ctx context.Context, req *common.PutRequest) (*common.PutResponse, error) {
	if req.Key == "" || req.Value == nil {
		return &common.PutResponse{Status: common.StatusInvalidRequestFormat}, nil
	}
	if err := s.simulateProcessing(ctx); err != nil {
		return nil, err
	}

	s.store.Set(req.Key, *req.Value)
	return &common.PutResponse{Status: common.StatusNone}, nil
}

func (s *keyValueService) Get(ctx context.Context, req *common.GetRequest) (*common.GetResponse, error) {
	if req.Key == "" {
		return &common.GetResponse{Status: common.StatusInvalidRequestFormat}, nil
	}
	if err := s.simulateProcessing(ctx); err != nil {
		return nil, err
	}

	resp := &common.GetResponse{Status: common.StatusNone}
	if value, ok := s.store.Get(req.Key); ok {
		resp.Value = &value
	}
	return resp, nil
}

func (s *keyValueService) Delete(ctx context.Context, req *common.DeleteRequest) (*common.DeleteResponse, error) {
	if req.Key == "" {
		return &common.DeleteResponse{Status: common.StatusInvalidRequestFormat}, nil
	}
	if err := s.simulateProcessing(ctx); err != nil {
		return nil, err
	}

	return &common.DeleteResponse{
		Status:  common.StatusNone,
		Deleted: s.store.Remove(req.Key),
	}, nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// simulateProcessing waits for the configured delay outside of the store lock.
// It returns early with the context error if the call is cancelled.
func (s *keyValueService) simulateProcessing(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
