package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"reelpublisher/internal/core/ports"
)

type ClientMock struct {
	mock.Mock
}

func (m *ClientMock) CreateJob(ctx context.Context, videoURL, caption string) (*ports.CreateResponse, error) {
	args := m.Called(ctx, videoURL, caption)
	if v := args.Get(0); v != nil {
		return v.(*ports.CreateResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ClientMock) GetStatus(ctx context.Context, jobID string) (*ports.StatusResponse, error) {
	args := m.Called(ctx, jobID)
	if v := args.Get(0); v != nil {
		return v.(*ports.StatusResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ClientMock) Publish(ctx context.Context, jobID string) (*ports.PublishResponse, error) {
	args := m.Called(ctx, jobID)
	if v := args.Get(0); v != nil {
		return v.(*ports.PublishResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ClientMock) ResolveReference(ctx context.Context, mediaID string) (*ports.ReferenceResponse, error) {
	args := m.Called(ctx, mediaID)
	if v := args.Get(0); v != nil {
		return v.(*ports.ReferenceResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type ProberMock struct {
	mock.Mock
}

func (m *ProberMock) Check(ctx context.Context, videoURL string) error {
	args := m.Called(ctx, videoURL)
	return args.Error(0)
}

// memStorage keeps run artifacts in memory.
type memStorage struct {
	mu     sync.Mutex
	inputs map[string][]byte
	result map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{inputs: map[string][]byte{}, result: map[string][]byte{}}
}

func (s *memStorage) InitJob(context.Context, string) error { return nil }

func (s *memStorage) SaveInput(_ context.Context, runID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs[runID] = data
	return nil
}

func (s *memStorage) SaveResult(_ context.Context, runID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result[runID] = data
	return nil
}

func (s *memStorage) GetJobPath(runID string) string { return "mem://" + runID }
