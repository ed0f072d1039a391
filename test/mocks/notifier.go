package mocks

import (
	"context"
	"sync"

	"github.com/aimd54/arcade-hub/internal/mattermost"
)

// MockNotifier records new-record announcements.
type MockNotifier struct {
	mu      sync.Mutex
	records []mattermost.NewRecord

	AnnounceFunc func(ctx context.Context, rec mattermost.NewRecord) error
}

// AnnounceNewRecord records rec and delegates to AnnounceFunc when set.
func (m *MockNotifier) AnnounceNewRecord(ctx context.Context, rec mattermost.NewRecord) error {
	m.mu.Lock()
	m.records = append(m.records, rec)
	m.mu.Unlock()

	if m.AnnounceFunc != nil {
		return m.AnnounceFunc(ctx, rec)
	}
	return nil
}

// Records returns the announcements received so far.
func (m *MockNotifier) Records() []mattermost.NewRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]mattermost.NewRecord, len(m.records))
	copy(out, m.records)
	return out
}
