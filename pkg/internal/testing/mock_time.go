package testing

import (
	"sync"
	"time"
)

// MockNowService is a clock with a manually controlled time
type MockNowService struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockNowService returns a clock stopped at now
func NewMockNowService(now time.Time) *MockNowService {
	return &MockNowService{now: now}
}

// Now returns current value of the clock
func (svc *MockNowService) Now() time.Time {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.now
}

// SetNow moves the clock to val
func (svc *MockNowService) SetNow(val time.Time) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.now = val
}

// Advance moves the clock forward by d and returns the new time
func (svc *MockNowService) Advance(d time.Duration) time.Time {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.now = svc.now.Add(d)
	return svc.now
}
