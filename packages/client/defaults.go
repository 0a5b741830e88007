package client

import "sync"

// Process-wide defaults: the fallback sender and global middleware stacks.
// Guarded by a mutex so tests can reset them; per-send state never lives
// here.
type globalDefaults struct {
	mu         sync.RWMutex
	sender     Sender
	requestMW  []RequestMiddleware
	responseMW []ResponseMiddleware
}

var defaults globalDefaults

// SetDefaultSender sets the sender used by connectors that configure none.
func SetDefaultSender(s Sender) {
	defaults.mu.Lock()
	defer defaults.mu.Unlock()
	defaults.sender = s
}

// DefaultSender returns the process-wide default sender, or nil.
func DefaultSender() Sender {
	defaults.mu.RLock()
	defer defaults.mu.RUnlock()
	return defaults.sender
}

// UseGlobalRequestMiddleware appends middleware run before every dispatch,
// ahead of connector- and request-level middleware.
func UseGlobalRequestMiddleware(mw ...RequestMiddleware) {
	defaults.mu.Lock()
	defer defaults.mu.Unlock()
	defaults.requestMW = append(defaults.requestMW, mw...)
}

// UseGlobalResponseMiddleware appends interceptors run after every dispatch.
func UseGlobalResponseMiddleware(mw ...ResponseMiddleware) {
	defaults.mu.Lock()
	defer defaults.mu.Unlock()
	defaults.responseMW = append(defaults.responseMW, mw...)
}

// ResetDefaults clears all process-wide defaults. Intended for test
// isolation.
func ResetDefaults() {
	defaults.mu.Lock()
	defer defaults.mu.Unlock()
	defaults.sender = nil
	defaults.requestMW = nil
	defaults.responseMW = nil
}

func globalRequestMiddleware() []RequestMiddleware {
	defaults.mu.RLock()
	defer defaults.mu.RUnlock()
	mw := make([]RequestMiddleware, len(defaults.requestMW))
	copy(mw, defaults.requestMW)
	return mw
}

func globalResponseMiddleware() []ResponseMiddleware {
	defaults.mu.RLock()
	defer defaults.mu.RUnlock()
	mw := make([]ResponseMiddleware, len(defaults.responseMW))
	copy(mw, defaults.responseMW)
	return mw
}
