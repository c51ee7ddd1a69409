package cpu

import "sync"

// Call is one recorded ApplyHardwareAttributes invocation.
type Call struct {
	Base   uint64
	Length uint64
	Cache  CacheType
}

// Recorder is an AttributeSetter that remembers its calls.
// Set Err to make every call fail. Safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	calls []Call

	Err error
}

// ApplyHardwareAttributes records the call and returns r.Err.
func (r *Recorder) ApplyHardwareAttributes(base, length uint64, cache CacheType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Base: base, Length: length, Cache: cache})
	return r.Err
}

// Calls returns a copy of the recorded calls in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Reset forgets all recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
