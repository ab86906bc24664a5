// Package utils holds test support shared by the SDK's packages.
package utils

import (
	"runtime"
	"strings"
	"testing"
	"time"
)

// GoroutineLeakDetector fails a test when goroutines started during it are
// still running at the end. Subscriptions and retries own goroutines and
// timers; tests use the detector to check that cancellation releases them.
type GoroutineLeakDetector struct {
	t              testing.TB
	initialCount   int
	allowedGrowth  int
	checkInterval  time.Duration
	stabilizeDelay time.Duration
	ignore         []string
}

// NewGoroutineLeakDetector creates a new goroutine leak detector
func NewGoroutineLeakDetector(t testing.TB) *GoroutineLeakDetector {
	return &GoroutineLeakDetector{
		t:              t,
		checkInterval:  100 * time.Millisecond,
		stabilizeDelay: 200 * time.Millisecond,
	}
}

// Start records the initial goroutine count
func (d *GoroutineLeakDetector) Start() {
	time.Sleep(d.stabilizeDelay)
	d.initialCount = d.count()
	d.t.Logf("Starting goroutine count: %d", d.initialCount)
}

// Check verifies that goroutine count hasn't grown beyond allowed threshold.
// It samples three times and keeps the lowest count, since goroutines in
// cleanup may still be exiting.
func (d *GoroutineLeakDetector) Check() {
	time.Sleep(d.stabilizeDelay)

	finalCount := d.count()
	for i := 0; i < 2; i++ {
		time.Sleep(d.checkInterval)
		if c := d.count(); c < finalCount {
			finalCount = c
		}
	}

	leaked := finalCount - d.initialCount
	if leaked > d.allowedGrowth {
		d.t.Errorf("Goroutine leak detected: started with %d, ended with %d (leaked: %d, allowed: %d)",
			d.initialCount, finalCount, leaked, d.allowedGrowth)
		d.t.Logf("Current goroutine stack traces:\n%s", stacks())
		return
	}
	d.t.Logf("No goroutine leak: started with %d, ended with %d", d.initialCount, finalCount)
}

// SetAllowedGrowth sets the number of goroutines allowed to grow
func (d *GoroutineLeakDetector) SetAllowedGrowth(n int) *GoroutineLeakDetector {
	d.allowedGrowth = n
	return d
}

// SetStabilizeDelay sets the delay to allow goroutines to stabilize
func (d *GoroutineLeakDetector) SetStabilizeDelay(delay time.Duration) *GoroutineLeakDetector {
	d.stabilizeDelay = delay
	return d
}

// Ignore excludes goroutines whose stack mentions any of the given function
// names, e.g. "net/http.(*persistConn).readLoop" for pooled connections.
func (d *GoroutineLeakDetector) Ignore(functions ...string) *GoroutineLeakDetector {
	d.ignore = append(d.ignore, functions...)
	return d
}

// VerifyNone runs fn between Start and Check
func VerifyNone(t testing.TB, fn func()) {
	t.Helper()
	d := NewGoroutineLeakDetector(t)
	d.Start()
	fn()
	d.Check()
}

func (d *GoroutineLeakDetector) count() int {
	if len(d.ignore) == 0 {
		return runtime.NumGoroutine()
	}

	n := 0
	for _, g := range strings.Split(stacks(), "\n\n") {
		if strings.TrimSpace(g) == "" || d.ignored(g) {
			continue
		}
		n++
	}
	return n
}

func (d *GoroutineLeakDetector) ignored(stack string) bool {
	for _, fn := range d.ignore {
		if strings.Contains(stack, fn) {
			return true
		}
	}
	return false
}

func stacks() string {
	buf := make([]byte, 1<<20)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			return string(buf[:n])
		}
		buf = make([]byte, 2*len(buf))
	}
}
