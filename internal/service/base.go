package service

import (
	"fmt"
	"sync"

	"github.com/orkesta/orkesta/internal/runner"
)

// Base carries the per-service lifecycle mutex. Two lifecycle verbs issued
// concurrently against the same service serialize here instead of racing at
// the systemctl/package-manager level. Read probes stay lock-free.
type Base struct {
	mu sync.Mutex
}

// Serialize runs a lifecycle verb under the service lock. A panic inside the
// verb is converted to a failed Result at this boundary: callers have no
// exception-handling path for service calls.
func (b *Base) Serialize(fn func() runner.Result) (res runner.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			res = runner.Failure(runner.KindCommandFailed, fmt.Sprintf("%v", r))
		}
	}()

	return fn()
}
