//go:build linux

package platform

import (
	"context"
	"fmt"
	"sync"

	sd "github.com/coreos/go-systemd/v22/dbus"
)

// dbusQuerier answers unit-state questions over the system bus, avoiding a
// systemctl fork per probe. The connection is established lazily on first
// use; every error is returned to the caller, which falls back to systemctl.
type dbusQuerier struct {
	mu   sync.Mutex
	conn *sd.Conn
}

func newSystemdQuerier() systemdQuerier {
	return &dbusQuerier{}
}

func (q *dbusQuerier) connection(ctx context.Context) (*sd.Conn, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.conn != nil {
		return q.conn, nil
	}
	conn, err := sd.NewSystemConnectionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("platform: dbus connect: %w", err)
	}
	q.conn = conn
	return conn, nil
}

// dropConn closes and forgets the connection. A concurrent probe may already
// have dropped it, so the nil case is a no-op.
func (q *dbusQuerier) dropConn() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.conn != nil {
		q.conn.Close()
		q.conn = nil
	}
}

func (q *dbusQuerier) property(ctx context.Context, unit, name string) (string, error) {
	conn, err := q.connection(ctx)
	if err != nil {
		return "", err
	}
	props, err := conn.GetUnitPropertiesContext(ctx, unit)
	if err != nil {
		// A failed call may mean the connection died; drop it so the next
		// probe reconnects.
		q.dropConn()
		return "", fmt.Errorf("platform: unit properties for %s: %w", unit, err)
	}
	value, ok := props[name].(string)
	if !ok {
		return "", fmt.Errorf("platform: unit %s has no %s property", unit, name)
	}
	return value, nil
}

func (q *dbusQuerier) activeState(ctx context.Context, unit string) (string, error) {
	return q.property(ctx, unit, "ActiveState")
}

func (q *dbusQuerier) unitFileState(ctx context.Context, unit string) (string, error) {
	return q.property(ctx, unit, "UnitFileState")
}
