//go:build !linux

package platform

// Non-Linux builds have no D-Bus fast path; probes always go through the
// systemctl fallback (and report false where systemctl is absent).
func newSystemdQuerier() systemdQuerier {
	return nil
}
