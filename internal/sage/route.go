package sage

import (
	"context"
	"net"
	"time"
)

// routeProbe reports whether the internal Sage host is reachable. It is a
// client field so tests can substitute a stub.
type routeProbe func(host string) bool

// defaultProbe checks whether the internal server hostname resolves within a
// short deadline. On the shop network the appliance's name is served by the
// local DNS; off site the lookup fails fast and the client falls back to the
// externally published URL.
func defaultProbe(host string) bool {
	if host == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	addrs, err := net.DefaultResolver.LookupHost(ctx, host)
	return err == nil && len(addrs) > 0
}
