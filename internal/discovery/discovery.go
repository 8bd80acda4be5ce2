// Package discovery advertises the controller and the remote over mDNS
// and resolves controller hostnames on the remote.
package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/zortness/mag-loop-controller/internal/debug"
)

const (
	// DefaultService is the service type the controller advertises.
	DefaultService = "_http._tcp"
	// DefaultDomain is the mDNS domain.
	DefaultDomain = "local."

	// RemoteService and RemotePort announce the handheld remote by name
	// only; it serves nothing, so the port is discard.
	RemoteService = "_device-info._tcp"
	RemotePort    = 9
)

// Registration is a running mDNS advertisement.
type Registration struct {
	server *zeroconf.Server
}

// Register advertises instance as service on port. The advertisement
// lasts until Shutdown.
func Register(instance, service string, port int) (*Registration, error) {
	if service == "" {
		service = DefaultService
	}
	srv, err := zeroconf.Register(instance, service, DefaultDomain, port, []string{"path=/"}, nil)
	if err != nil {
		return nil, fmt.Errorf("register mDNS %s.%s: %w", instance, service, err)
	}
	debug.Info("mDNS: advertising %s.%s%s on port %d", instance, service, DefaultDomain, port)
	return &Registration{server: srv}, nil
}

// Shutdown withdraws the advertisement.
func (r *Registration) Shutdown() {
	if r == nil || r.server == nil {
		return
	}
	r.server.Shutdown()
}

// Resolver looks up controller instances by name.
type Resolver struct {
	service string
	timeout time.Duration
}

// NewResolver creates a resolver for service. Each lookup gives up after timeout.
func NewResolver(service string, timeout time.Duration) *Resolver {
	if service == "" {
		service = DefaultService
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Resolver{service: service, timeout: timeout}
}

// Resolve returns the IPv4 address advertised under hostname. A
// trailing ".local" is ignored.
func (r *Resolver) Resolve(ctx context.Context, hostname string) (string, error) {
	instance := strings.TrimSuffix(strings.TrimSuffix(hostname, "."), ".local")

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return "", fmt.Errorf("create mDNS resolver: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 4)
	if err := resolver.Lookup(ctx, instance, r.service, DefaultDomain, entries); err != nil {
		return "", fmt.Errorf("lookup %s: %w", instance, err)
	}

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return "", fmt.Errorf("lookup %s: no answer", instance)
			}
			if ip := firstIPv4(entry.AddrIPv4); ip != "" {
				debug.Verbose("mDNS: %s -> %s (host %s)", instance, ip, entry.HostName)
				return ip, nil
			}
		case <-ctx.Done():
			return "", fmt.Errorf("lookup %s: %w", instance, ctx.Err())
		}
	}
}

func firstIPv4(addrs []net.IP) string {
	for _, ip := range addrs {
		if v4 := ip.To4(); v4 != nil && !v4.IsUnspecified() {
			return v4.String()
		}
	}
	return ""
}
