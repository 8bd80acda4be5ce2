// Package netlink watches the host's network interfaces on behalf of the
// remote. Association itself belongs to the OS; Connect only waits for an
// address to appear.
package netlink

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/zortness/mag-loop-controller/internal/debug"
)

// ErrNoAddress is returned when no usable IPv4 address shows up in time.
var ErrNoAddress = errors.New("netlink: no IPv4 address")

// Iface is the part of an interface the link inspects.
type Iface struct {
	Name  string
	Up    bool
	Loop  bool
	Addrs []net.Addr
}

// Lister enumerates interfaces. SystemInterfaces is the real one.
type Lister func() ([]Iface, error)

// SystemInterfaces lists the host's interfaces through package net.
func SystemInterfaces() ([]Iface, error) {
	ifs, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	out := make([]Iface, 0, len(ifs))
	for _, i := range ifs {
		addrs, err := i.Addrs()
		if err != nil {
			continue
		}
		out = append(out, Iface{
			Name:  i.Name,
			Up:    i.Flags&net.FlagUp != 0,
			Loop:  i.Flags&net.FlagLoopback != 0,
			Addrs: addrs,
		})
	}
	return out, nil
}

// Link reports the first up, non-loopback IPv4 address. If Interface is
// set only that interface counts.
type Link struct {
	Interface string
	Timeout   time.Duration
	Interval  time.Duration

	list Lister
}

// New creates a link over list. A nil list uses SystemInterfaces.
func New(iface string, timeout time.Duration, list Lister) *Link {
	if list == nil {
		list = SystemInterfaces
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Link{Interface: iface, Timeout: timeout, Interval: 100 * time.Millisecond, list: list}
}

// Address returns the current local IPv4 address, if any.
func (l *Link) Address() (string, bool) {
	ifs, err := l.list()
	if err != nil {
		debug.Error(fmt.Errorf("list interfaces: %w", err))
		return "", false
	}
	for _, i := range ifs {
		if !i.Up || i.Loop {
			continue
		}
		if l.Interface != "" && i.Name != l.Interface {
			continue
		}
		for _, a := range i.Addrs {
			if ip := ipv4(a); ip != nil {
				return ip.String(), true
			}
		}
	}
	return "", false
}

func (l *Link) Connected() bool {
	_, ok := l.Address()
	return ok
}

// Connect waits until an address appears, ctx ends or Timeout passes.
func (l *Link) Connect(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.Timeout)
	defer cancel()

	t := time.NewTicker(l.Interval)
	defer t.Stop()
	for {
		if addr, ok := l.Address(); ok {
			return addr, nil
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", ErrNoAddress, ctx.Err())
		case <-t.C:
		}
	}
}

// Disconnect is a no-op; the OS owns the interface.
func (l *Link) Disconnect() error {
	debug.Live("Link released")
	return nil
}

func ipv4(a net.Addr) net.IP {
	var ip net.IP
	switch v := a.(type) {
	case *net.IPNet:
		ip = v.IP
	case *net.IPAddr:
		ip = v.IP
	}
	return ip.To4()
}
