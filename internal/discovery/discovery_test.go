package discovery

import (
	"net"
	"testing"
	"time"
)

func TestFirstIPv4(t *testing.T) {
	cases := []struct {
		name  string
		addrs []net.IP
		want  string
	}{
		{"empty", nil, ""},
		{"single", []net.IP{net.ParseIP("192.168.1.20")}, "192.168.1.20"},
		{"skips_unspecified", []net.IP{net.IPv4zero, net.ParseIP("10.0.0.5")}, "10.0.0.5"},
		{"skips_v6", []net.IP{net.ParseIP("fe80::1"), net.ParseIP("10.0.0.6")}, "10.0.0.6"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := firstIPv4(tc.addrs); got != tc.want {
				t.Errorf("firstIPv4 = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNewResolver_Defaults(t *testing.T) {
	r := NewResolver("", 0)
	if r.service != DefaultService {
		t.Errorf("service = %q, want %q", r.service, DefaultService)
	}
	if r.timeout != 2*time.Second {
		t.Errorf("timeout = %v, want 2s", r.timeout)
	}
}

func TestRegistration_NilShutdown(t *testing.T) {
	var r *Registration
	r.Shutdown()
}
