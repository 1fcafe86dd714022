package manager

import (
	"net"
	"net/netip"
	"strings"
)

// NormalizeAddress returns the form of an inventory address handed to
// external commands.
//
// Normalization rules:
// - trim spaces
// - strip surrounding brackets for IPv6 literals like "[2001:db8::1]"
// - IP literals are rewritten in canonical form
// - hostnames are lower-cased and lose a trailing dot
func NormalizeAddress(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(s) >= 2 && s[0] == '[' && s[len(s)-1] == ']' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if ip := net.ParseIP(s); ip != nil {
		return ip.String()
	}
	s = strings.TrimSuffix(s, ".")
	return strings.ToLower(s)
}

// UsableAddress reports whether addr can be passed to ping, traceroute or ssh.
// Blank values, values with whitespace, and values that would be parsed as an
// option are rejected.
func UsableAddress(addr string) bool {
	a := NormalizeAddress(addr)
	if a == "" || strings.HasPrefix(a, "-") {
		return false
	}
	return !strings.ContainsAny(a, " \t\r\n")
}

// IsIPLiteral reports whether addr is an IPv4 or IPv6 address.
func IsIPLiteral(addr string) bool {
	return net.ParseIP(NormalizeAddress(addr)) != nil
}

// compareIPs orders two addresses numerically. ok is false unless both are
// IP literals.
func compareIPs(a, b string) (c int, ok bool) {
	ia, errA := netip.ParseAddr(NormalizeAddress(a))
	ib, errB := netip.ParseAddr(NormalizeAddress(b))
	if errA != nil || errB != nil {
		return 0, false
	}
	return ia.Compare(ib), true
}
