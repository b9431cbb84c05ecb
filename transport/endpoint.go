package transport

import "net"

// SameEndpoint reports whether a and b name the same peer: equal IP, port and
// zone for UDP addresses, equal network and string form otherwise. An
// IPv4-mapped IPv6 address matches its plain IPv4 form.
func SameEndpoint(a, b net.Addr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ua, okA := a.(*net.UDPAddr)
	ub, okB := b.(*net.UDPAddr)
	if okA && okB {
		return ua.Port == ub.Port && ua.Zone == ub.Zone && ua.IP.Equal(ub.IP)
	}

	return a.Network() == b.Network() && a.String() == b.String()
}
