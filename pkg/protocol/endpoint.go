package protocol

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Wildcard is the address the server binds to by default.
const Wildcard = "0.0.0.0"

// Loopback is the address the client targets by default.
const Loopback = "127.0.0.1"

// ResolveEndpoint validates an IPv4 dotted-quad (or wildcard) host and a port
// and returns the matching TCP address. No name resolution is performed.
func ResolveEndpoint(host string, port int) (*net.TCPAddr, error) {
	if port < 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port %d", port)
	}

	switch host {
	case "", "*":
		host = Wildcard
	}

	ip := net.ParseIP(host)
	if ip == nil || ip.To4() == nil || strings.Count(host, ".") != 3 || strings.Contains(host, ":") {
		return nil, fmt.Errorf("invalid IPv4 address %q", host)
	}

	return &net.TCPAddr{IP: ip.To4(), Port: port}, nil
}

// ParseEndpoint splits a "host:port" string and validates it with ResolveEndpoint.
func ParseEndpoint(address string) (*net.TCPAddr, error) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", address, err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q", portStr)
	}

	return ResolveEndpoint(host, port)
}
