// Package iputil classifies visitor IP addresses.
package iputil

import "net"

// IsLoopback reports whether addr is a loopback address. The literal
// "localhost" is included because upstream proxies occasionally forward
// it instead of an address.
func IsLoopback(addr string) bool {
	if addr == "localhost" {
		return true
	}
	ip := net.ParseIP(addr)
	return ip != nil && ip.IsLoopback()
}

// IsLoopbackOrPrivate reports whether addr is loopback or in a private
// range (RFC 1918 / fc00::/7). Used to hide local traffic from visitor
// listings.
func IsLoopbackOrPrivate(addr string) bool {
	if addr == "localhost" {
		return true
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate()
}

// IsRoutable reports whether addr is a public address worth sending to a
// geolocation provider.
func IsRoutable(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	return !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() &&
		!ip.IsLinkLocalUnicast() && !ip.IsLinkLocalMulticast()
}
