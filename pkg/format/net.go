// Package format provides address formatting and parsing helpers.
package format

import (
	"fmt"
	"net/url"
	"strings"
)

// Addr joins a host and port into a dialable address, bracketing IPv6 hosts.
func Addr(host string, port int) string {
	if strings.ContainsAny(host, ":") { // IPv6
		return fmt.Sprintf("[%s]:%d", host, port)
	} else { // IPv4
		return fmt.Sprintf("%s:%d", host, port)
	}
}

// ParseURL parses a channel target address. The address must carry an
// explicit scheme (e.g. ws://host:port) and a host.
func ParseURL(addr string) (*url.URL, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("url.Parse(%s): %w", addr, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("parsing %s: format should be 'scheme://host:port'", addr)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parsing %s: specify a host", addr)
	}
	return u, nil
}
