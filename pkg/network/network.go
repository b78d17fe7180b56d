// Copyright 2025 NetApp, Inc. All Rights Reserved.

package network

import (
	"strings"
)

func IPv6Check(ip string) bool {
	return strings.Count(ip, ":") >= 2
}

// EnsureHostFormatted encloses a bare IPv6 address in square brackets, as in "[fd20::1]", so it can be joined
// with a scheme or port.  Host names, IPv4 addresses and already bracketed addresses are returned unchanged.
func EnsureHostFormatted(host string) string {
	host = strings.TrimSpace(host)
	if host != "" && IPv6Check(host) && host[0] != '[' {
		return "[" + host + "]"
	}
	return host
}
