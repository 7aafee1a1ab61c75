package net

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
)

const (
	// LinkScheme prefixes share links handed to other boards.
	LinkScheme = "liveboard://"
	// RelayPath is where the relay serves websocket connections.
	RelayPath = "/ws"
)

// ShareLink returns the link other boards use to join a relay on port. The host
// part is the address this machine routes outbound traffic from; on a network
// with no route out it falls back to the first non-loopback IPv4 interface.
func ShareLink(port int) string {
	host := routedIP()
	if host == "" {
		addrs, err := net.InterfaceAddrs()
		if err != nil {
			slog.Warn("listing interfaces failed", slog.String("error", err.Error()))
		}
		host = firstLANAddr(addrs)
	}
	return LinkScheme + net.JoinHostPort(host, strconv.Itoa(port))
}

// routedIP asks the kernel which source address a UDP "connection" to a public
// resolver would use. No packet is sent.
func routedIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return ""
	}
	defer conn.Close()
	if a, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return a.IP.String()
	}
	return ""
}

// firstLANAddr picks the first non-loopback IPv4 address, or loopback when there
// is none.
func firstLANAddr(addrs []net.Addr) string {
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() || ipnet.IP.To4() == nil {
			continue
		}
		return ipnet.IP.String()
	}
	slog.Warn("no LAN address found, share link only works on this machine")
	return "127.0.0.1"
}

// RelayURL turns a share link, a host:port pair or a websocket URL into the
// websocket URL of the relay.
func RelayURL(target string) string {
	switch {
	case strings.HasPrefix(target, "ws://"), strings.HasPrefix(target, "wss://"):
		return target
	case strings.HasPrefix(target, LinkScheme):
		target = strings.TrimPrefix(target, LinkScheme)
	}
	target = strings.TrimSuffix(target, "/")
	return fmt.Sprintf("ws://%s%s", target, RelayPath)
}
