package net

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

const serviceType = "_liveboard._tcp"

// Advertise announces a relay listening on port over mDNS. Shut the returned
// server down to stop announcing.
func Advertise(port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}

	service, err := mdns.NewMDNSService(
		host,
		serviceType,
		"",
		"",
		port,
		nil,
		[]string{"LiveBoard relay", "path=" + RelayPath},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	return server, nil
}

// Discover browses for a relay and returns the websocket URL of the first one
// that answers within timeout.
func Discover(ctx context.Context, timeout time.Duration) (string, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	found := make(chan string, 1)
	go func() {
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			select {
			case found <- RelayURL(fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port)):
			default:
			}
		}
	}()

	params := mdns.DefaultParams(serviceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	queryErr := make(chan error, 1)
	go func() {
		queryErr <- mdns.Query(params)
		close(entries)
	}()

	select {
	case u := <-found:
		return u, nil
	case err := <-queryErr:
		select {
		case u := <-found:
			return u, nil
		default:
		}
		if err != nil {
			return "", fmt.Errorf("mDNS query failed: %w", err)
		}
		return "", fmt.Errorf("no relay found within %s", timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
