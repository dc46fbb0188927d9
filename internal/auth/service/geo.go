package service

import (
	"context"
	"net/netip"
	"strings"
)

// Locator resolves an origin address to a best-effort city and country.
// Either may be nil when unknown.
type Locator interface {
	Locate(ctx context.Context, address string) (city, country *string, err error)
}

// StaticLocator knows only local addresses. Everything else is unknown.
type StaticLocator struct{}

func (StaticLocator) Locate(_ context.Context, address string) (*string, *string, error) {
	address = strings.TrimSpace(address)
	if address == "" || strings.EqualFold(address, "unknown") {
		return local()
	}

	ip, err := netip.ParseAddr(address)
	if err != nil {
		return nil, nil, nil
	}
	ip = ip.Unmap()
	if ip.IsLoopback() || ip.IsUnspecified() || ip.IsPrivate() {
		return local()
	}
	return nil, nil, nil
}

func local() (*string, *string, error) {
	city, country := "Local", "Localhost"
	return &city, &country, nil
}
