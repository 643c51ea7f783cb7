package geo

import (
	"context"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// MMDB resolves locations from a local MaxMind City database. When
// configured it sits first in the chain, keeping lookups off the network
// for the common case.
type MMDB struct {
	reader *geoip2.Reader
}

// OpenMMDB opens the database at path.
func OpenMMDB(path string) (*MMDB, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mmdb %s: %w", path, err)
	}
	return &MMDB{reader: reader}, nil
}

// Resolve implements Resolver.
func (p *MMDB) Resolve(_ context.Context, addr string) (Location, error) {
	ip := net.ParseIP(addr)
	if ip == nil {
		return Location{}, fmt.Errorf("invalid IP %q", addr)
	}

	record, err := p.reader.City(ip)
	if err != nil {
		return Location{}, fmt.Errorf("mmdb lookup: %w", err)
	}

	loc := Location{
		Country: record.Country.Names["en"],
		City:    record.City.Names["en"],
	}
	if loc.Country == "" && loc.City == "" {
		return Location{}, ErrNotFound
	}
	return loc, nil
}

// Name implements Resolver.
func (p *MMDB) Name() string { return "mmdb" }

// Close releases the database reader.
func (p *MMDB) Close() error {
	return p.reader.Close()
}
