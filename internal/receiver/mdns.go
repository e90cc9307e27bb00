package receiver

import (
	"github.com/grandcat/zeroconf"

	"github.com/csheth/manuscripts/internal/config"
)

const (
	// ServiceType is the DNS-SD service receivers register under.
	ServiceType = "_manuscripts._tcp"
	// Domain is the mDNS browse domain.
	Domain = "local."
	// ProtocolVersion is advertised in the version TXT record.
	ProtocolVersion = "1"
)

// TXTRecords returns the TXT entries advertised for cfg.
func TXTRecords(cfg *config.Receiver) []string {
	auth := "0"
	if cfg.AuthRequired() {
		auth = "1"
	}
	return []string{
		"teacher=" + cfg.Teacher,
		"version=" + ProtocolVersion,
		"auth=" + auth,
	}
}

// Advertise registers the receiver on the local network. Call Shutdown
// on the result to withdraw it.
func Advertise(cfg *config.Receiver) (*zeroconf.Server, error) {
	return zeroconf.Register(cfg.Teacher, ServiceType, Domain, cfg.Port, TXTRecords(cfg), nil)
}
