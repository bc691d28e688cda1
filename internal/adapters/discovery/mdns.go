package discovery

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/hashicorp/mdns"
	"github.com/rs/zerolog/log"
)

const DefaultService = "_board._tcp"

type Options struct {
	Service  string
	Instance string
	HostName string
	Port     int
	IPs      []net.IP
}

// Service builds the mDNS zone advertising the board on the LAN.
func Service(opts Options) (*mdns.MDNSService, error) {
	if opts.Service == "" {
		opts.Service = DefaultService
	}
	if opts.Instance == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("could not get hostname: %w", err)
		}
		opts.Instance = host
	}
	info := []string{"Board", "path=/api/ws/signal"}
	svc, err := mdns.NewMDNSService(opts.Instance, opts.Service, "", opts.HostName, opts.Port, opts.IPs, info)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	return svc, nil
}

// Advertise answers mDNS queries until ctx is canceled.
func Advertise(ctx context.Context, opts Options) error {
	svc, err := Service(opts)
	if err != nil {
		return err
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: svc})
	if err != nil {
		return fmt.Errorf("failed to start mDNS server: %w", err)
	}
	log.Info().Str("module", "discovery").Str("service", svc.Service).Int("port", svc.Port).Msg("advertising")
	<-ctx.Done()
	if err := server.Shutdown(); err != nil {
		return fmt.Errorf("mDNS shutdown: %w", err)
	}
	log.Info().Str("module", "discovery").Msg("advertising stopped")
	return nil
}
