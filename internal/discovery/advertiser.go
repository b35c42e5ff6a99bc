// Package discovery announces the chat server on the local network over
// mDNS so clients can find it without configuration.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service chat servers register under.
const ServiceType = "_chatgui._tcp"

// Metadata holds the TXT record fields for the service.
type Metadata struct {
	DisplayName string
	Version     string
	Command     string // button command prefix clients should expect
}

// Config holds configuration for the mDNS advertiser.
type Config struct {
	InstanceName string
	Port         int
	Iface        string // bind to this interface only; empty means all
	Meta         Metadata
	Logger       *slog.Logger
}

// Advertiser manages the mDNS service registration.
type Advertiser struct {
	servers []*mdns.Server
	cfg     Config
	logger  *slog.Logger
}

// NewAdvertiser creates a new advertiser with the given config.
func NewAdvertiser(cfg Config) (*Advertiser, error) {
	if cfg.InstanceName == "" {
		return nil, fmt.Errorf("instance name is required")
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("port must be > 0")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Advertiser{cfg: cfg, logger: logger.With("component", "mdns")}, nil
}

// TXT returns the TXT records advertised for cfg.
func (cfg Config) TXT() []string {
	txt := []string{
		"role=chatgui",
		"port=" + strconv.Itoa(cfg.Port),
		"displayName=" + cfg.Meta.DisplayName,
	}
	if cfg.Meta.Version != "" {
		txt = append(txt, "version="+cfg.Meta.Version)
	}
	if cfg.Meta.Command != "" {
		txt = append(txt, "command="+cfg.Meta.Command)
	}
	return txt
}

// Start begins advertising the service. The mdns servers answer queries
// on their own goroutines until Stop.
func (a *Advertiser) Start() error {
	service, err := mdns.NewMDNSService(a.cfg.InstanceName, ServiceType, "", "", a.cfg.Port, nil, a.cfg.TXT())
	if err != nil {
		return fmt.Errorf("create mdns service: %w", err)
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return fmt.Errorf("list interfaces: %w", err)
	}

	var servers []*mdns.Server
	for _, iface := range ifaces {
		if a.cfg.Iface != "" && iface.Name != a.cfg.Iface {
			continue
		}
		if (iface.Flags&net.FlagUp) == 0 || (iface.Flags&net.FlagMulticast) == 0 {
			continue
		}
		server, err := mdns.NewServer(&mdns.Config{Zone: service, Iface: &iface})
		if err != nil {
			a.logger.Warn("interface bind failed", "iface", iface.Name, "error", err)
			continue
		}
		a.logger.Debug("interface bound", "iface", iface.Name)
		servers = append(servers, server)
	}

	// Fall back to the default interface unless one was requested.
	if len(servers) == 0 && a.cfg.Iface == "" {
		server, err := mdns.NewServer(&mdns.Config{Zone: service})
		if err != nil {
			return fmt.Errorf("start mdns server: %w", err)
		}
		servers = append(servers, server)
	}
	if len(servers) == 0 {
		return fmt.Errorf("no mdns interfaces bound (iface=%q)", a.cfg.Iface)
	}

	a.servers = servers
	a.logger.Info("advertising", "service", ServiceType, "instance", a.cfg.InstanceName, "port", a.cfg.Port)
	return nil
}

// Stop shuts down the mDNS advertisement.
func (a *Advertiser) Stop() error {
	var firstErr error
	for _, server := range a.servers {
		if server == nil {
			continue
		}
		if err := server.Shutdown(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.servers = nil
	return firstErr
}

// Entry is one chat server found by Browse.
type Entry struct {
	Name        string
	Host        string
	Addr        net.IP
	Port        int
	DisplayName string
	Fields      map[string]string
}

// Browse queries the network for chat servers until timeout or ctx ends.
func Browse(ctx context.Context, timeout time.Duration) ([]Entry, error) {
	ch := make(chan *mdns.ServiceEntry, 16)
	done := make(chan struct{})
	var entries []Entry
	go func() {
		defer close(done)
		for e := range ch {
			if entry, ok := parseEntry(e); ok {
				entries = append(entries, entry)
			}
		}
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Entries = ch
	params.Timeout = timeout
	params.DisableIPv6 = true
	if deadline, ok := ctx.Deadline(); ok {
		params.Timeout = min(timeout, time.Until(deadline))
	}
	err := mdns.Query(params)
	close(ch)
	<-done
	if err != nil {
		return nil, fmt.Errorf("mdns query: %w", err)
	}
	return entries, ctx.Err()
}

func parseEntry(e *mdns.ServiceEntry) (Entry, bool) {
	fields := ParseTXT(e.InfoFields)
	if fields["role"] != "chatgui" {
		return Entry{}, false
	}
	return Entry{
		Name:        e.Name,
		Host:        e.Host,
		Addr:        e.AddrV4,
		Port:        e.Port,
		DisplayName: fields["displayName"],
		Fields:      fields,
	}, true
}

// ParseTXT splits key=value TXT records. Records without '=' map to "".
func ParseTXT(records []string) map[string]string {
	out := make(map[string]string, len(records))
	for _, r := range records {
		k, v, _ := strings.Cut(r, "=")
		out[k] = v
	}
	return out
}
