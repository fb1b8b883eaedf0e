// Package netaddr implements the endpoint publisher: it probes a list
// of candidate ports, serves the dashboard handler on the first free
// one and reports a LAN-reachable URL.
package netaddr

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Publisher binds the dashboard HTTP server on demand. It is created
// unbound; Publish binds at session start and Release unbinds at
// shutdown, so a restarted session re-probes the same candidates.
type Publisher struct {
	host    string
	ports   []int
	handler http.Handler

	mu  sync.Mutex
	srv *http.Server
	url string
}

// NewPublisher creates a Publisher probing ports on host.
func NewPublisher(host string, ports []int) *Publisher {
	return &Publisher{host: host, ports: ports}
}

// SetHandler sets the handler to serve. Must be called before Publish.
func (p *Publisher) SetHandler(h http.Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = h
}

// Publish binds the first free candidate port and starts serving,
// returning the observer-facing URL. Calling Publish while already
// bound returns the existing URL.
func (p *Publisher) Publish(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.srv != nil {
		return p.url, nil
	}

	for _, port := range p.ports {
		ln, err := net.Listen("tcp", net.JoinHostPort(p.host, strconv.Itoa(port)))
		if err != nil {
			continue
		}

		srv := &http.Server{
			Handler: p.handler,
			// No WriteTimeout: SSE responses stay open indefinitely.
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		go func() {
			if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
				slog.Error("dashboard server failed", "error", err)
			}
		}()

		bound := ln.Addr().(*net.TCPAddr).Port
		p.srv = srv
		p.url = fmt.Sprintf("http://%s:%d", LocalIP(), bound)
		slog.Info("dashboard endpoint bound", "url", p.url)
		return p.url, nil
	}

	return "", fmt.Errorf("could not bind to any port in %v", p.ports)
}

// Release gracefully shuts the server down. A Publisher that is not
// bound releases without error.
func (p *Publisher) Release(ctx context.Context) error {
	p.mu.Lock()
	srv := p.srv
	p.srv = nil
	p.url = ""
	p.mu.Unlock()

	if srv == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// URL returns the published URL, or empty when unbound.
func (p *Publisher) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// LocalIP returns the machine's first non-loopback IPv4 address, or
// "localhost" when none is up.
func LocalIP() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "localhost"
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch a := addr.(type) {
			case *net.IPNet:
				ip = a.IP
			case *net.IPAddr:
				ip = a.IP
			}
			if ip == nil || ip.IsLoopback() {
				continue
			}
			if v4 := ip.To4(); v4 != nil {
				return v4.String()
			}
		}
	}
	return "localhost"
}
