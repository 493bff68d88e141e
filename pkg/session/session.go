// Package session owns the Appium sessions a run drives, one per base_path.
package session

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mohanavadivelu2/automation-framework/pkg/config"
	"github.com/mohanavadivelu2/automation-framework/pkg/core"
	"github.com/mohanavadivelu2/automation-framework/pkg/driver/appium"
	"github.com/mohanavadivelu2/automation-framework/pkg/logger"
)

// Manager maps base paths to connected Appium clients.
type Manager struct {
	devices []config.Device
	log     *logger.Logger

	mu      sync.Mutex
	clients map[string]*appium.Client
}

// NewManager creates a manager for the configured devices. Nothing is
// connected until Connect.
func NewManager(devices []config.Device, log *logger.Logger) *Manager {
	return &Manager{
		devices: devices,
		log:     log,
		clients: make(map[string]*appium.Client),
	}
}

// Connect opens a session for every device. On failure the sessions opened
// so far are closed and the error names the failing base path.
func (m *Manager) Connect(ctx context.Context) error {
	for _, d := range m.devices {
		if err := ctx.Err(); err != nil {
			m.Close()
			return err
		}

		m.log.Info("Connecting %s to %s", d.BasePath, d.ServerURL)
		caps := make(map[string]interface{}, len(d.Capabilities))
		for k, v := range d.Capabilities {
			caps[k] = v
		}

		client := appium.NewClient(d.ServerURL)
		if err := client.Connect(ctx, caps); err != nil {
			m.log.Error("Connection failed for %s: %v", d.BasePath, err)
			m.Close()
			return core.ErrServerUnreachable.
				WithMessage(fmt.Sprintf("%s (%s)", d.BasePath, d.ServerURL)).
				WithCause(err)
		}

		m.mu.Lock()
		m.clients[d.BasePath] = client
		m.mu.Unlock()
		m.log.Info("Session %s ready for %s (%s)", client.SessionID(), d.BasePath, client.Platform())
	}
	return nil
}

// Client returns the connected client for a base path.
func (m *Manager) Client(basePath string) (*appium.Client, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[basePath]
	return c, ok
}

// Targets returns the connected base paths, sorted.
func (m *Manager) Targets() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	targets := make([]string, 0, len(m.clients))
	for t := range m.clients {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}

// Close deletes every open session. Errors are logged, not returned.
func (m *Manager) Close() {
	m.mu.Lock()
	clients := m.clients
	m.clients = make(map[string]*appium.Client)
	m.mu.Unlock()

	for target, c := range clients {
		if err := c.Disconnect(context.Background()); err != nil {
			m.log.Warn("Closing session for %s: %v", target, err)
		}
	}
}
