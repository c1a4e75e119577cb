package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager hands out one Controller per browser session. Sessions are independent of each other and
// live only in memory; closing the process discards every transcript.
type Manager struct {
	gatewayURL string
	persona    string
	timeout    time.Duration
	logger     *slog.Logger

	mu          sync.RWMutex
	controllers map[string]*Controller
}

// NewManager creates a Manager whose controllers talk to the gateway at gatewayURL with the given
// persona and completion timeout.
func NewManager(gatewayURL, persona string, timeout time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		gatewayURL:  gatewayURL,
		persona:     persona,
		timeout:     timeout,
		logger:      logger,
		controllers: make(map[string]*Controller),
	}
}

// Controller returns the controller for the given session ID, if it exists.
func (m *Manager) Controller(id string) (*Controller, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ctrl, ok := m.controllers[id]
	return ctrl, ok
}

// Create registers a new session and returns its ID along with the freshly created controller.
func (m *Manager) Create() (string, *Controller) {
	id := uuid.New().String()
	ctrl := NewController(m.gatewayURL, m.persona, m.timeout, m.logger)

	m.mu.Lock()
	m.controllers[id] = ctrl
	m.mu.Unlock()

	return id, ctrl
}
