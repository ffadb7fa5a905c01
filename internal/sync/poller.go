package sync

import (
	"context"
	"log"
	gosync "sync"
	"time"

	"github.com/nhle/translation-connector/internal/model"
)

// PollerState represents the current state of a provider pull.
type PollerState int

const (
	PollIdle PollerState = iota
	PollRunning
	PollError
)

// PollStatus holds the pull state for a single provider.
type PollStatus struct {
	ProviderID string
	State      PollerState
	LastPull   time.Time
	LastCounts PullCounts
	Error      error
}

// pullTimeout is the maximum time allowed for a single provider pull.
const pullTimeout = 5 * time.Minute

// providerEntry holds a registered retriever and its configuration.
type providerEntry struct {
	retriever *Retriever
	cfg       model.ProviderConfig
}

// Poller periodically pulls remote translations for every registered
// provider. The vendor also pushes callbacks, but scheduled pulls cover
// notifications that never arrive.
type Poller struct {
	providers []providerEntry
	statuses  map[string]*PollStatus
	triggerCh chan string
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// NewPoller creates an empty poller.
func NewPoller() *Poller {
	return &Poller{
		statuses:  make(map[string]*PollStatus),
		triggerCh: make(chan string, 16),
		stopCh:    make(chan struct{}),
	}
}

// RegisterProvider adds a provider's retriever and configuration to the
// poller.
func (p *Poller) RegisterProvider(retriever *Retriever, cfg model.ProviderConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.providers = append(p.providers, providerEntry{retriever: retriever, cfg: cfg})
	p.statuses[cfg.ID] = &PollStatus{
		ProviderID: cfg.ID,
		State:      PollIdle,
	}
}

// Start launches a polling goroutine per registered provider.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	providers := make([]providerEntry, len(p.providers))
	copy(providers, p.providers)
	p.mu.Unlock()

	for _, entry := range providers {
		go p.pollProvider(entry)
	}
}

// Stop halts all polling goroutines.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// Trigger requests an immediate pull of a single provider.
func (p *Poller) Trigger(providerID string) {
	select {
	case p.triggerCh <- providerID:
	default:
		// Channel full; a pull is already pending.
	}
}

// Statuses returns the current pull status of all registered providers.
func (p *Poller) Statuses() []PollStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	statuses := make([]PollStatus, 0, len(p.statuses))
	for _, s := range p.statuses {
		statuses = append(statuses, *s)
	}
	return statuses
}

// pollProvider runs the polling loop for a single provider.
func (p *Poller) pollProvider(entry providerEntry) {
	interval := time.Duration(entry.cfg.PollIntervalSec) * time.Second
	if interval <= 0 {
		interval = 300 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Do an initial pull immediately.
	p.pull(entry)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.pull(entry)
		case providerID := <-p.triggerCh:
			if providerID == entry.cfg.ID {
				p.pull(entry)
			}
		}
	}
}

// pull performs a single global pull for a provider and records its status.
func (p *Poller) pull(entry providerEntry) {
	p.setStatus(entry.cfg.ID, PollRunning, PullCounts{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), pullTimeout)
	defer cancel()

	counts, err := entry.retriever.PullRemoteTranslations(ctx)
	if err != nil {
		p.setStatus(entry.cfg.ID, PollError, counts, err)
		log.Printf("provider %s: pulling remote translations: %v", entry.cfg.ID, err)
		return
	}

	p.setStatus(entry.cfg.ID, PollIdle, counts, nil)
	if counts.Updated > 0 {
		log.Printf("provider %s: pulled %d updated files (%d not ready)",
			entry.cfg.ID, counts.Updated, counts.NonUpdated)
	}
}

// setStatus updates the pull status for a provider.
func (p *Poller) setStatus(providerID string, state PollerState, counts PullCounts, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[providerID]
	if !ok {
		return
	}

	status.State = state
	status.Error = err
	status.LastCounts = counts
	if state == PollIdle && err == nil {
		status.LastPull = time.Now()
	}
}
