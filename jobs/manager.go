// Package jobs provides background job processing functionality.
package jobs

import (
	"context"
	"log"
	"sync"
	"time"
)

// Library is the scan entry point the manager drives.
type Library interface {
	Load() error
}

// ScanManager serializes library scans: one runs at a time, triggers
// arriving while a scan is in flight coalesce into a single follow-up run.
type ScanManager struct {
	library  Library
	interval time.Duration
	trigger  chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	running  bool
	scanning bool
	mu       sync.RWMutex
}

// NewScanManager creates a new scan manager. interval enables periodic
// rescans when positive.
func NewScanManager(library Library, interval time.Duration) *ScanManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &ScanManager{
		library:  library,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins the scan manager background processing
func (sm *ScanManager) Start() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.running {
		log.Println("Scan manager is already running")
		return
	}

	sm.running = true
	log.Println("Starting scan manager...")

	sm.wg.Add(1)
	go sm.run()
}

// Stop stops the scan manager and waits for an in-flight scan to finish
func (sm *ScanManager) Stop() {
	sm.mu.Lock()
	if !sm.running {
		sm.mu.Unlock()
		return
	}
	log.Println("Stopping scan manager...")
	sm.cancel()
	sm.running = false
	sm.mu.Unlock()

	sm.wg.Wait()
	log.Println("Scan manager stopped")
}

// TriggerScan queues a library scan. It returns false when a scan was
// already queued, in which case the pending run covers this request too.
func (sm *ScanManager) TriggerScan() bool {
	select {
	case sm.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// IsRunning returns whether the scan manager is currently running
func (sm *ScanManager) IsRunning() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.running
}

// IsScanning reports whether a scan is currently in flight
func (sm *ScanManager) IsScanning() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.scanning
}

func (sm *ScanManager) run() {
	defer sm.wg.Done()

	var tick <-chan time.Time
	if sm.interval > 0 {
		ticker := time.NewTicker(sm.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-sm.ctx.Done():
			log.Println("Scan loop stopped")
			return
		case <-tick:
			log.Println("Running periodic library scan...")
			sm.runScan()
		case <-sm.trigger:
			log.Println("Running requested library scan...")
			sm.runScan()
		}
	}
}

func (sm *ScanManager) runScan() {
	sm.mu.Lock()
	sm.scanning = true
	sm.mu.Unlock()

	if err := sm.library.Load(); err != nil {
		log.Printf("Library scan failed: %v", err)
	}

	sm.mu.Lock()
	sm.scanning = false
	sm.mu.Unlock()
}
