/*
scheduler.go - Automated low-balance scan scheduler

PURPOSE:
  Periodically runs the low-balance alert scan so that alert state and
  the active-alerts gauge stay warm without waiting for a dashboard
  request. Overdrawn balances show up in logs even when nobody is
  watching the UI.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Reuses the same AlertEngine the API serves, so scans share the
    alert cache (scheduler runs prime it for dashboard requests)
  - Logs critical and overdrawn balances for operator visibility

CONFIGURATION:
  - CheckInterval: How often to scan (default: 15 minutes)
  - ThresholdPercent: Remaining-percent cutoff (default: 20)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewAlertScheduler(alerts)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: GetLowBalanceAlerts endpoint (on-demand scan)
  - benefit/alerts.go: AlertEngine
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/meridian/benefit-ledger/benefit"
	"github.com/meridian/benefit-ledger/metrics"
)

// AlertScheduler runs periodic low-balance scans.
type AlertScheduler struct {
	Alerts           *benefit.AlertEngine
	CheckInterval    time.Duration
	ThresholdPercent float64
	Enabled          bool

	// Year to scan; zero means the current year at scan time.
	Year int

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewAlertScheduler creates a new scheduler.
func NewAlertScheduler(alerts *benefit.AlertEngine) *AlertScheduler {
	return &AlertScheduler{
		Alerts:           alerts,
		CheckInterval:    15 * time.Minute,
		ThresholdPercent: 20,
		Enabled:          true,
		stop:             make(chan bool),
	}
}

// Start begins the scheduler.
func (as *AlertScheduler) Start() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if !as.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	as.ticker = time.NewTicker(as.CheckInterval)
	as.wg.Add(1)

	go as.run()

	log.Printf("[Scheduler] Started with check interval: %v", as.CheckInterval)
}

// Stop stops the scheduler.
func (as *AlertScheduler) Stop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.ticker != nil {
		as.ticker.Stop()
		close(as.stop)
		as.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (as *AlertScheduler) run() {
	defer as.wg.Done()

	// Run immediately on start
	as.scan()

	for {
		select {
		case <-as.ticker.C:
			as.scan()
		case <-as.stop:
			return
		}
	}
}

func (as *AlertScheduler) scan() {
	ctx := context.Background()

	year := as.Year
	if year == 0 {
		year = time.Now().Year()
	}

	report, err := as.Alerts.LowBalanceAlerts(ctx, as.ThresholdPercent, year)
	if err != nil {
		log.Printf("[Scheduler] Scan failed: %v", err)
		return
	}

	metrics.ActiveAlerts.Set(float64(report.TotalAlerts))

	overdrawn := 0
	for _, a := range report.Alerts {
		switch a.Severity {
		case benefit.SeverityOverdraftExceeded, benefit.SeverityOverdrawn:
			overdrawn++
			log.Printf("[Scheduler] Overdrawn: employee=%s type=%s balance=%s severity=%s",
				a.EmployeeID, a.BenefitTypeName, a.CurrentBalance, a.Severity)
		}
	}

	if report.TotalAlerts > 0 {
		log.Printf("[Scheduler] Scan completed: %d alerts (%d overdrawn), year=%d threshold=%.0f%%",
			report.TotalAlerts, overdrawn, year, as.ThresholdPercent)
	}
}

// RunNow triggers an immediate scan (for testing/admin).
func (as *AlertScheduler) RunNow() {
	as.scan()
}
