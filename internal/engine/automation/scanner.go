package automation

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/deepugami/mini-crm/internal/platform/models"
	"github.com/deepugami/mini-crm/internal/platform/repositories"
)

const defaultScanInterval = time.Minute

// Scanner evaluates time_wait rules on a fixed cadence. Leads that stay
// untouched keep matching, so their actions re-execute on every tick until
// something updates the lead. That repetition is intended; there is no
// already-notified suppression.
type Scanner struct {
	rules    *repositories.RuleRepository
	leads    *repositories.LeadRepository
	engine   *Engine
	interval time.Duration

	mu   sync.Mutex
	quit chan struct{}
	once sync.Once
}

func NewScanner(rules *repositories.RuleRepository, leads *repositories.LeadRepository, engine *Engine, interval time.Duration) *Scanner {
	if interval <= 0 {
		interval = defaultScanInterval
	}
	return &Scanner{
		rules:    rules,
		leads:    leads,
		engine:   engine,
		interval: interval,
		quit:     make(chan struct{}),
	}
}

// Start launches the scan loop. Scans run synchronously inside the loop, so
// a slow scan delays the next tick instead of overlapping it.
func (s *Scanner) Start() {
	go s.loop()
}

func (s *Scanner) Stop() {
	s.once.Do(func() { close(s.quit) })
}

func (s *Scanner) loop() {
	log.Info().Dur("interval", s.interval).Msg("time-wait scanner started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce()
		case <-s.quit:
			log.Info().Msg("time-wait scanner stopped")
			return
		}
	}
}

// RunOnce performs a single scan pass over all active time_wait rules.
// Exported for the tests and guarded so concurrent callers serialize.
func (s *Scanner) RunOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := s.rules.ListActiveTimeWait()
	if err != nil {
		log.Error().Err(err).Msg("time-wait scan: loading rules failed")
		return
	}

	for _, rule := range rules {
		s.runRule(rule)
	}
}

func (s *Scanner) runRule(rule *models.AutomationRule) {
	entity, ok := optionalString(rule.TriggerConfig, "entity")
	if !ok {
		return
	}
	if entity == "" {
		entity = "lead"
	}
	// Only leads carry a last-touch timestamp; rules targeting anything
	// else are skipped.
	if entity != "lead" {
		return
	}

	statusFilter, ok := optionalString(rule.TriggerConfig, "status")
	if !ok {
		return
	}
	if statusFilter != "" && !models.ValidLeadStatus(statusFilter) {
		return
	}

	hours := floatValue(rule.TriggerConfig, "hours_without_touch")
	if hours <= 0 {
		hours = 24
	}
	cutoff := time.Now().Unix() - int64(hours*3600)

	leads, err := s.leads.ListUntouchedBefore(cutoff, statusFilter)
	if err != nil {
		log.Error().Err(err).Int64("rule_id", rule.ID).Msg("time-wait scan: lead query failed")
		return
	}

	for _, lead := range leads {
		// The query result alone decides eligibility; these executions
		// bypass the event matcher entirely.
		s.engine.Execute(rule, map[string]any{
			"lead_id": lead.ID,
			"status":  lead.Status,
		})
	}

	if len(leads) > 0 {
		log.Debug().
			Int64("rule_id", rule.ID).
			Int("leads", len(leads)).
			Msg("time-wait rule executed")
	}
}
