package services

import (
	"context"
	"sync"
	"time"

	"leadflow-backend/logger"

	"golang.org/x/sync/errgroup"
)

type ScanSummary struct {
	RulesScanned int                     `json:"rulesScanned"`
	LeadsMatched int                     `json:"leadsMatched"`
	Outcomes     map[DispatchOutcome]int `json:"outcomes"`
}

// TimeoutScanner finds leads that have sat in a stage past a rule's
// threshold and hands them to the dispatcher. Repeated scans are safe: the
// dispatcher's delivery guard drops anything already sent.
type TimeoutScanner struct {
	matcher     *TriggerMatcher
	leads       LeadStore
	dispatcher  *Dispatcher
	now         Clock
	concurrency int
	log         *logger.Logger
}

func NewTimeoutScanner(matcher *TriggerMatcher, leads LeadStore, dispatcher *Dispatcher, now Clock, concurrency int, log *logger.Logger) *TimeoutScanner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &TimeoutScanner{
		matcher:     matcher,
		leads:       leads,
		dispatcher:  dispatcher,
		now:         now,
		concurrency: concurrency,
		log:         log,
	}
}

func (s *TimeoutScanner) Scan(ctx context.Context) ScanSummary {
	summary := ScanSummary{Outcomes: map[DispatchOutcome]int{}}
	log := s.log.WithContext(ctx)

	rules, err := s.matcher.ActiveTimeoutRules(ctx)
	if err != nil {
		log.DatabaseError("list timeout rules", err)
		return summary
	}

	now := s.now()
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, rule := range rules {
		summary.RulesScanned++
		threshold := rule.Threshold()
		if threshold <= 0 {
			log.Warn("timeout_rule_without_threshold", "event_id", rule.ID)
			continue
		}

		cutoff := now.Add(-time.Duration(threshold) * time.Minute)
		leadIDs, err := s.leads.ListStagnantLeads(ctx, rule.StageID, cutoff)
		if err != nil {
			log.DatabaseError("list stagnant leads", err)
			continue
		}
		summary.LeadsMatched += len(leadIDs)

		for _, leadID := range leadIDs {
			rule, leadID := rule, leadID
			g.Go(func() error {
				outcome := s.dispatcher.Dispatch(gctx, rule, leadID)
				mu.Lock()
				summary.Outcomes[outcome]++
				mu.Unlock()
				return nil
			})
		}
	}

	_ = g.Wait()

	log.Info("timeout_scan_completed",
		"rules", summary.RulesScanned,
		"leads", summary.LeadsMatched,
		"sent", summary.Outcomes[OutcomeSent])
	return summary
}
