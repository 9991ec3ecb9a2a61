// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartExpiryScheduler sweeps pending claim authorizations whose deadline
// passed without an on-chain settlement being observed.
func (s *ClaimService) StartExpiryScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every 10 minutes: expire stale pending claims and credit points back
	_, _ = sched.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			if err := s.ExpireStaleClaims(); err != nil {
				log.Printf("[ClaimExpiry] sweep error: %v", err)
			}
		}),
	)
}
