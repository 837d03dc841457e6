package scheduler

import (
	"context"
	"fmt"
	"log"

	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/workflow"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the background jobs of the procurement flow. Today that is
// a single daily scan of requests past their payment due date.
type Scheduler struct {
	cron          *cron.Cron
	requests      repository.RequestRepository
	notifications service.NotificationService
}

func New(requests repository.RequestRepository, notifications service.NotificationService) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		requests:      requests,
		notifications: notifications,
	}
}

// Start registers the payment-due reminder on the given cron schedule and
// launches the scheduler loop.
func (s *Scheduler) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.runPaymentReminders); err != nil {
		return fmt.Errorf("failed to schedule payment reminder: %w", err)
	}
	s.cron.Start()
	log.Printf("scheduler: payment reminder scheduled (%s)", schedule)
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// runPaymentReminders nudges accountants about every invoice whose payment
// due date has passed. Re-running produces duplicate reminders on purpose;
// an overdue invoice stays loud until it is paid.
func (s *Scheduler) runPaymentReminders() {
	ctx := context.Background()

	overdue, err := s.requests.ListDuePayments(ctx)
	if err != nil {
		log.Printf("scheduler: payment reminder scan failed: %v", err)
		return
	}

	for i := range overdue {
		req := &overdue[i]
		due := ""
		if req.PaymentDueAt != nil {
			due = req.PaymentDueAt.Format("2006-01-02")
		}
		s.notifications.NotifyRole(ctx, workflow.RoleAccountant, &req.ID, "PAYMENT_OVERDUE",
			fmt.Sprintf("La facture %s de la demande « %s » est en retard de paiement (échéance %s).",
				req.InvoiceNumber, req.Title, due))
	}

	if len(overdue) > 0 {
		log.Printf("scheduler: %d overdue payment(s) notified", len(overdue))
	}
}
