package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/workflow"

	"github.com/shopspring/decimal"
)

func TestGetStatistics(t *testing.T) {
	db := setupServiceDB(t)
	org := seedOrg(t, db)
	svc := NewStatisticsService(db)
	ctx := context.Background()

	seed := func(status workflow.Status, stage workflow.Stage, amount int64) {
		r := model.PurchaseRequest{
			Title:                "seed",
			UserID:               org.employee.ID,
			EntityID:             &org.entity.ID,
			Status:               status,
			Stage:                stage,
			TotalEstimatedAmount: decimal.NewFromInt(amount),
		}
		if err := db.Create(&r).Error; err != nil {
			t.Fatalf("seed request: %v", err)
		}
	}
	seed(workflow.StatusApproved, workflow.StageInvoiced, 1000)
	seed(workflow.StatusApproved, workflow.StagePendingPayment, 250)
	seed(workflow.StatusPending, workflow.StageNeed, 9999)

	start := time.Now().Add(-24 * time.Hour)
	end := time.Now().Add(24 * time.Hour)

	stats, err := svc.GetStatistics(ctx, start, end)
	if err != nil {
		t.Fatalf("get statistics: %v", err)
	}
	if stats.TotalRequests != 3 {
		t.Errorf("total requests = %d, want 3", stats.TotalRequests)
	}
	// Pending requests never count toward committed spend.
	if stats.TotalApprovedSpend != 1250 {
		t.Errorf("approved spend = %v, want 1250", stats.TotalApprovedSpend)
	}
	if len(stats.ByStage) != len(workflow.Stages) || len(stats.ByStatus) != len(workflow.Statuses) {
		t.Fatalf("breakdowns must cover every bucket: %d stages, %d statuses", len(stats.ByStage), len(stats.ByStatus))
	}
	for _, sc := range stats.ByStage {
		if sc.Stage == string(workflow.StageNeed) && sc.Count != 1 {
			t.Errorf("NEED count = %d, want 1", sc.Count)
		}
		if sc.Label == "" {
			t.Errorf("stage %s is missing its label", sc.Stage)
		}
	}
	if len(stats.SpendByEntity) != 1 || stats.SpendByEntity[0].Total != 1250 {
		t.Errorf("spend by entity = %+v, want one row at 1250", stats.SpendByEntity)
	}
	if len(stats.SpendByMonth) != 1 || stats.SpendByMonth[0].Total != 1250 {
		t.Errorf("spend by month = %+v, want one bucket at 1250", stats.SpendByMonth)
	}

	t.Run("aggregation failures surface as errors", func(t *testing.T) {
		if err := db.Migrator().DropTable(&model.Entity{}); err != nil {
			t.Fatalf("drop table: %v", err)
		}
		if _, err := svc.GetStatistics(ctx, start, end); err == nil {
			t.Fatal("a failing aggregate query must not render as zeros")
		}
	})
}
