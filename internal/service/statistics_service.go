package service

import (
	"context"
	"time"

	"backend/internal/workflow"

	"gorm.io/gorm"
)

type StageCount struct {
	Stage string `json:"stage"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}

type StatusCount struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	Count  int64  `json:"count"`
}

type EntitySpend struct {
	EntityID   string  `json:"entity_id"`
	EntityName string  `json:"entity_name"`
	Total      float64 `json:"total"`
	Requests   int64   `json:"requests"`
}

type MonthlySpend struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

type StatisticsResponse struct {
	TimeRangeStartDate time.Time      `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time      `json:"time_range_end_date"`
	TotalRequests      int64          `json:"total_requests"`
	TotalApprovedSpend float64        `json:"total_approved_spend"`
	ByStage            []StageCount   `json:"by_stage"`
	ByStatus           []StatusCount  `json:"by_status"`
	SpendByEntity      []EntitySpend  `json:"spend_by_entity"`
	SpendByMonth       []MonthlySpend `json:"spend_by_month"`
}

type StatisticsService interface {
	GetStatistics(ctx context.Context, startDate, endDate time.Time) (StatisticsResponse, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetStatistics aggregates the procurement pipeline for the dashboard: request
// volume per stage and status, plus approved spend per entity and per month.
func (s *statisticsService) GetStatistics(ctx context.Context, startDate, endDate time.Time) (StatisticsResponse, error) {
	var response StatisticsResponse
	response.TimeRangeStartDate = startDate
	response.TimeRangeEndDate = endDate

	base := s.db.WithContext(ctx).Table("purchase_requests").
		Where("created_at >= ? AND created_at <= ?", startDate, endDate)

	if err := base.Session(&gorm.Session{}).Count(&response.TotalRequests).Error; err != nil {
		return response, err
	}

	// Approved spend covers every request past validation.
	var approved struct {
		Value float64
	}
	if err := s.db.WithContext(ctx).Table("purchase_requests").
		Select("COALESCE(SUM(total_estimated_amount), 0) as value").
		Where("status = ? AND created_at >= ? AND created_at <= ?", workflow.StatusApproved, startDate, endDate).
		Scan(&approved).Error; err != nil {
		return response, err
	}
	response.TotalApprovedSpend = approved.Value

	// Pipeline breakdown keeps the natural stage/status ordering, including
	// empty buckets.
	for _, stage := range workflow.Stages {
		var count int64
		if err := s.db.WithContext(ctx).Table("purchase_requests").
			Where("stage = ? AND created_at >= ? AND created_at <= ?", stage, startDate, endDate).
			Count(&count).Error; err != nil {
			return response, err
		}
		response.ByStage = append(response.ByStage, StageCount{
			Stage: string(stage),
			Label: stage.Label(),
			Count: count,
		})
	}
	for _, status := range workflow.Statuses {
		var count int64
		if err := s.db.WithContext(ctx).Table("purchase_requests").
			Where("status = ? AND created_at >= ? AND created_at <= ?", status, startDate, endDate).
			Count(&count).Error; err != nil {
			return response, err
		}
		response.ByStatus = append(response.ByStatus, StatusCount{
			Status: string(status),
			Label:  status.Label(),
			Count:  count,
		})
	}

	var byEntity []EntitySpend
	if err := s.db.WithContext(ctx).Table("purchase_requests").
		Select("entities.id as entity_id, entities.name as entity_name, COALESCE(SUM(purchase_requests.total_estimated_amount), 0) as total, COUNT(purchase_requests.id) as requests").
		Joins("JOIN entities ON entities.id = purchase_requests.entity_id").
		Where("purchase_requests.status = ? AND purchase_requests.created_at >= ? AND purchase_requests.created_at <= ?", workflow.StatusApproved, startDate, endDate).
		Group("entities.id, entities.name").
		Order("total DESC").
		Scan(&byEntity).Error; err != nil {
		return response, err
	}
	response.SpendByEntity = byEntity

	// Month bucketing has no portable SQL spelling.
	monthExpr := "strftime('%Y-%m', created_at)"
	if s.db.Dialector.Name() == "postgres" {
		monthExpr = "to_char(created_at, 'YYYY-MM')"
	}
	var byMonth []MonthlySpend
	if err := s.db.WithContext(ctx).Table("purchase_requests").
		Select(monthExpr + " as month, COALESCE(SUM(total_estimated_amount), 0) as total").
		Where("status = ? AND created_at >= ? AND created_at <= ?", workflow.StatusApproved, startDate, endDate).
		Group("month").
		Order("month").
		Scan(&byMonth).Error; err != nil {
		return response, err
	}
	response.SpendByMonth = byMonth

	return response, nil
}
