package service

import (
	"context"
	"time"

	"github.com/guttosm/mktabuse/internal/abuse"
	"github.com/guttosm/mktabuse/internal/domain/models"
)

// Analyzer runs one detection without writing output. *abuse.Pipeline satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, req abuse.Request) (*models.Report, error)
}

// ReportService defines the business logic behind on-demand reports.
type ReportService interface {
	GetReport(ctx context.Context, instrument string, startDate, endDate *time.Time, method abuse.RankMethod) (*models.Report, error)
}

type reportService struct {
	analyzer   Analyzer
	defStart   time.Time
	defEnd     time.Time
	defaultRnk abuse.RankMethod
}

// NewReportService builds a ReportService. defStart and defEnd are used when a
// request leaves the window open on either side.
func NewReportService(analyzer Analyzer, defStart, defEnd time.Time, method abuse.RankMethod) ReportService {
	if method == "" {
		method = abuse.RankAverage
	}
	return &reportService{analyzer: analyzer, defStart: defStart, defEnd: defEnd, defaultRnk: method}
}

func (s *reportService) GetReport(ctx context.Context, instrument string, startDate, endDate *time.Time, method abuse.RankMethod) (*models.Report, error) {
	req := abuse.Request{
		Instrument: instrument,
		Start:      s.defStart,
		End:        s.defEnd,
		RankMethod: s.defaultRnk,
	}
	if startDate != nil {
		req.Start = *startDate
	}
	if endDate != nil {
		req.End = *endDate
	}
	if method != "" {
		req.RankMethod = method
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.analyzer.Analyze(ctx, req)
}
