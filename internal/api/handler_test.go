package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/mktabuse/internal/abuse"
	"github.com/guttosm/mktabuse/internal/domain/dto"
	"github.com/guttosm/mktabuse/internal/domain/models"
	"github.com/guttosm/mktabuse/internal/marketdata"
	"github.com/guttosm/mktabuse/internal/service"
)

type mockReportService struct {
	resp *models.Report
	err  error

	gotStock      string
	gotStart      *time.Time
	gotEnd        *time.Time
	gotRankMethod abuse.RankMethod
}

func (m *mockReportService) GetReport(_ context.Context, stock string, start, end *time.Time, method abuse.RankMethod) (*models.Report, error) {
	m.gotStock, m.gotStart, m.gotEnd, m.gotRankMethod = stock, start, end, method
	return m.resp, m.err
}

var _ service.ReportService = (*mockReportService)(nil)

func setupRouterWithMock(s service.ReportService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, abuse.RankAverage)
	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.GET("/reports", h.GetReport)
	return r
}

func sampleReport() *models.Report {
	return &models.Report{
		Instrument:    "AMZN",
		StartDate:     time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2020, 3, 31, 0, 0, 0, 0, time.UTC),
		TotalOrders:   2,
		FlaggedOrders: 1,
		Traders:       []models.TraderRankingRow{{TraderID: "T1", CountryCode: "US", FirstName: "Ann", LastName: "Lee", NumOfOrders: 10, RankByOrders: 1}},
		Countries:     []models.CountrySummaryRow{{CountryCode: "US", NumTraders: 1, NumOrders: 10}},
	}
}

func TestGetReport_TableDriven(t *testing.T) {
	cases := []struct {
		name   string
		svc    *mockReportService
		query  string
		status int
		assert func(t *testing.T, svc *mockReportService, body []byte)
	}{
		{
			name:   "missing stock",
			svc:    &mockReportService{},
			query:  "/api/v1/reports",
			status: http.StatusBadRequest,
		},
		{
			name:   "invalid start date",
			svc:    &mockReportService{},
			query:  "/api/v1/reports?stock=AMZN&start_date=2020/02/01",
			status: http.StatusBadRequest,
		},
		{
			name:   "invalid end date",
			svc:    &mockReportService{},
			query:  "/api/v1/reports?stock=AMZN&end_date=tomorrow",
			status: http.StatusBadRequest,
		},
		{
			name:   "inverted window",
			svc:    &mockReportService{},
			query:  "/api/v1/reports?stock=AMZN&start_date=2020-03-01&end_date=2020-02-01",
			status: http.StatusBadRequest,
		},
		{
			name:   "invalid request from service",
			svc:    &mockReportService{err: fmt.Errorf("%w: end date 2020-03-31 is before start date 2021-01-01", abuse.ErrInvalidRequest)},
			query:  "/api/v1/reports?stock=AMZN&start_date=2021-01-01",
			status: http.StatusBadRequest,
		},
		{
			name:   "invalid rank method",
			svc:    &mockReportService{},
			query:  "/api/v1/reports?stock=AMZN&rank_method=first",
			status: http.StatusBadRequest,
		},
		{
			name:   "nothing flagged when required",
			svc:    &mockReportService{err: abuse.ErrEmptyInput},
			query:  "/api/v1/reports?stock=AMZN",
			status: http.StatusNotFound,
		},
		{
			name:   "invalid order data",
			svc:    &mockReportService{err: fmt.Errorf("normalize orders: %w", abuse.NewInputValidationError(3, "tradeDatetime", "x", abuse.ErrMalformedTimestamp))},
			query:  "/api/v1/reports?stock=AMZN",
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "strict duplicates",
			svc:    &mockReportService{err: &abuse.DuplicateReferenceDataError{Instrument: "AMZN"}},
			query:  "/api/v1/reports?stock=AMZN",
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "market data down",
			svc:    &mockReportService{err: fmt.Errorf("fetch price bars: %w", &marketdata.HTTPError{StatusCode: 503})},
			query:  "/api/v1/reports?stock=AMZN",
			status: http.StatusBadGateway,
		},
		{
			name:   "internal error",
			svc:    &mockReportService{err: errors.New("disk full")},
			query:  "/api/v1/reports?stock=AMZN",
			status: http.StatusInternalServerError,
			assert: func(t *testing.T, _ *mockReportService, body []byte) {
				var out dto.ErrorResponse
				if err := json.Unmarshal(body, &out); err != nil {
					t.Fatalf("invalid json: %v", err)
				}
				if out.Message != "failed to build report" || out.ErrorDetails != "disk full" {
					t.Fatalf("unexpected body: %+v", out)
				}
			},
		},
		{
			name:   "success with defaults",
			svc:    &mockReportService{resp: sampleReport()},
			query:  "/api/v1/reports?stock=%20AMZN%20",
			status: http.StatusOK,
			assert: func(t *testing.T, svc *mockReportService, body []byte) {
				if svc.gotStock != "AMZN" || svc.gotStart != nil || svc.gotEnd != nil || svc.gotRankMethod != "" {
					t.Fatalf("unexpected service call: %+v", svc)
				}
				var out dto.ReportResponse
				if err := json.Unmarshal(body, &out); err != nil {
					t.Fatalf("invalid json: %v", err)
				}
				if out.Stock != "AMZN" || out.RankMethod != "average" || out.FlaggedOrders != 1 {
					t.Fatalf("unexpected body: %+v", out)
				}
				if len(out.TraderRanking) != 1 || out.TraderRanking[0].NumOfOrders != 10 {
					t.Fatalf("unexpected ranking: %+v", out.TraderRanking)
				}
			},
		},
		{
			name:   "success with explicit parameters",
			svc:    &mockReportService{resp: sampleReport()},
			query:  "/api/v1/reports?stock=AMZN&start_date=2020-02-01&end_date=2020-02-29&rank_method=dense",
			status: http.StatusOK,
			assert: func(t *testing.T, svc *mockReportService, body []byte) {
				if svc.gotStart == nil || svc.gotStart.Format("2006-01-02") != "2020-02-01" {
					t.Fatalf("start not passed: %v", svc.gotStart)
				}
				if svc.gotEnd == nil || svc.gotEnd.Format("2006-01-02") != "2020-02-29" {
					t.Fatalf("end not passed: %v", svc.gotEnd)
				}
				if svc.gotRankMethod != abuse.RankDense {
					t.Fatalf("rank method not passed: %q", svc.gotRankMethod)
				}
				var out dto.ReportResponse
				if err := json.Unmarshal(body, &out); err != nil {
					t.Fatalf("invalid json: %v", err)
				}
				if out.RankMethod != "dense" {
					t.Fatalf("unexpected rank method %q", out.RankMethod)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupRouterWithMock(tc.svc)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.query, nil)
			r.ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("want %d got %d, body=%s", tc.status, w.Code, w.Body.String())
			}
			if tc.assert != nil {
				tc.assert(t, tc.svc, w.Body.Bytes())
			}
		})
	}
}

type countingAnalyzer struct{ calls int }

func (a *countingAnalyzer) Analyze(_ context.Context, req abuse.Request) (*models.Report, error) {
	a.calls++
	return &models.Report{Instrument: req.Instrument, StartDate: req.Start, EndDate: req.End}, nil
}

func TestGetReport_StartAfterConfiguredEnd(t *testing.T) {
	analyzer := &countingAnalyzer{}
	svc := service.NewReportService(analyzer,
		time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 3, 31, 0, 0, 0, 0, time.UTC),
		abuse.RankAverage)
	r := setupRouterWithMock(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reports?stock=AMZN&start_date=2021-01-01", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("want 400 got %d, body=%s", w.Code, w.Body.String())
	}
	if analyzer.calls != 0 {
		t.Fatalf("analyzer ran %d times for an inverted window", analyzer.calls)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reports?stock=AMZN&end_date=2020-03-01", nil))
	if w.Code != http.StatusOK || analyzer.calls != 1 {
		t.Fatalf("want 200 with one analysis, got %d calls=%d", w.Code, analyzer.calls)
	}
}
