package abuse

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/guttosm/mktabuse/internal/domain/models"
)

// OrderSource supplies the raw trader order log.
type OrderSource interface {
	LoadOrders(ctx context.Context) ([]models.Order, error)
}

// BarSource supplies daily price bars for one instrument over an inclusive date range.
type BarSource interface {
	FetchBars(ctx context.Context, instrument string, start, end time.Time) ([]models.PriceBar, error)
}

// ReportSink persists a finished report.
type ReportSink interface {
	WriteReport(ctx context.Context, report *models.Report) error
}

// Request selects what a single run analyses.
type Request struct {
	Instrument string
	Start      time.Time
	End        time.Time
	// RankMethod overrides Options.RankMethod when set.
	RankMethod RankMethod
}

// Validate reports an ErrInvalidRequest when the instrument is missing or the
// window ends before it starts.
func (r Request) Validate() error {
	if r.Instrument == "" {
		return fmt.Errorf("%w: instrument is required", ErrInvalidRequest)
	}
	if TruncateToDate(r.End).Before(TruncateToDate(r.Start)) {
		return fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidRequest,
			r.End.Format(models.DateLayout), r.Start.Format(models.DateLayout))
	}
	return nil
}

// Options tunes pipeline behavior.
//
// Fields:
//   - RankMethod: tie policy for the trader ranking (default RankAverage).
//   - StrictDuplicates: turn duplicate price bars into a fatal error.
//   - RequireNonEmpty: fail with ErrEmptyInput when nothing is flagged.
//   - Parallel: instruments analysed concurrently by RunAll (0 = min(4, NumCPU)).
//   - Sessions: optional trading calendar used to warn about missing bars.
type Options struct {
	RankMethod       RankMethod
	StrictDuplicates bool
	RequireNonEmpty  bool
	Parallel         int
	Sessions         func(start, end time.Time) []time.Time
}

// Pipeline wires the collaborators around the detection core:
// orders + bars → normalize → detect → filter → aggregate → sink.
type Pipeline struct {
	orders OrderSource
	bars   BarSource
	sink   ReportSink
	opts   Options
	log    zerolog.Logger
}

// NewPipeline builds a Pipeline. sink may be nil, in which case reports are only returned.
func NewPipeline(orders OrderSource, bars BarSource, sink ReportSink, opts Options, log zerolog.Logger) *Pipeline {
	if opts.RankMethod == "" {
		opts.RankMethod = RankAverage
	}
	return &Pipeline{orders: orders, bars: bars, sink: sink, opts: opts, log: log}
}

// Run loads the order log, analyses one instrument and writes the report to the sink.
func (p *Pipeline) Run(ctx context.Context, req Request) (*models.Report, error) {
	orders, err := p.orders.LoadOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	report, err := p.analyze(ctx, req, orders)
	if err != nil {
		return nil, err
	}
	if err := p.write(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// Analyze is Run without the sink.
func (p *Pipeline) Analyze(ctx context.Context, req Request) (*models.Report, error) {
	orders, err := p.orders.LoadOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	return p.analyze(ctx, req, orders)
}

// RunAll analyses several instruments over the same window.
//
// Behavior:
//   - The order log is loaded once and shared read-only between runs.
//   - Analyses are independent and execute concurrently (see Options.Parallel).
//   - The first failing analysis cancels the others and its error is returned.
//   - Reports reach the sink only after every analysis succeeded, one at a
//     time in the order of instruments.
//
// Reports are returned in the order of instruments.
func (p *Pipeline) RunAll(ctx context.Context, instruments []string, start, end time.Time) ([]*models.Report, error) {
	orders, err := p.orders.LoadOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	maxParallel := p.opts.Parallel
	if maxParallel <= 0 {
		maxParallel = 4
		if c := runtime.NumCPU(); c < maxParallel {
			maxParallel = c
		}
	}
	p.log.Info().Int("instruments", len(instruments)).Int("max_parallel", maxParallel).Int("orders", len(orders)).Msg("detection configured")

	reports := make([]*models.Report, len(instruments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)

	for i, instrument := range instruments {
		g.Go(func() error {
			report, err := p.analyze(gctx, Request{Instrument: instrument, Start: start, End: end}, orders)
			if err != nil {
				return fmt.Errorf("%s: %w", instrument, err)
			}
			reports[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, report := range reports {
		if err := p.write(ctx, report); err != nil {
			return nil, fmt.Errorf("%s: %w", report.Instrument, err)
		}
	}
	return reports, nil
}

func (p *Pipeline) analyze(ctx context.Context, req Request, orders []models.Order) (*models.Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	method := p.opts.RankMethod
	if req.RankMethod != "" {
		method = req.RankMethod
	}

	log := p.log.With().Str("instrument", req.Instrument).Logger()
	start := time.Now()

	bars, err := p.bars.FetchBars(ctx, req.Instrument, req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("fetch price bars: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	normalized, err := NormalizeOrders(orders, req.Instrument, req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("normalize orders: %w", err)
	}
	normBars := NormalizePriceBars(bars)

	report := &models.Report{
		Instrument:  req.Instrument,
		StartDate:   TruncateToDate(req.Start),
		EndDate:     TruncateToDate(req.End),
		TotalOrders: len(normalized),
	}

	detection := Detect(normalized, normBars)
	if len(detection.Duplicates) > 0 {
		dupErr := &DuplicateReferenceDataError{Instrument: req.Instrument, Dates: detection.Duplicates}
		if p.opts.StrictDuplicates {
			return nil, dupErr
		}
		log.Warn().Err(dupErr).Int("duplicates", len(detection.Duplicates)).Msg("duplicate reference data")
		report.Warnings = append(report.Warnings, dupErr)
	}
	if p.opts.Sessions != nil {
		if gaps := missingSessions(p.opts.Sessions(req.Start, req.End), normBars); len(gaps) > 0 {
			log.Warn().Int("missing_sessions", len(gaps)).Str("first_missing", gaps[0].Format(models.DateLayout)).Msg("price data has gaps on expected trading days")
		}
	}

	abusive := FilterAbusive(detection.Orders)
	report.FlaggedOrders = len(abusive)

	if len(abusive) == 0 {
		if p.opts.RequireNonEmpty {
			return nil, ErrEmptyInput
		}
		log.Warn().Err(ErrEmptyResult).Msg("empty result")
		report.Warnings = append(report.Warnings, ErrEmptyResult)
	}

	report.Traders = RankByOrders(abusive, method)
	report.Countries = FindCountByCountry(abusive)

	log.Info().
		Int("orders", report.TotalOrders).
		Int("bars", len(normBars)).
		Int("flagged", report.FlaggedOrders).
		Int("traders", len(report.Traders)).
		Int("countries", len(report.Countries)).
		Dur("elapsed", time.Since(start)).
		Msg("detection done")

	return report, nil
}

func (p *Pipeline) write(ctx context.Context, report *models.Report) error {
	if p.sink == nil {
		return nil
	}
	if err := p.sink.WriteReport(ctx, report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// missingSessions returns the expected sessions that have no bar.
func missingSessions(sessions []time.Time, bars []models.PriceBar) []time.Time {
	have := make(map[string]struct{}, len(bars))
	for _, b := range bars {
		have[b.DateKey()] = struct{}{}
	}
	var out []time.Time
	for _, s := range sessions {
		if _, ok := have[s.Format(models.DateLayout)]; !ok {
			out = append(out, s)
		}
	}
	return out
}
