package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sas-fee-api/internal/dto"
	"github.com/noah-isme/sas-fee-api/internal/feeengine"
	"github.com/noah-isme/sas-fee-api/internal/models"
	appErrors "github.com/noah-isme/sas-fee-api/pkg/errors"
)

const windowDateLayout = "2006-01-02"

type studentLister interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, error)
}

type feeScheduleLister interface {
	ListActive(ctx context.Context, classID string) ([]models.FeeScheduleEntry, error)
}

type feeTransactionLister interface {
	ListForReconciliation(ctx context.Context, filter models.FeeTransactionFilter) ([]models.FeeTransaction, error)
}

type classLister interface {
	ListActive(ctx context.Context) ([]models.Class, error)
}

// FeeReportServiceConfig tunes reconciliation behaviour.
type FeeReportServiceConfig struct {
	CacheTTL            time.Duration
	TopUnpaidLimit      int
	DefaultWindowMonths int
	HonorEffectiveDates bool
}

// FeeReportService loads roster, schedule and ledger snapshots, runs the
// reconciliation engine over them and shapes the output for the API.
type FeeReportService struct {
	students     studentLister
	schedule     feeScheduleLister
	transactions feeTransactionLister
	classes      classLister
	engine       *feeengine.Engine
	cache        *CacheService
	metrics      *MetricsService
	logger       *zap.Logger
	now          func() time.Time
	cfg          FeeReportServiceConfig
}

// FeeReportServiceParams groups constructor dependencies.
type FeeReportServiceParams struct {
	Students     studentLister
	Schedule     feeScheduleLister
	Transactions feeTransactionLister
	Classes      classLister
	Cache        *CacheService
	Metrics      *MetricsService
	Logger       *zap.Logger
	Config       FeeReportServiceConfig
}

// NewFeeReportService constructs a FeeReportService with sane defaults.
func NewFeeReportService(params FeeReportServiceParams) *FeeReportService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.TopUnpaidLimit <= 0 {
		cfg.TopUnpaidLimit = 10
	}
	if cfg.DefaultWindowMonths <= 0 {
		cfg.DefaultWindowMonths = 6
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeReportService{
		students:     params.Students,
		schedule:     params.Schedule,
		transactions: params.Transactions,
		classes:      params.Classes,
		engine: feeengine.New(feeengine.Options{
			HonorEffectiveDates: cfg.HonorEffectiveDates,
			TopUnpaidLimit:      cfg.TopUnpaidLimit,
		}),
		cache:   params.Cache,
		metrics: params.Metrics,
		logger:  logger,
		now:     time.Now,
		cfg:     cfg,
	}
}

// ReportRequest bounds one aggregate report run.
type ReportRequest struct {
	From    string
	To      string
	ClassID string
	Search  string
}

// UnpaidListRequest bounds one unpaid-list run.
type UnpaidListRequest struct {
	From    string
	To      string
	ClassID string
	Search  string
}

// Report returns the aggregate reconciliation report and indicates cache
// utilisation.
func (s *FeeReportService) Report(ctx context.Context, req ReportRequest) (*dto.FeeReportResponse, bool, error) {
	window, err := s.resolveWindow(req.From, req.To)
	if err != nil {
		return nil, false, err
	}

	cacheKey := fmt.Sprintf("fees:report:%s:%s:%s:%s",
		window.Start.Format(windowDateLayout), window.End.Format(windowDateLayout), req.ClassID, req.Search)
	if s.cache != nil {
		var cached dto.FeeReportResponse
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			return nil, false, err
		}
		if hit {
			return &cached, true, nil
		}
	}

	inputs, students, err := s.loadInputs(ctx, window, req.ClassID, req.Search)
	if err != nil {
		return nil, false, err
	}

	start := s.now()
	report := s.engine.Report(inputs)
	if s.metrics != nil {
		s.metrics.ObserveReconciliation(len(inputs.Students), time.Since(start))
	}

	resp := s.buildReportResponse(window, report, students)
	s.persistCache(ctx, cacheKey, resp)
	return resp, false, nil
}

// UnpaidList returns students that still owe inside the window, in roster
// order.
func (s *FeeReportService) UnpaidList(ctx context.Context, req UnpaidListRequest) (*dto.UnpaidListResponse, bool, error) {
	window, err := s.resolveWindow(req.From, req.To)
	if err != nil {
		return nil, false, err
	}

	cacheKey := fmt.Sprintf("fees:unpaid:%s:%s:%s:%s",
		window.Start.Format(windowDateLayout), window.End.Format(windowDateLayout), req.ClassID, req.Search)
	if s.cache != nil {
		var cached dto.UnpaidListResponse
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			return nil, false, err
		}
		if hit {
			return &cached, true, nil
		}
	}

	inputs, students, err := s.loadInputs(ctx, window, req.ClassID, req.Search)
	if err != nil {
		return nil, false, err
	}

	start := s.now()
	results := s.engine.UnpaidList(inputs)
	if s.metrics != nil {
		s.metrics.ObserveReconciliation(len(inputs.Students), time.Since(start))
	}

	resp := &dto.UnpaidListResponse{
		From:     window.Start.Format(windowDateLayout),
		To:       window.End.Format(windowDateLayout),
		Students: s.toReconciliations(results, students),
		Total:    len(results),
	}
	s.persistCache(ctx, cacheKey, resp)
	return resp, false, nil
}

// Classes lists active classes for report filter dropdowns.
func (s *FeeReportService) Classes(ctx context.Context) ([]dto.ClassOption, error) {
	classes, err := s.classes.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	options := make([]dto.ClassOption, 0, len(classes))
	for _, class := range classes {
		options = append(options, dto.ClassOption{ID: class.ID, Name: class.Name})
	}
	return options, nil
}

// resolveWindow parses the requested range, filling defaults from the
// configured trailing-month span. An inverted range is a caller mistake and
// is rejected here; the engine itself treats it as a valid empty window.
func (s *FeeReportService) resolveWindow(from, to string) (feeengine.Window, error) {
	now := s.now().UTC()
	window := feeengine.Window{
		Start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(s.cfg.DefaultWindowMonths - 1), 0),
		End:   now,
	}
	if from != "" {
		parsed, err := time.Parse(windowDateLayout, from)
		if err != nil {
			return feeengine.Window{}, appErrors.Clone(appErrors.ErrInvalidWindow, "from must be formatted YYYY-MM-DD")
		}
		window.Start = parsed
	}
	if to != "" {
		parsed, err := time.Parse(windowDateLayout, to)
		if err != nil {
			return feeengine.Window{}, appErrors.Clone(appErrors.ErrInvalidWindow, "to must be formatted YYYY-MM-DD")
		}
		window.End = parsed
	}
	if window.Empty() {
		return feeengine.Window{}, appErrors.Clone(appErrors.ErrInvalidWindow, "from must not be after to")
	}
	return window, nil
}

func (s *FeeReportService) loadInputs(ctx context.Context, window feeengine.Window, classID, search string) (feeengine.Inputs, map[string]models.StudentDetail, error) {
	active := true
	students, err := s.students.List(ctx, models.StudentFilter{ClassID: classID, Search: search, Active: &active})
	if err != nil {
		return feeengine.Inputs{}, nil, err
	}
	schedule, err := s.schedule.ListActive(ctx, classID)
	if err != nil {
		return feeengine.Inputs{}, nil, err
	}
	transactions, err := s.transactions.ListForReconciliation(ctx, models.FeeTransactionFilter{
		Years:   yearsInWindow(window),
		ClassID: classID,
	})
	if err != nil {
		return feeengine.Inputs{}, nil, err
	}

	byID := make(map[string]models.StudentDetail, len(students))
	engineStudents := make([]feeengine.Student, 0, len(students))
	for _, stu := range students {
		byID[stu.ID] = stu
		engineStudents = append(engineStudents, feeengine.Student{
			ID:         stu.ID,
			Name:       stu.FullName,
			ClassID:    stu.ClassID,
			ClassName:  stu.ClassName,
			AdmittedAt: stu.AdmittedAt(),
		})
	}

	engineSchedule := make([]feeengine.ScheduleEntry, 0, len(schedule))
	for _, entry := range schedule {
		engineSchedule = append(engineSchedule, feeengine.ScheduleEntry{
			ClassID:       entry.ClassID,
			Type:          feeengine.FeeType(entry.FeeType),
			Amount:        entry.Amount,
			EffectiveFrom: entry.EffectiveFrom,
		})
	}

	engineTxns := make([]feeengine.Transaction, 0, len(transactions))
	for _, txn := range transactions {
		var month time.Month
		if txn.Month != nil {
			month = time.Month(*txn.Month)
		}
		engineTxns = append(engineTxns, feeengine.Transaction{
			StudentID: txn.StudentID,
			Type:      feeengine.FeeType(txn.FeeType),
			Month:     month,
			Year:      txn.Year,
			Amount:    txn.Amount,
			Status:    feeengine.TransactionStatus(txn.Status),
			PaidAt:    txn.PaidAt,
		})
	}

	return feeengine.Inputs{
		Window:       window,
		AsOf:         s.now().UTC(),
		Students:     engineStudents,
		Schedule:     engineSchedule,
		Transactions: engineTxns,
	}, byID, nil
}

func (s *FeeReportService) buildReportResponse(window feeengine.Window, report feeengine.Report, students map[string]models.StudentDetail) *dto.FeeReportResponse {
	resp := &dto.FeeReportResponse{
		From: window.Start.Format(windowDateLayout),
		To:   window.End.Format(windowDateLayout),
		Totals: dto.FeeTotals{
			Collected: report.Totals.Collected,
			Pending:   report.Totals.Pending,
			Expected:  report.Totals.Expected,
			Unpaid:    report.Totals.Unpaid,
		},
		TopUnpaid: s.toReconciliations(report.TopUnpaid, students),
	}
	resp.Trend = make([]dto.TrendPoint, 0, len(report.Trend))
	for _, point := range report.Trend {
		resp.Trend = append(resp.Trend, dto.TrendPoint{
			Month:     point.Label,
			Collected: point.Collected,
			Pending:   point.Pending,
			Unpaid:    point.Unpaid,
		})
	}
	resp.Classes = make([]dto.ClassCollection, 0, len(report.Classes))
	for _, class := range report.Classes {
		resp.Classes = append(resp.Classes, dto.ClassCollection{
			ClassID:   class.ClassID,
			ClassName: class.ClassName,
			Collected: class.Collected,
			Pending:   class.Pending,
		})
	}
	return resp
}

func (s *FeeReportService) toReconciliations(results []feeengine.Result, students map[string]models.StudentDetail) []dto.StudentReconciliation {
	out := make([]dto.StudentReconciliation, 0, len(results))
	for _, res := range results {
		rec := dto.StudentReconciliation{
			StudentID:     res.StudentID,
			StudentName:   res.StudentName,
			ClassID:       res.ClassID,
			ClassName:     res.ClassName,
			Expected:      res.Expected,
			Collected:     res.Collected,
			Pending:       res.Pending,
			Due:           res.Due,
			UnpaidPeriods: res.UnpaidLabels,
			UnpaidSummary: res.UnpaidSummary,
		}
		if stu, ok := students[res.StudentID]; ok {
			rec.NIS = stu.NIS
		}
		out = append(out, rec)
	}
	return out
}

func (s *FeeReportService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil && s.logger != nil {
		s.logger.Warn("fee report cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// yearsInWindow lists every calendar year the window touches so the ledger
// fetch covers late payments recorded in any of them.
func yearsInWindow(w feeengine.Window) []int {
	if w.Empty() {
		return nil
	}
	years := make([]int, 0, w.End.Year()-w.Start.Year()+1)
	for y := w.Start.Year(); y <= w.End.Year(); y++ {
		years = append(years, y)
	}
	return years
}
