package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sas-fee-api/internal/models"
	appErrors "github.com/noah-isme/sas-fee-api/pkg/errors"
)

type stubCacheRepo struct {
	store map[string][]byte
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	if s.store == nil {
		return appErrors.ErrCacheMiss
	}
	data, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = map[string][]byte{}
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = data
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(context.Context, string) error {
	s.store = nil
	return nil
}

type fakeStudents struct {
	students   []models.StudentDetail
	err        error
	lastFilter models.StudentFilter
}

func (f *fakeStudents) List(_ context.Context, filter models.StudentFilter) ([]models.StudentDetail, error) {
	f.lastFilter = filter
	return f.students, f.err
}

type fakeSchedule struct {
	entries []models.FeeScheduleEntry
	err     error
}

func (f *fakeSchedule) ListActive(context.Context, string) ([]models.FeeScheduleEntry, error) {
	return f.entries, f.err
}

type fakeTransactions struct {
	txns []models.FeeTransaction
	err  error
}

func (f *fakeTransactions) ListForReconciliation(context.Context, models.FeeTransactionFilter) ([]models.FeeTransaction, error) {
	return f.txns, f.err
}

type fakeClasses struct {
	classes []models.Class
	err     error
}

func (f *fakeClasses) ListActive(context.Context) ([]models.Class, error) {
	return f.classes, f.err
}

func reportFixtureService(cache *CacheService) (*FeeReportService, *fakeStudents) {
	admitted := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	march := 3
	roster := &fakeStudents{students: []models.StudentDetail{
		{Student: models.Student{ID: "s1", NIS: "2024001", FullName: "Asha Putri", ClassID: "c1", AdmissionDate: &admitted}, ClassName: "Grade 7A"},
		{Student: models.Student{ID: "s2", NIS: "2024002", FullName: "Budi Santoso", ClassID: "c1", AdmissionDate: &admitted}, ClassName: "Grade 7A"},
	}}
	svc := NewFeeReportService(FeeReportServiceParams{
		Students: roster,
		Schedule: &fakeSchedule{entries: []models.FeeScheduleEntry{
			{ID: "f1", ClassID: "c1", FeeType: models.FeeTypeMonthly, Amount: 1000, EffectiveFrom: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Active: true},
		}},
		Transactions: &fakeTransactions{txns: []models.FeeTransaction{
			{ID: "t1", StudentID: "s1", FeeType: models.FeeTypeMonthly, Month: &march, Year: 2024, Amount: 1000, Status: models.FeeTxnVerified, PaidAt: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)},
		}},
		Classes: &fakeClasses{classes: []models.Class{{ID: "c1", Name: "Grade 7A", Active: true}}},
		Cache:   cache,
		Logger:  zap.NewNop(),
		Config:  FeeReportServiceConfig{TopUnpaidLimit: 10, DefaultWindowMonths: 6},
	})
	svc.now = func() time.Time { return time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC) }
	return svc, roster
}

func TestFeeReportServiceReport(t *testing.T) {
	svc, _ := reportFixtureService(nil)

	report, hit, err := svc.Report(context.Background(), ReportRequest{From: "2024-03-01", To: "2024-05-31"})
	require.NoError(t, err)
	assert.False(t, hit)

	// Two students owe Mar, Apr and May at 1000 each; one March payment
	// of 1000 is verified.
	assert.Equal(t, 6000.0, report.Totals.Expected)
	assert.Equal(t, 1000.0, report.Totals.Collected)
	assert.Equal(t, 5000.0, report.Totals.Unpaid)
	require.Len(t, report.Trend, 3)
	assert.Equal(t, "Mar 2024", report.Trend[0].Month)
	assert.Equal(t, 1000.0, report.Trend[0].Collected)
	require.Len(t, report.TopUnpaid, 2)
	assert.Equal(t, "2024002", report.TopUnpaid[0].NIS)
	require.Len(t, report.Classes, 1)
	assert.Equal(t, "Grade 7A", report.Classes[0].ClassName)
}

func TestFeeReportServiceReportCaches(t *testing.T) {
	cacheRepo := &stubCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc, _ := reportFixtureService(cache)

	_, hit, err := svc.Report(context.Background(), ReportRequest{From: "2024-03-01", To: "2024-05-31"})
	require.NoError(t, err)
	assert.False(t, hit)

	cached, hit, err := svc.Report(context.Background(), ReportRequest{From: "2024-03-01", To: "2024-05-31"})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 6000.0, cached.Totals.Expected)
}

func TestFeeReportServiceReportSearchFilter(t *testing.T) {
	cacheRepo := &stubCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc, roster := reportFixtureService(cache)

	_, hit, err := svc.Report(context.Background(), ReportRequest{From: "2024-03-01", To: "2024-05-31", Search: "asha"})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "asha", roster.lastFilter.Search)

	// A different search term must not reuse the cached payload.
	_, hit, err = svc.Report(context.Background(), ReportRequest{From: "2024-03-01", To: "2024-05-31", Search: "budi"})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "budi", roster.lastFilter.Search)

	_, hit, err = svc.Report(context.Background(), ReportRequest{From: "2024-03-01", To: "2024-05-31", Search: "asha"})
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestFeeReportServiceRejectsInvalidWindow(t *testing.T) {
	svc, _ := reportFixtureService(nil)

	_, _, err := svc.Report(context.Background(), ReportRequest{From: "2024-07-01", To: "2024-03-31"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInvalidWindow.Code, appErr.Code)

	_, _, err = svc.Report(context.Background(), ReportRequest{From: "03-01-2024"})
	require.Error(t, err)
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInvalidWindow.Code, appErr.Code)
}

func TestFeeReportServiceDefaultWindow(t *testing.T) {
	svc, _ := reportFixtureService(nil)

	report, _, err := svc.Report(context.Background(), ReportRequest{})
	require.NoError(t, err)
	// Six trailing months ending at the clock: Dec 2023 through May 2024.
	assert.Equal(t, "2023-12-01", report.From)
	assert.Equal(t, "2024-05-31", report.To)
	require.Len(t, report.Trend, 6)
}

func TestFeeReportServiceUnpaidList(t *testing.T) {
	svc, _ := reportFixtureService(nil)

	list, hit, err := svc.UnpaidList(context.Background(), UnpaidListRequest{From: "2024-03-01", To: "2024-03-31"})
	require.NoError(t, err)
	assert.False(t, hit)
	// Student s1 paid March in full; only s2 still owes.
	require.Len(t, list.Students, 1)
	assert.Equal(t, "s2", list.Students[0].StudentID)
	assert.Equal(t, 1000.0, list.Students[0].Due)
	assert.Equal(t, []string{"Mar 2024"}, list.Students[0].UnpaidPeriods)
	assert.Equal(t, 1, list.Total)
}

func TestFeeReportServiceClasses(t *testing.T) {
	svc, _ := reportFixtureService(nil)

	options, err := svc.Classes(context.Background())
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, "Grade 7A", options[0].Name)
}
