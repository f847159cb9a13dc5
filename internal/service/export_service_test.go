package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sas-fee-api/internal/dto"
	"github.com/noah-isme/sas-fee-api/internal/models"
	"github.com/noah-isme/sas-fee-api/internal/repository"
	appErrors "github.com/noah-isme/sas-fee-api/pkg/errors"
	"github.com/noah-isme/sas-fee-api/pkg/jobs"
	"github.com/noah-isme/sas-fee-api/pkg/storage"
)

type memoryJobStore struct {
	mu     sync.Mutex
	jobs   map[string]*models.ExportJob
	nextID int
}

func newMemoryJobStore() *memoryJobStore {
	return &memoryJobStore{jobs: map[string]*models.ExportJob{}}
}

func (s *memoryJobStore) Create(_ context.Context, job *models.ExportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.ID == "" {
		s.nextID++
		job.ID = fmt.Sprintf("job-%d", s.nextID)
	}
	job.CreatedAt = time.Now().UTC()
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *memoryJobStore) GetByID(_ context.Context, id string) (*models.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	copied := *job
	return &copied, nil
}

func (s *memoryJobStore) Update(_ context.Context, id string, params repository.UpdateExportJobParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return errors.New("not found")
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (s *memoryJobStore) ListQueued(_ context.Context, _ int) ([]models.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var queued []models.ExportJob
	for _, job := range s.jobs {
		if job.Status == models.ExportStatusQueued {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

func (s *memoryJobStore) ListFinishedBefore(_ context.Context, _ time.Time, _ int) ([]models.ExportJob, error) {
	return nil, nil
}

type captureDispatcher struct {
	enqueued []jobs.Job
	err      error
}

func (d *captureDispatcher) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.enqueued = append(d.enqueued, job)
	return nil
}

type reportsStub struct{}

func (reportsStub) Report(_ context.Context, req ReportRequest) (*dto.FeeReportResponse, bool, error) {
	return &dto.FeeReportResponse{
		From:   req.From,
		To:     req.To,
		Totals: dto.FeeTotals{Collected: 3000, Pending: 500, Expected: 6000, Unpaid: 2500},
		Trend: []dto.TrendPoint{
			{Month: "Mar 2024", Collected: 1500, Pending: 0, Unpaid: 500},
			{Month: "Apr 2024", Collected: 1500, Pending: 500, Unpaid: 2000},
		},
	}, false, nil
}

func (reportsStub) UnpaidList(_ context.Context, req UnpaidListRequest) (*dto.UnpaidListResponse, bool, error) {
	return &dto.UnpaidListResponse{
		From: req.From,
		To:   req.To,
		Students: []dto.StudentReconciliation{
			{
				StudentID:     "s1",
				NIS:           "2024001",
				StudentName:   "Asha",
				ClassName:     "Grade 7A",
				Expected:      2000,
				Collected:     1000,
				Due:           1000,
				UnpaidPeriods: []string{"Apr 2024"},
				UnpaidSummary: "Apr 2024 (1 Months)",
			},
		},
		Total: 1,
	}, false, nil
}

func newExportServiceForTest(t *testing.T, dispatcher jobDispatcher) (*ExportService, *memoryJobStore, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := newMemoryJobStore()
	svc := NewExportService(ExportServiceParams{
		Repo:    repo,
		Reports: reportsStub{},
		Queue:   dispatcher,
		Storage: store,
		Signer:  storage.NewSignedURLSigner("secret", time.Hour),
		Logger:  zap.NewNop(),
		Config: ExportServiceConfig{
			Enabled:   true,
			APIPrefix: "/api/v1",
			ResultTTL: time.Hour,
		},
	})
	return svc, repo, store
}

func TestExportServiceCreateJob(t *testing.T) {
	dispatcher := &captureDispatcher{}
	svc, repo, _ := newExportServiceForTest(t, dispatcher)

	resp, err := svc.CreateJob(context.Background(), dto.ExportRequest{
		Type:   "unpaid_list",
		Format: "csv",
		From:   "2024-03-01",
		To:     "2024-07-31",
	}, "admin")
	require.NoError(t, err)
	require.NotEmpty(t, resp.JobID)
	assert.Equal(t, string(models.ExportStatusQueued), resp.Status)
	require.Len(t, dispatcher.enqueued, 1)
	assert.Equal(t, resp.JobID, dispatcher.enqueued[0].ID)

	stored, err := repo.GetByID(context.Background(), resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, "admin", stored.CreatedBy)
	assert.Equal(t, models.ExportFormatCSV, stored.Params.Format)
}

func TestExportServiceCreateJobDisabled(t *testing.T) {
	dispatcher := &captureDispatcher{}
	svc, _, _ := newExportServiceForTest(t, dispatcher)
	svc.cfg.Enabled = false

	_, err := svc.CreateJob(context.Background(), dto.ExportRequest{Type: "unpaid_list", Format: "csv"}, "admin")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrExportsDisabled.Code, appErr.Code)
}

func TestExportServiceCreateJobMarksFailedOnEnqueueError(t *testing.T) {
	dispatcher := &captureDispatcher{err: errors.New("queue full")}
	svc, repo, _ := newExportServiceForTest(t, dispatcher)

	_, err := svc.CreateJob(context.Background(), dto.ExportRequest{Type: "fee_report", Format: "pdf"}, "admin")
	require.Error(t, err)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Len(t, repo.jobs, 1)
	for _, job := range repo.jobs {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
		require.NotNil(t, job.FinishedAt)
	}
}

func TestExportServiceGetStatusOwnership(t *testing.T) {
	dispatcher := &captureDispatcher{}
	svc, repo, _ := newExportServiceForTest(t, dispatcher)

	job := &models.ExportJob{
		Type:      models.ExportTypeUnpaidList,
		Params:    models.ExportJobParams{Format: models.ExportFormatCSV},
		Status:    models.ExportStatusQueued,
		CreatedBy: "owner",
	}
	require.NoError(t, repo.Create(context.Background(), job))

	_, err := svc.GetStatus(context.Background(), job.ID, "someone-else", models.RoleAccountant)
	require.Error(t, err)

	status, err := svc.GetStatus(context.Background(), job.ID, "someone-else", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, string(models.ExportStatusQueued), status.Status)
}

func TestExportServiceGenerateCSV(t *testing.T) {
	dispatcher := &captureDispatcher{}
	svc, repo, store := newExportServiceForTest(t, dispatcher)

	job := &models.ExportJob{
		Type:      models.ExportTypeUnpaidList,
		Params:    models.ExportJobParams{From: "2024-03-01", To: "2024-07-31", Format: models.ExportFormatCSV},
		Status:    models.ExportStatusQueued,
		CreatedBy: "admin",
	}
	require.NoError(t, repo.Create(context.Background(), job))

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.NotEmpty(t, result.RelativePath)
	assert.Contains(t, result.URL, "/api/v1/fees/export/")

	info, err := os.Stat(store.Path(result.RelativePath))
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceGeneratePDF(t *testing.T) {
	dispatcher := &captureDispatcher{}
	svc, repo, store := newExportServiceForTest(t, dispatcher)

	job := &models.ExportJob{
		Type:      models.ExportTypeFeeReport,
		Params:    models.ExportJobParams{From: "2024-03-01", To: "2024-07-31", Format: models.ExportFormatPDF},
		Status:    models.ExportStatusQueued,
		CreatedBy: "admin",
	}
	require.NoError(t, repo.Create(context.Background(), job))

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, models.ExportFormatPDF, result.Format)

	info, err := os.Stat(store.Path(result.RelativePath))
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportWorkerLifecycle(t *testing.T) {
	dispatcher := &captureDispatcher{}
	svc, repo, _ := newExportServiceForTest(t, dispatcher)
	worker := NewExportWorker(repo, svc, 3, zap.NewNop())

	job := &models.ExportJob{
		Type:      models.ExportTypeUnpaidList,
		Params:    models.ExportJobParams{From: "2024-03-01", To: "2024-07-31", Format: models.ExportFormatCSV},
		Status:    models.ExportStatusQueued,
		CreatedBy: "admin",
	}
	require.NoError(t, repo.Create(context.Background(), job))

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: job.ID, Type: string(job.Type)}))

	finished, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, finished.Status)
	assert.Equal(t, 100, finished.Progress)
	require.NotNil(t, finished.ResultURL)
	require.NotNil(t, finished.FinishedAt)
}

func TestExportServiceResolveDownload(t *testing.T) {
	dispatcher := &captureDispatcher{}
	svc, repo, _ := newExportServiceForTest(t, dispatcher)
	worker := NewExportWorker(repo, svc, 3, zap.NewNop())

	job := &models.ExportJob{
		Type:      models.ExportTypeUnpaidList,
		Params:    models.ExportJobParams{From: "2024-03-01", To: "2024-07-31", Format: models.ExportFormatCSV},
		Status:    models.ExportStatusQueued,
		CreatedBy: "admin",
	}
	require.NoError(t, repo.Create(context.Background(), job))
	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: job.ID}))

	stored, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ResultURL)
	token := extractToken(*stored.ResultURL)
	require.NotEmpty(t, token)

	download, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, models.ExportFormatCSV, download.Format)

	_, err = svc.ResolveDownload(context.Background(), "not-a-token")
	require.Error(t, err)
}
