package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sas-fee-api/internal/dto"
	"github.com/noah-isme/sas-fee-api/internal/middleware"
	"github.com/noah-isme/sas-fee-api/internal/service"
	appErrors "github.com/noah-isme/sas-fee-api/pkg/errors"
	"github.com/noah-isme/sas-fee-api/pkg/response"
)

type feeReportService interface {
	Report(ctx context.Context, req service.ReportRequest) (*dto.FeeReportResponse, bool, error)
	UnpaidList(ctx context.Context, req service.UnpaidListRequest) (*dto.UnpaidListResponse, bool, error)
	Classes(ctx context.Context) ([]dto.ClassOption, error)
}

// FeeReportHandler wires the reconciliation service to HTTP endpoints.
type FeeReportHandler struct {
	service feeReportService
}

// NewFeeReportHandler constructs the handler.
func NewFeeReportHandler(service feeReportService) *FeeReportHandler {
	return &FeeReportHandler{service: service}
}

// Report godoc
// @Summary Aggregate fee reconciliation report
// @Tags Fees
// @Produce json
// @Param from query string false "Window start (YYYY-MM-DD)"
// @Param to query string false "Window end (YYYY-MM-DD)"
// @Param classId query string false "Restrict to one class"
// @Param search query string false "Filter by student name or NIS"
// @Success 200 {object} response.Envelope
// @Router /fees/report [get]
func (h *FeeReportHandler) Report(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	report, cacheHit, err := h.service.Report(c.Request.Context(), service.ReportRequest{
		From:    strings.TrimSpace(c.Query("from")),
		To:      strings.TrimSpace(c.Query("to")),
		ClassID: strings.TrimSpace(c.Query("classId")),
		Search:  strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, report, meta)
}

// UnpaidList godoc
// @Summary Students with outstanding fees
// @Tags Fees
// @Produce json
// @Param from query string false "Window start (YYYY-MM-DD)"
// @Param to query string false "Window end (YYYY-MM-DD)"
// @Param classId query string false "Restrict to one class"
// @Param search query string false "Filter by student name or NIS"
// @Success 200 {object} response.Envelope
// @Router /fees/unpaid [get]
func (h *FeeReportHandler) UnpaidList(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	list, cacheHit, err := h.service.UnpaidList(c.Request.Context(), service.UnpaidListRequest{
		From:    strings.TrimSpace(c.Query("from")),
		To:      strings.TrimSpace(c.Query("to")),
		ClassID: strings.TrimSpace(c.Query("classId")),
		Search:  strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, list, meta)
}

// Classes godoc
// @Summary Active classes for report filters
// @Tags Fees
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /fees/classes [get]
func (h *FeeReportHandler) Classes(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	options, err := h.service.Classes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options)
}
