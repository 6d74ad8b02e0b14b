// Package handler 提供 HTTP 请求处理器
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Be1newinner/ask-guruji/internal/application/ingest"
	"github.com/Be1newinner/ask-guruji/internal/application/status"
	"github.com/Be1newinner/ask-guruji/internal/interfaces/http/dto"
	apperrors "github.com/Be1newinner/ask-guruji/pkg/errors"
	"github.com/Be1newinner/ask-guruji/pkg/logger"
)

// StatusHandler 服务状态与摄取任务处理器
type StatusHandler struct {
	store     *status.Store
	ingestSvc *ingest.Service
}

// NewStatusHandler 创建状态处理器
func NewStatusHandler(store *status.Store, ingestSvc *ingest.Service) *StatusHandler {
	return &StatusHandler{
		store:     store,
		ingestSvc: ingestSvc,
	}
}

// Status 服务状态
// @Summary 服务状态
// @Description 返回运行时长与最近一次索引时间
// @Tags System
// @Produce json
// @Success 200 {object} dto.StatusResponse
// @Router /status [get]
func (h *StatusHandler) Status(c *gin.Context) {
	snap := h.store.Snapshot()
	c.JSON(200, dto.StatusResponse{
		Uptime:      snap.Uptime,
		Status:      snap.Status,
		LastIndexed: snap.LastIndexed,
	})
}

// GetJob 获取摄取任务
// @Summary 获取摄取任务
// @Description 按 ID 获取摄取任务记录与进度
// @Tags Jobs
// @Produce json
// @Param id path string true "任务 ID"
// @Success 200 {object} dto.JobResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /jobs/{id} [get]
func (h *StatusHandler) GetJob(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	job, err := h.ingestSvc.GetJob(ctx, id)
	if err != nil {
		logger.Error(ctx, "failed to get ingest job", err, "job_id", id)
		dto.InternalError(c, "failed to get ingest job")
		return
	}
	if job == nil {
		dto.Fail(c, apperrors.ErrJobNotFound)
		return
	}
	c.JSON(200, dto.NewJobResponse(job))
}

// ListJobs 最近的摄取任务
// @Summary 最近的摄取任务
// @Description 按创建时间倒序列出最近的摄取任务
// @Tags Jobs
// @Produce json
// @Param limit query int false "返回条数，默认 20"
// @Success 200 {object} []dto.JobResponse
// @Router /jobs [get]
func (h *StatusHandler) ListJobs(c *gin.Context) {
	ctx := c.Request.Context()

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	jobs, err := h.ingestSvc.ListRecentJobs(ctx, limit)
	if err != nil {
		logger.Error(ctx, "failed to list ingest jobs", err)
		dto.InternalError(c, "failed to list ingest jobs")
		return
	}

	out := make([]*dto.JobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, dto.NewJobResponse(job))
	}
	c.JSON(200, out)
}
