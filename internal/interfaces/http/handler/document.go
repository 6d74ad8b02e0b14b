// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Be1newinner/ask-guruji/internal/application/ingest"
	"github.com/Be1newinner/ask-guruji/internal/application/knowledge"
	"github.com/Be1newinner/ask-guruji/internal/infrastructure/pdf"
	"github.com/Be1newinner/ask-guruji/internal/interfaces/http/dto"
	apperrors "github.com/Be1newinner/ask-guruji/pkg/errors"
	"github.com/Be1newinner/ask-guruji/pkg/logger"
	"github.com/Be1newinner/ask-guruji/pkg/metrics"
)

// PDFExtractor PDF 解析函数
type PDFExtractor func(ctx context.Context, fileName string, data []byte) (*pdf.Document, error)

// DocumentHandler 文档摄取与查询处理器
type DocumentHandler struct {
	ingestSvc *ingest.Service
	engine    *knowledge.Engine
	extract   PDFExtractor

	maxUploadBytes int64
}

// NewDocumentHandler 创建文档处理器
func NewDocumentHandler(ingestSvc *ingest.Service, engine *knowledge.Engine, maxUploadBytes int64) *DocumentHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 32 << 20
	}
	return &DocumentHandler{
		ingestSvc:      ingestSvc,
		engine:         engine,
		extract:        pdf.Extract,
		maxUploadBytes: maxUploadBytes,
	}
}

// Ingest 摄取文档
// @Summary 摄取文档
// @Description 上传 PDF（multipart 的 file 字段）或提交 JSON 文档体进行切片、嵌入与入库
// @Tags Documents
// @Accept json,mpfd
// @Produce json
// @Success 200 {object} dto.IngestResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /documents/ingest [post]
func (h *DocumentHandler) Ingest(c *gin.Context) {
	start := time.Now()
	defer func() {
		metrics.IngestDuration.Observe(time.Since(start).Seconds())
	}()

	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "multipart/form-data") {
		h.ingestPDF(c)
		return
	}
	h.ingestJSON(c)
}

func (h *DocumentHandler) ingestPDF(c *gin.Context) {
	ctx := c.Request.Context()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		dto.BadRequest(c, "file is required")
		return
	}
	if fileHeader.Size > h.maxUploadBytes {
		dto.BadRequest(c, "file too large")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		logger.Error(ctx, "failed to open uploaded file", err)
		dto.InternalError(c, "failed to read uploaded file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		logger.Error(ctx, "failed to read uploaded file", err)
		dto.InternalError(c, "failed to read uploaded file")
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		dto.BadRequest(c, "file too large")
		return
	}

	doc, err := h.extract(ctx, fileHeader.Filename, data)
	if err != nil {
		logger.Error(ctx, "failed to parse pdf", err, "file_name", fileHeader.Filename)
		dto.BadRequest(c, "failed to parse pdf: "+err.Error())
		return
	}

	out, err := h.ingestSvc.Ingest(ctx, knowledge.IngestInput{
		Meta:  doc.Meta,
		Pages: doc.Pages,
	})
	h.finishIngest(c, out, err)
}

func (h *DocumentHandler) ingestJSON(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "no file or documents provided")
		return
	}

	// 单文档直接渲染其结果（含 jobId）；多文档聚合计数与错误
	if len(req.Documents) == 1 {
		out, err := h.ingestSvc.Ingest(ctx, ingestInputFromDTO(req.Documents[0]))
		h.finishIngest(c, out, err)
		return
	}

	agg := dto.NewIngestResponse("", nil)
	for i, d := range req.Documents {
		out, err := h.ingestSvc.Ingest(ctx, ingestInputFromDTO(d))
		if err != nil {
			metrics.IngestDocumentsTotal.WithLabelValues("error").Inc()
			agg.Errors = append(agg.Errors, fmt.Sprintf("document %d: %v", i, err))
			continue
		}

		metrics.IngestDocumentsTotal.WithLabelValues("ok").Inc()
		metrics.IngestChunksTotal.WithLabelValues("ok").Add(float64(out.Result.IngestedCount))
		agg.TotalChunks += out.Result.TotalChunks
		agg.IngestedCount += out.Result.IngestedCount
		agg.Errors = append(agg.Errors, out.Result.Errors...)
	}
	c.JSON(200, agg)
}

// ingestInputFromDTO 将 JSON 文档转为流水线输入
func ingestInputFromDTO(d dto.IngestDocument) knowledge.IngestInput {
	in := knowledge.IngestInput{Text: d.Content, StartAt: d.StartAt}
	if d.Metadata != nil {
		in.DocumentID = d.Metadata.DocumentID
		in.Meta = knowledge.DocumentMeta{
			FileName: d.Metadata.FileName,
			Title:    d.Metadata.Title,
			Author:   d.Metadata.Author,
			Keywords: d.Metadata.Keywords,
		}
	}
	return in
}

// finishIngest 渲染单文档摄取结果并记录指标
func (h *DocumentHandler) finishIngest(c *gin.Context, out *ingest.Outcome, err error) {
	if err != nil {
		metrics.IngestDocumentsTotal.WithLabelValues("error").Inc()
		logger.Error(c.Request.Context(), "document ingestion failed", err)
		renderError(c, err)
		return
	}

	metrics.IngestDocumentsTotal.WithLabelValues("ok").Inc()
	metrics.IngestChunksTotal.WithLabelValues("ok").Add(float64(out.Result.IngestedCount))
	if failed := out.Result.TotalChunks - out.Result.IngestedCount; failed > 0 {
		metrics.IngestChunksTotal.WithLabelValues("error").Add(float64(failed))
	}
	c.JSON(200, dto.NewIngestResponse(out.JobID, out.Result))
}

// GetDocument 获取文档分片
// @Summary 获取文档分片
// @Description 按 ID 获取已入库的文档分片内容与元数据
// @Tags Documents
// @Produce json
// @Param id path string true "分片 ID"
// @Success 200 {object} dto.DocumentResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /documents/{id} [get]
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	ctx := c.Request.Context()
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		dto.BadRequest(c, "document id is required")
		return
	}

	doc, err := h.engine.GetDocument(ctx, id)
	if err != nil {
		logger.Error(ctx, "failed to get document", err, "document_id", id)
		renderError(c, err)
		return
	}
	if doc == nil {
		dto.Fail(c, apperrors.ErrDocumentNotFound)
		return
	}

	c.JSON(200, dto.DocumentResponse{
		ID:       doc.ID,
		Content:  doc.Text,
		Metadata: doc.Metadata,
	})
}

// DeleteDocument 删除文档分片
// @Summary 删除文档分片
// @Description 按 ID 删除已入库的文档分片；存储侧失败不报错，体现在 deleted/message 中
// @Tags Documents
// @Produce json
// @Param id path string true "分片 ID"
// @Success 200 {object} dto.DeleteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /documents/{id} [delete]
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	ctx := c.Request.Context()
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		dto.BadRequest(c, "document id is required")
		return
	}

	res, err := h.engine.DeleteDocument(ctx, id)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(200, dto.DeleteResponse{Deleted: res.Deleted, Message: res.Message})
}
