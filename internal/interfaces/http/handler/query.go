// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Be1newinner/ask-guruji/internal/application/knowledge"
	"github.com/Be1newinner/ask-guruji/internal/interfaces/http/dto"
	"github.com/Be1newinner/ask-guruji/pkg/logger"
)

// QueryHandler 检索与生成处理器
type QueryHandler struct {
	engine *knowledge.Engine
}

// NewQueryHandler 创建检索处理器
func NewQueryHandler(engine *knowledge.Engine) *QueryHandler {
	return &QueryHandler{engine: engine}
}

// Retrieve 相似检索
// @Summary 相似检索
// @Description 对查询做嵌入后按相似度返回 topK 条文档分片
// @Tags Query
// @Accept json
// @Produce json
// @Param body body dto.RetrieveRequest true "检索请求"
// @Success 200 {object} dto.RetrieveResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /query/retrieve [post]
func (h *QueryHandler) Retrieve(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RetrieveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "query is required")
		return
	}

	docs, err := h.engine.Retrieve(ctx, req.Query, req.TopK)
	if err != nil {
		logger.Error(ctx, "retrieval failed", err)
		renderError(c, err)
		return
	}
	c.JSON(200, dto.NewRetrieveResponse(docs))
}

// Generate RAG 生成
// @Summary RAG 生成
// @Description 基于调用方提供的召回文档生成回答
// @Tags Query
// @Accept json
// @Produce json
// @Param body body dto.GenerateRequest true "生成请求"
// @Success 200 {object} dto.GenerateResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /query/generate [post]
func (h *QueryHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "query and retrievedDocs are required")
		return
	}

	docs := make([]*knowledge.ScoredDocument, 0, len(req.RetrievedDocs))
	for _, d := range req.RetrievedDocs {
		docs = append(docs, &knowledge.ScoredDocument{ID: d.ID, Text: d.Content})
	}

	var params *knowledge.GenerationParams
	if req.GenerationParams != nil {
		params = &knowledge.GenerationParams{
			Temperature: req.GenerationParams.Temperature,
			MaxTokens:   req.GenerationParams.MaxTokens,
		}
	}

	ans, err := h.engine.Generate(ctx, req.Query, docs, params)
	if err != nil {
		logger.Error(ctx, "generation failed", err)
		renderError(c, err)
		return
	}
	c.JSON(200, dto.GenerateResponse{
		Answer:          ans.Text,
		SourceDocuments: ans.SourceDocuments,
	})
}
