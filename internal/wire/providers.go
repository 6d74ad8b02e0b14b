// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"github.com/Be1newinner/ask-guruji/internal/application/ingest"
	"github.com/Be1newinner/ask-guruji/internal/application/knowledge"
	"github.com/Be1newinner/ask-guruji/internal/config"
	"github.com/Be1newinner/ask-guruji/internal/domain/repository"
	infraembedding "github.com/Be1newinner/ask-guruji/internal/infrastructure/embedding"
	"github.com/Be1newinner/ask-guruji/internal/infrastructure/llm"
	"github.com/Be1newinner/ask-guruji/internal/infrastructure/messaging"
	"github.com/Be1newinner/ask-guruji/internal/infrastructure/persistence/milvus"
	"github.com/Be1newinner/ask-guruji/internal/infrastructure/persistence/postgres"
	"github.com/Be1newinner/ask-guruji/internal/infrastructure/persistence/redis"
	"github.com/Be1newinner/ask-guruji/internal/interfaces/http/handler"
	"github.com/Be1newinner/ask-guruji/internal/interfaces/http/middleware"
	"github.com/Be1newinner/ask-guruji/pkg/logger"
)

// Bootstrap 引导命令的数据层依赖容器
type Bootstrap struct {
	PgClient     *postgres.Client
	MilvusClient *milvus.Client
	Gateway      *milvus.Gateway
}

// MilvusSet Milvus 提供者集合
var MilvusSet = wire.NewSet(
	ProvideMilvusClient,
	ProvideGateway,
	wire.Bind(new(knowledge.VectorStore), new(*milvus.Gateway)),
)

// EmbeddingSet Embedding 提供者集合
var EmbeddingSet = wire.NewSet(
	ProvideEmbedder,
	wire.Bind(new(knowledge.Embedder), new(*infraembedding.Client)),
)

// ChatSet LLM 提供者集合
var ChatSet = wire.NewSet(
	llm.NewEinoFactory,
	ProvideChat,
)

// PostgresSet PostgreSQL 提供者集合（可选：不可达时任务记录被禁用）
var PostgresSet = wire.NewSet(
	ProvidePostgresClientOptional,
	ProvideIngestJobRepository,
)

// RedisSet Redis 提供者集合（可选：不可达时限流与事件流被禁用）
var RedisSet = wire.NewSet(
	ProvideRedisClientOptional,
	ProvideRateLimiter,
	ProvideEventPublisher,
)

// KnowledgeSet 切片/流水线/检索引擎集合
var KnowledgeSet = wire.NewSet(
	ProvideChunker,
	ProvidePipeline,
	ProvideEngine,
)

// ProvideMilvusClient 提供 Milvus 客户端
func ProvideMilvusClient(ctx context.Context, cfg *config.Config) (*milvus.Client, func(), error) {
	client, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideGateway 提供文档向量网关
func ProvideGateway(client *milvus.Client, cfg *config.Config) *milvus.Gateway {
	return milvus.NewGateway(client, cfg.Ingestion.Collection, cfg.Embedding.Dimension)
}

// ProvideEmbedder 提供 Embedding 客户端
func ProvideEmbedder(ctx context.Context, cfg *config.Config) (*infraembedding.Client, error) {
	einoEmb, err := infraembedding.NewEinoEmbedder(ctx, &cfg.Embedding)
	if err != nil {
		return nil, err
	}
	return infraembedding.NewClient(einoEmb, &cfg.Embedding), nil
}

// ProvideChat 提供回答生成客户端。未配置 LLM Provider 时返回 nil（生成端点返回错误）。
func ProvideChat(factory *llm.EinoFactory, cfg *config.Config) knowledge.ChatModel {
	if len(cfg.LLM.Providers) == 0 {
		return nil
	}
	return llm.NewChat(factory, &cfg.LLM)
}

// ProvideChunker 提供文本切片器
func ProvideChunker(cfg *config.Config) (*knowledge.Chunker, error) {
	return knowledge.NewChunker(cfg.Ingestion.ChunkSize, cfg.Ingestion.ChunkOverlap)
}

// ProvidePipeline 提供摄取流水线
func ProvidePipeline(chunker *knowledge.Chunker, embedder knowledge.Embedder, store knowledge.VectorStore, cfg *config.Config) *knowledge.Pipeline {
	return knowledge.NewPipeline(chunker, embedder, store, cfg.Ingestion.BatchSize)
}

// ProvideEngine 提供检索与生成引擎
func ProvideEngine(embedder knowledge.Embedder, store knowledge.VectorStore, chat knowledge.ChatModel) *knowledge.Engine {
	return knowledge.NewEngine(embedder, store, chat)
}

// ProvidePostgresClientOptional 提供 PostgreSQL 客户端（不可达时降级为 nil）
func ProvidePostgresClientOptional(ctx context.Context, cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Warn(ctx, "postgres not available, ingest job records disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideIngestJobRepository 提供摄取任务仓储
func ProvideIngestJobRepository(client *postgres.Client) repository.IngestJobRepository {
	if client == nil {
		return nil
	}
	return postgres.NewIngestJobRepository(client)
}

// ProvideRedisClientOptional 提供 Redis 客户端（不可达时降级为 nil）
func ProvideRedisClientOptional(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Warn(ctx, "redis not available, rate limiting and ingest events disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRateLimiter 提供限流器
func ProvideRateLimiter(client *redis.Client) middleware.RateLimiter {
	if client == nil {
		return nil
	}
	return redis.NewRateLimiter(client)
}

// ProvideEventPublisher 提供摄取完成事件发布器
func ProvideEventPublisher(client *redis.Client, cfg *config.Config) ingest.EventPublisher {
	if client == nil || !cfg.Messaging.RedisStream.Enabled {
		return nil
	}
	return messaging.NewProducer(client.Redis(), cfg.Messaging.RedisStream.MaxLen)
}

// ProvideDocumentHandler 提供文档处理器
func ProvideDocumentHandler(ingestSvc *ingest.Service, engine *knowledge.Engine, cfg *config.Config) *handler.DocumentHandler {
	return handler.NewDocumentHandler(ingestSvc, engine, cfg.Server.HTTP.MaxUploadBytes)
}
