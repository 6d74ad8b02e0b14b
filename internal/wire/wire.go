//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"github.com/Be1newinner/ask-guruji/internal/application/ingest"
	"github.com/Be1newinner/ask-guruji/internal/application/status"
	"github.com/Be1newinner/ask-guruji/internal/config"
	"github.com/Be1newinner/ask-guruji/internal/interfaces/http/handler"
	"github.com/Be1newinner/ask-guruji/internal/interfaces/http/router"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		MilvusSet,
		EmbeddingSet,
		ChatSet,
		PostgresSet,
		RedisSet,
		KnowledgeSet,
		status.NewStore,
		ingest.NewService,
		handler.NewQueryHandler,
		handler.NewHealthHandler,
		ProvideDocumentHandler,
		handler.NewStatusHandler,
		wire.Struct(new(router.Handlers), "*"),
		router.New,
	)
	return nil, nil, nil
}

// InitializeBootstrap 初始化引导所需的数据层（建表 + 建集合）
func InitializeBootstrap(ctx context.Context, cfg *config.Config) (*Bootstrap, func(), error) {
	wire.Build(
		MilvusSet,
		PostgresSet,
		wire.Struct(new(Bootstrap), "*"),
	)
	return nil, nil, nil
}
