// Package main 初始化数据库表与向量集合
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/Be1newinner/ask-guruji/internal/config"
	"github.com/Be1newinner/ask-guruji/internal/domain/entity"
	"github.com/Be1newinner/ask-guruji/internal/wire"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. 初始化数据层
	b, cleanup, err := wire.InitializeBootstrap(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize data layer: %v", err)
	}
	defer cleanup()

	// 3. 摄取任务表
	if b.PgClient != nil {
		fmt.Println("Migrating ingest_jobs table...")
		if err := b.PgClient.DB().WithContext(ctx).AutoMigrate(&entity.IngestJob{}); err != nil {
			log.Fatalf("failed to migrate ingest_jobs: %v", err)
		}
		fmt.Println("ingest_jobs table ready.")
	} else {
		fmt.Println("Postgres not configured, skipping table migration.")
	}

	// 4. 文档向量集合与索引
	fmt.Printf("Ensuring collection %q (dim %d)...\n", cfg.Ingestion.Collection, cfg.Embedding.Dimension)
	if err := b.Gateway.EnsureCollection(ctx); err != nil {
		log.Fatalf("failed to ensure collection: %v", err)
	}
	fmt.Println("Collection ready.")

	fmt.Println("Bootstrap completed successfully.")
}
