// Package main 离线建库工具：读取剧目目录，产出版本化向量集合与索引快照。
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"short-drama-ai-api/internal/application/retrieval"
	"short-drama-ai-api/internal/config"
	"short-drama-ai-api/internal/infrastructure/catalog"
	"short-drama-ai-api/internal/infrastructure/embedding"
	"short-drama-ai-api/internal/infrastructure/persistence/milvus"
	"short-drama-ai-api/internal/infrastructure/persistence/postgres"
	redisinfra "short-drama-ai-api/internal/infrastructure/persistence/redis"
	"short-drama-ai-api/internal/infrastructure/terms"
	"short-drama-ai-api/pkg/logger"
)

func main() {
	var (
		source    = flag.String("source", "postgres", "catalog source: postgres or csv")
		csvPath   = flag.String("csv-path", "", "path to catalog csv (required when --source=csv)")
		maxRows   = flag.Int("max-rows", 0, "limit catalog rows, 0 means all (for quick validation)")
		testQuery = flag.String("test-query", "", "run a smoke search against the fresh index after build")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info("index builder starting", "source", *source, "index_dir", cfg.Index.Dir)

	var catalogSource retrieval.CatalogSource
	switch *source {
	case "postgres":
		pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
		if err != nil {
			logger.Fatal(ctx, "failed to connect postgres", err)
		}
		defer pgClient.Close()
		catalogSource = postgres.NewCatalogSource(postgres.NewDramaRepository(pgClient))
	case "csv":
		if *csvPath == "" {
			logger.Fatal(ctx, "--csv-path is required when --source=csv", nil)
		}
		catalogSource = catalog.NewCSVSource(*csvPath)
	default:
		logger.Fatal(ctx, "unknown source, want postgres or csv", nil, "source", *source)
	}

	milvusClient, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		logger.Fatal(ctx, "failed to connect milvus", err)
	}
	defer milvusClient.Close()

	store := milvus.NewRepository(milvusClient)
	embedder := embedding.NewClient(&cfg.Embedding)
	ranker := terms.NewRanker(cfg.Index.VocabLimit)

	builder := retrieval.NewBuilder(catalogSource, embedder, store, ranker, retrieval.BuildParams{
		Dir:              cfg.Index.Dir,
		CollectionPrefix: cfg.Vector.Milvus.CollectionPrefix,
		SourceName:       *source,
		ChunkSize:        cfg.Index.ChunkSize,
		ChunkOverlap:     cfg.Index.ChunkOverlap,
		MinChunkChars:    cfg.Index.MinChunkChars,
		TagTopK:          cfg.Index.TagTopK,
		Model:            cfg.Embedding.Model,
		Dimension:        cfg.Embedding.Dimension,
		BatchSize:        cfg.Embedding.BatchSize,
		MaxRows:          *maxRows,
	})

	manifest, err := builder.Build(ctx)
	if err != nil {
		logger.Fatal(ctx, "index build failed", err)
	}

	log.Info("index build finished",
		"build_id", manifest.BuildID,
		"rows", manifest.Rows,
		"excluded", manifest.Excluded,
		"chunks", manifest.Chunks,
		"avg_chunk_chars", fmt.Sprintf("%.1f", manifest.AvgChunkChars),
		"elapsed_sec", fmt.Sprintf("%.2f", manifest.ElapsedSec),
	)

	// 新索引上线后旧答案作废
	if redisClient, err := redisinfra.NewClient(&cfg.Cache.Redis); err != nil {
		log.Warn("redis unavailable, skipping ask cache invalidation", "error", err.Error())
	} else {
		defer redisClient.Close()
		cache := redisinfra.NewCache(redisClient)
		if err := cache.InvalidateAsk(ctx); err != nil {
			log.Warn("failed to invalidate ask cache", "error", err.Error())
		} else {
			log.Info("ask cache invalidated")
		}
	}

	if *testQuery != "" {
		runTestQuery(ctx, cfg, embedder, store, *testQuery)
	}
}

// runTestQuery 用刚发布的快照跑一次检索，便于建库后肉眼验证效果。
func runTestQuery(ctx context.Context, cfg *config.Config, embedder retrieval.Embedder, store retrieval.VectorStore, query string) {
	log := logger.FromContext(ctx)

	snap, err := retrieval.LoadSnapshot(cfg.Index.Dir)
	if err != nil {
		log.Error("failed to load fresh snapshot for test query", "error", err)
		return
	}

	params := retrieval.DefaultParams()
	params.TopKDefault = 5
	params.TagSnippetMaxChars = 160
	engine := retrieval.NewEngine(embedder, store, snap, params)
	service := retrieval.NewService(engine)

	queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, err := service.Ask(queryCtx, retrieval.AskInput{
		Question: query,
		Scene:    retrieval.SceneSearch,
	})
	if err != nil {
		log.Error("test query failed", "query", query, "error", err)
		return
	}

	fmt.Printf("\nTest query: %q\n", query)
	for i, item := range result.Items {
		fmt.Printf("%2d. [%d] %s (%s) score=%.4f tagHits=%d\n    %s\n",
			i+1, item.DramaID, item.Title, item.Category, item.Score, item.TagHits, item.Snippet)
	}
	if len(result.Items) == 0 {
		fmt.Println("no results")
	}
}
