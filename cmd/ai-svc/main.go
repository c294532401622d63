// Package main 检索问答服务入口
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"short-drama-ai-api/internal/application/retrieval"
	"short-drama-ai-api/internal/config"
	"short-drama-ai-api/internal/infrastructure/embedding"
	"short-drama-ai-api/internal/infrastructure/persistence/milvus"
	redisinfra "short-drama-ai-api/internal/infrastructure/persistence/redis"
	"short-drama-ai-api/internal/interfaces/http/handler"
	"short-drama-ai-api/internal/interfaces/http/middleware"
	"short-drama-ai-api/internal/interfaces/http/router"
	"short-drama-ai-api/pkg/logger"
	"short-drama-ai-api/pkg/tracer"
)

// Version 版本信息，构建时注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
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
	log.Info("starting ai-svc",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
	)

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		log.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// 向量库与 Embedding 服务
	milvusClient, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		logger.Fatal(ctx, "failed to connect milvus", err)
	}
	defer milvusClient.Close()
	store := milvus.NewRepository(milvusClient)
	embedder := embedding.NewClient(&cfg.Embedding)

	// 索引快照：加载失败不阻止启动，服务以禁用态对外返回 503
	var snap *retrieval.Snapshot
	if s, err := retrieval.LoadSnapshot(cfg.Index.Dir); err != nil {
		log.Warn("retrieval index unavailable", "dir", cfg.Index.Dir, "error", err.Error())
	} else {
		snap = s
		log.Info("index snapshot loaded",
			"build_id", s.Manifest.BuildID,
			"chunks", s.Manifest.Chunks,
			"dramas", len(s.Dramas),
		)
	}

	engine := retrieval.NewEngine(embedder, store, snap, retrieval.Params{
		TopKDefault:        cfg.Ranker.TopKDefault,
		Alpha:              cfg.Ranker.Alpha,
		MinTagHits:         cfg.Ranker.MinTagHits,
		VecTopK:            cfg.Ranker.VecTopK,
		DedupeOverfetch:    cfg.Ranker.DedupeOverfetch,
		FallbackOverfetch:  cfg.Ranker.FallbackOverfetch,
		CategoryBonus:      cfg.Ranker.CategoryBonus,
		SnippetMaxChars:    cfg.Ranker.SnippetMaxChars,
		TagSnippetMaxChars: cfg.Ranker.TagSnippetMaxChars,
	})
	service := retrieval.NewService(engine)

	// Redis：缓存与限流，连不上时降级为不启用
	var (
		askCache *redisinfra.Cache
		limiter  middleware.RateLimiter
	)
	if redisClient, err := redisinfra.NewClient(&cfg.Cache.Redis); err != nil {
		log.Warn("redis unavailable, cache and rate limit disabled", "error", err.Error())
	} else {
		defer redisClient.Close()
		askCache = redisinfra.NewCache(redisClient)
		limiter = redisinfra.NewRateLimiter(redisClient)
	}

	handlers := router.Handlers{
		Ask:    handler.NewAskHandler(service, askCache, cfg.Cache.AskTTL, cfg.Ranker.TopKDefault),
		Health: handler.NewHealthHandler(service, cfg.Index.Dir),
	}
	r := router.New(cfg, handlers, limiter)

	addr := fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("http server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}
