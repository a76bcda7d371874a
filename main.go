package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"codechat/internal/api"
	"codechat/internal/config"
	"codechat/internal/extract"
	"codechat/internal/service/ai"
	"codechat/internal/service/chat"
	"codechat/internal/storage"
	"codechat/internal/store"
)

func main() {
	cfgPath := os.Getenv("CODECHAT_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if cfg.BasicConfig.LogLevel != "" {
		level, err := log.ParseLevel(cfg.BasicConfig.LogLevel)
		if err != nil {
			log.Fatalf("parse log level: %v", err)
		}
		log.SetLevel(level)
	}

	db, err := storage.Open(cfg.BasicConfig.DatabasePath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := storage.Initialize(db); err != nil {
		log.Fatalf("initialize schema: %v", err)
	}
	if err := storage.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	recordStore := store.New(db, cfg.BasicConfig.DatabasePath)

	model, err := ai.NewClient(cfg)
	if err != nil {
		log.Fatalf("init model client: %v", err)
	}

	extractor := extract.New(recordStore)
	window := time.Duration(cfg.BasicConfig.ArtifactWindowSeconds) * time.Second
	chatService := chat.NewService(recordStore, model, extractor, window)

	handlers := api.NewHandler(chatService, recordStore, cfg.BasicConfig)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}

	log.WithFields(log.Fields{
		"addr":     addr,
		"database": cfg.BasicConfig.DatabasePath,
		"provider": cfg.BasicConfig.Provider,
	}).Info("starting codechat server")

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
