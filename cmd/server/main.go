package main

import (
	"fmt"
	"os"

	"face-match-go/config"
	"face-match-go/internal/api/handlers"
	"face-match-go/internal/face"
	"face-match-go/internal/integrations/mqtt"
	"face-match-go/internal/logger"
	"face-match-go/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const defaultConfigPath = "/config/config.yaml"

func main() {
	configPath := os.Getenv("FACE_MATCH_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.Log); err != nil {
		log.Errorf("Failed to initialize logger completely: %v", err)
	}

	// The engine loads the detector and embedding models once; it is shared
	// across requests and serializes access internally.
	engine, err := face.NewOpenCVEngine(cfg.Detector)
	if err != nil {
		log.Fatalf("Failed to initialize face engine: %v", err)
	}
	defer engine.Close()

	scanner := face.NewScanner(engine, face.ScannerOptionsFromConfig(cfg.Scanner, cfg.Storage.SaveCrops))
	matcher := face.NewMatcher(face.NewScorer(cfg.Scoring))
	classifier := face.NewClassifier(cfg.Verdict)

	var crops storage.CropStore
	if cfg.Storage.SaveCrops {
		diskStore, err := storage.NewDiskCropStore(cfg.Storage.CropDir, cfg.Storage.CropURL)
		if err != nil {
			log.Fatalf("Failed to initialize crop store: %v", err)
		}
		crops = diskStore
		log.Infof("Persisting matched face crops to %s", cfg.Storage.CropDir)
	}

	var publisher face.ResultPublisher
	if cfg.MQTT.Enabled {
		p := mqtt.NewPublisher(cfg.MQTT)
		if err := p.Start(); err != nil {
			log.Warnf("Failed to connect MQTT publisher: %v. Continuing without result publishing.", err)
		} else {
			publisher = p
			defer p.Stop()
		}
	} else {
		log.Info("MQTT result publishing is disabled in config.")
	}

	service := face.NewService(scanner, matcher, classifier, crops, publisher)

	if log.GetLevel() < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	router.Use(cors.New(corsConfig))

	api := router.Group("/api")
	handlers.NewMatchHandler(cfg, service).RegisterRoutes(api)
	handlers.NewSystemHandler().RegisterRoutes(api)

	if cfg.Storage.SaveCrops {
		router.Static(cfg.Storage.CropURL, cfg.Storage.CropDir)
		log.Infof("Serving face crops from %s under %s", cfg.Storage.CropDir, cfg.Storage.CropURL)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Infof("Starting server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
