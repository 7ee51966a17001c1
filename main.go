package main

import (
	"encoding/json"
	"log"
	"net/http"

	"carscene-server/modules/common/config"
	"carscene-server/modules/common/credit"
	"carscene-server/modules/common/database"
	"carscene-server/modules/common/place"
	"carscene-server/modules/common/prediction"
	commonredis "carscene-server/modules/common/redis"
	"carscene-server/modules/common/storage"
	"carscene-server/modules/generation"
	"carscene-server/modules/progress"
	"carscene-server/modules/video"

	"github.com/gorilla/mux"
)

// CORS 헤더 추가
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// 헬스 체크 엔드포인트
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "carscene-server",
	})
}

func main() {
	// 환경변수 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// 공용 클라이언트 생성
	dbClient := database.NewClient()
	if dbClient == nil {
		log.Fatal("❌ Failed to create database client")
	}
	creditClient := credit.NewClient()
	if creditClient == nil {
		log.Fatal("❌ Failed to create credit client")
	}
	storageClient := storage.NewClient()
	placeResolver := place.NewResolver()
	predictionClient := prediction.NewClient()

	// 진행 상황 WebSocket 허브
	hub := progress.NewHub()

	// 합성 사가 조립
	analyzer := generation.NewAnalyzer(predictionClient)
	synthesizer := generation.NewSynthesizer(predictionClient)
	coordinator := generation.NewCoordinator(
		creditClient, dbClient, placeResolver, analyzer, synthesizer,
		storageClient, hub, cfg.ImageCreditPrice)
	generationHandler := generation.NewGenerationHandler(coordinator, dbClient)

	// 비디오 큐 + 워커
	rdb := commonredis.Connect(cfg)
	if rdb == nil {
		log.Fatal("❌ Failed to connect to Redis")
	}
	videoService := video.NewService(creditClient, dbClient, rdb, cfg.VideoCreditPrice)
	videoHandler := video.NewVideoHandler(videoService)
	videoWorker := video.NewWorker(
		rdb, dbClient, creditClient, predictionClient, storageClient, hub,
		cfg.ProviderVideoVersion, prediction.VideoPolicy(), cfg.VideoCreditPrice)
	go videoWorker.Run()

	// 라우터 설정
	r := mux.NewRouter()

	// CORS 미들웨어 적용
	r.Use(enableCORS)

	// 라우트 설정
	r.HandleFunc("/", healthCheck).Methods("GET")
	r.HandleFunc("/health", healthCheck).Methods("GET")
	r.HandleFunc("/ws", hub.HandleWS)

	r.HandleFunc("/api/generations", generationHandler.Generate).Methods("POST")
	r.HandleFunc("/api/generations/revision", generationHandler.Revise).Methods("POST")
	r.HandleFunc("/api/generations/{generationId}", generationHandler.GetGeneration).Methods("GET")

	r.HandleFunc("/api/videos/submit", videoHandler.SubmitJob).Methods("POST")
	r.HandleFunc("/api/videos/status/{jobId}", videoHandler.GetJob).Methods("GET")

	// 크레딧 잔액 조회
	r.HandleFunc("/api/credits/{userId}", func(w http.ResponseWriter, r *http.Request) {
		userID := mux.Vars(r)["userId"]
		balance, err := creditClient.GetBalance(r.Context(), userID)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"userId":           userID,
			"availableCredits": balance,
		})
	}).Methods("GET")

	log.Printf("🚀 CarScene Server starting on port %s", cfg.Port)
	log.Printf("📡 Progress endpoint: ws://localhost:%s/ws", cfg.Port)
	log.Printf("❤️  Health check: http://localhost:%s/health", cfg.Port)

	// 서버 시작
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
