package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/quizpeak/backend/internal/auth"
	"github.com/quizpeak/backend/internal/config"
	"github.com/quizpeak/backend/internal/database"
	"github.com/quizpeak/backend/internal/feedback"
	"github.com/quizpeak/backend/internal/middleware"
	"github.com/quizpeak/backend/internal/performance"
	"github.com/quizpeak/backend/internal/quiz"
	"github.com/rs/cors"
)

func main() {
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize services and handlers
	secret := []byte(cfg.JWTSecret)
	authHandler := auth.NewHandler(db, secret)

	quizStore := quiz.NewStore(db)
	quizService := quiz.NewService(quizStore, cfg)
	quizHandler := quiz.NewHandler(quizService)

	perfStore := performance.NewStore(db)
	perfService := performance.NewService(perfStore, cfg)
	perfHandler := performance.NewHandler(perfService)

	feedbackService := feedback.NewService(db, cfg)
	feedbackHandler := feedback.NewHandler(feedbackService)

	// Background snapshot aggregation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go perfService.StartSnapshotWorker(ctx)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth(secret))
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")

	protected.HandleFunc("/quiz/sessions", quizHandler.StartSession).Methods("POST")
	protected.HandleFunc("/quiz/sessions/{id}/next", quizHandler.NextQuestion).Methods("GET")
	protected.HandleFunc("/quiz/sessions/{id}/answers", quizHandler.SubmitAnswer).Methods("POST")
	protected.HandleFunc("/quiz/sessions/{id}/end", quizHandler.EndSession).Methods("POST")
	protected.HandleFunc("/quiz/sessions/{id}/feedback", feedbackHandler.GetSessionFeedback).Methods("GET")
	protected.HandleFunc("/quiz/next", quizHandler.AdaptiveNext).Methods("GET")
	protected.HandleFunc("/quiz/questions/import", quizHandler.ImportQuestions).Methods("POST")

	protected.HandleFunc("/performance/topics", perfHandler.GetTopicAccuracies).Methods("GET")
	protected.HandleFunc("/performance/topics/{id}/history", perfHandler.GetTopicHistory).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(r)

	log.Printf("Server starting on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
