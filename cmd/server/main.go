package main

import (
	"context"
	"errors"
	"log"
	"math/rand/v2"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"wagerquiz/internal/config"
	"wagerquiz/internal/game"
	"wagerquiz/internal/network"
	"wagerquiz/internal/services/cluster"
	"wagerquiz/internal/services/events"
	"wagerquiz/internal/services/gameapi"
	"wagerquiz/internal/services/questions"
	"wagerquiz/internal/session"
)

func main() {
	log.Println("Starting wagerquiz server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Fatal: failed to load configuration: %v", err)
	}
	log.Printf("[Main] Configuration loaded: Addr=%s, QuestionSource=%s, QuestionsFile=%q, NATS=%q, Consul=%q",
		cfg.Addr(), cfg.QuestionSource, cfg.QuestionsFile, cfg.NATSURL, cfg.ConsulAddrs)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Questions ---
	var list []game.Question
	if cfg.QuestionsFile != "" {
		list, err = questions.LoadFile(cfg.QuestionsFile)
		if err != nil {
			log.Fatalf("Fatal: failed to load questions: %v", err)
		}
		log.Printf("[Main] Loaded %d questions from %s", len(list), cfg.QuestionsFile)
	} else {
		log.Println("[Main] WARN: no questions file configured, every local question is the default one.")
	}
	source := questions.NewLookup(
		questions.NewRotation(list, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))),
		questions.WithRemote(questions.NewNumbersAPI(cfg.NumbersAPIURL, &http.Client{})),
		questions.WithAttempts(cfg.FetchAttempts),
		questions.WithAttemptTimeout(cfg.FetchTimeout),
		questions.WithBackoff(cfg.FetchBackoff),
	)

	health := cluster.NewHealthAggregator()

	// --- Events ---
	var publisher events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		natsPublisher, err := events.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix)
		if err != nil {
			log.Fatalf("Fatal: %v", err)
		}
		health.AddCheck("nats", natsPublisher.Check)
		publisher = natsPublisher
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Printf("[Main] ERROR: closing event publisher: %v", err)
		}
	}()

	// --- Live updates ---
	hub := network.NewHub()
	go hub.Run()
	defer hub.Stop()

	svc := session.NewService(session.NewRegistry(), source,
		session.WithDefaultPolicy(cfg.QuestionSource),
		session.WithPublisher(publisher),
		session.WithBroadcaster(hub),
	)

	mux := http.NewServeMux()
	gameapi.RegisterHandlers(mux, svc, hub)
	mux.HandleFunc("GET /health", health.Handler())
	log.Println("[Main] HTTP handlers registered.")

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("[Main] HTTP server listening on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// --- Service discovery ---
	if cfg.ConsulAddrs != "" {
		consulClient, err := cluster.NewConsulClient(cfg.ConsulAddrs)
		if err != nil {
			log.Fatalf("Fatal: %v", err)
		}
		deregister, err := cluster.RegisterServiceInConsul(consulClient, cluster.Registration{
			ServiceName:   cfg.ServiceName,
			ServicePort:   cfg.Port,
			AdvertiseHost: cfg.AdvertiseHost,
			HealthPath:    "/health",
		})
		if err != nil {
			log.Fatalf("Fatal: %v", err)
		}
		defer func() {
			if err := deregister(); err != nil {
				log.Printf("[Main] ERROR: %v", err)
			}
		}()
	}

	select {
	case err := <-serveErr:
		if err != nil {
			log.Printf("[Main] ERROR: HTTP server stopped: %v", err)
		}
	case <-ctx.Done():
		log.Println("[Main] Shutdown signal received.")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Main] ERROR: graceful shutdown failed: %v", err)
	}
	log.Printf("[Main] Server stopped with %d live games.", svc.Games())
}
