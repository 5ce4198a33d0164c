package main

import (
	"log"
	"net/http"
	"os"

	"github.com/jonnyvector/send-buddy-sub000/matching"
)

// JWT secret from environment variable or fallback
func getJWTSecret() []byte {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		return []byte(secret)
	}
	return []byte("your_secret_key_please_change_in_production")
}

var jwtSecret = getJWTSecret()

func main() {
	initDB()

	store := newPGDirectory(db)
	svc := matching.NewService(store)

	mux := http.NewServeMux()

	// Match endpoints
	mux.Handle("/matches", matchesHandler(db, svc))      // GET /matches?trip=&limit=
	mux.Handle("/matches/", matchDetailHandler(db, svc)) // GET /matches/{user_id}?trip=

	// Public profiles (what a match notification links to)
	mux.Handle("/users/", userHandler(db, store))

	// Block list: the write side of the privacy filter
	mux.Handle("/blocks", blocksRouter(db))
	mux.Handle("/blocks/", blocksRouter(db))

	// Grade conversion ladder
	mux.Handle("/grades", gradesRouter(db))
	mux.Handle("/grades/", gradesRouter(db))

	// Health check endpoint for Docker
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Prometheus metrics
	mux.Handle("/metrics", metricsHandler())

	// Match notifications ride on NATS when a broker is configured; the
	// backend still serves matches without one.
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		cfg := DefaultNATSConfig()
		cfg.URL = natsURL
		nc, err := NewNATSClient(cfg)
		if err != nil {
			log.Fatal("Error connecting to NATS:", err)
		}
		defer nc.Close()

		notifier := NewNotifier(nc, svc, store)
		if err := notifier.Start(); err != nil {
			log.Fatal("Error subscribing to trip events:", err)
		}
		log.Println("Notifier listening on", SubjectTripCreated)
	} else {
		log.Println("Warning: NATS_URL not set, match notifications disabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Default().Println("Starting Send Buddy matching backend on port " + port + "...")
	http.ListenAndServe(":"+port, withCORS(mux))
}
