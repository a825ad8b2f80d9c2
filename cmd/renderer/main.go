package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/glowsign/display-app/internal/display"
	"github.com/glowsign/display-app/internal/history"
	"github.com/glowsign/display-app/internal/messaging"
	"github.com/glowsign/display-app/internal/metrics"
	"github.com/glowsign/display-app/internal/stream"
)

// defaultTickInterval is how often the marquee advances one column.
const defaultTickInterval = 75 * time.Millisecond

// persistEveryTicks bounds how often the scroll position is mirrored to
// Redis while the marquee runs. Full state is always persisted on render
// and clear commands.
const persistEveryTicks = 13

// renderer owns the simulated badge state and fans out changes to Redis,
// PostgreSQL history, NATS observers, and WebSocket subscribers.
type renderer struct {
	mu    sync.Mutex
	state display.State

	nats       *messaging.NATSClient
	store      *display.Store // nil when Redis is disabled
	history    *history.Store // nil when Postgres is disabled
	hub        *stream.Hub
	recent     *display.Recent
	recentSize int
}

// handleRender applies a validated render command from the gateway.
func (r *renderer) handleRender(data []byte) {
	cmd, err := display.DecodeCommand(data)
	if err != nil {
		log.Printf("[renderer] bad render command: %v", err)
		return
	}
	if cmd.Type != display.CommandRender {
		log.Printf("[renderer] unexpected command type %q on render subject", cmd.Type)
		return
	}

	r.mu.Lock()
	r.state.Apply(cmd)
	snapshot := r.state
	r.mu.Unlock()

	metrics.DisplayUpdates.WithLabelValues(display.CommandRender).Inc()
	if cmd.Ts > 0 {
		latency := time.Since(time.UnixMilli(cmd.Ts))
		if latency > 0 {
			metrics.RenderLatency.Observe(latency.Seconds())
		}
	}

	r.recent.Add(display.RecentEntry{
		ID:     cmd.ID,
		Text:   cmd.Text,
		Source: cmd.Source,
		Ts:     snapshot.UpdatedAt,
	})

	log.Printf("[renderer] displaying %q (source=%s units=%d)", cmd.Text, cmd.Source, cmd.Units)

	r.persist(&snapshot)
	r.record(cmd, snapshot.UpdatedAt)
	r.broadcast(&snapshot)
}

// handleClear blanks the display.
func (r *renderer) handleClear(data []byte) {
	if _, err := display.DecodeCommand(data); err != nil {
		log.Printf("[renderer] bad clear command: %v", err)
		return
	}

	r.mu.Lock()
	r.state.Clear()
	snapshot := r.state
	r.mu.Unlock()

	metrics.DisplayUpdates.WithLabelValues(display.CommandClear).Inc()
	log.Printf("[renderer] display cleared")

	r.persist(&snapshot)
	r.broadcast(&snapshot)
}

// tick advances the marquee one column. Subscribers get every frame; the
// Redis mirror is refreshed only every persistEveryTicks ticks.
func (r *renderer) tick(n int) {
	r.mu.Lock()
	changed := r.state.Advance()
	snapshot := r.state
	r.mu.Unlock()

	if !changed {
		return
	}
	if n%persistEveryTicks == 0 {
		r.persist(&snapshot)
	}
	r.broadcast(&snapshot)
}

// persist mirrors the state to Redis, best effort.
func (r *renderer) persist(state *display.State) {
	if r.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.store.Put(ctx, state); err != nil {
		log.Printf("[renderer] state mirror failed: %v", err)
	}
}

// record appends the displayed message to the Postgres history, best effort.
func (r *renderer) record(cmd display.Command, displayedAt int64) {
	if r.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := r.history.Record(ctx, &history.Entry{
		ID:          cmd.ID,
		Text:        cmd.Text,
		Source:      cmd.Source,
		Units:       cmd.Units,
		DisplayedAt: time.UnixMilli(displayedAt),
	})
	if err != nil {
		log.Printf("[renderer] history record failed: %v", err)
	}
}

// broadcast pushes the state frame to WebSocket subscribers and the NATS
// state subject.
func (r *renderer) broadcast(state *display.State) {
	frame, err := json.Marshal(state)
	if err != nil {
		log.Printf("[renderer] marshal state: %v", err)
		return
	}
	r.hub.Broadcast(frame)
	if err := r.nats.PublishState(frame); err != nil {
		log.Printf("[renderer] publish state: %v", err)
	}
}

// handleRecent serves the recently displayed messages, oldest first. When
// the Postgres history is enabled it is the source, with a rolling one-hour
// submission count; otherwise the in-memory ring answers.
func (r *renderer) handleRecent(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.history != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 5*time.Second)
		defer cancel()

		entries, err := r.history.Recent(ctx, r.recentSize)
		if err == nil {
			// Recent returns newest first; flip to match the ring.
			msgs := make([]display.RecentEntry, 0, len(entries))
			for i := len(entries) - 1; i >= 0; i-- {
				e := entries[i]
				msgs = append(msgs, display.RecentEntry{
					ID:     e.ID,
					Text:   e.Text,
					Source: e.Source,
					Ts:     e.DisplayedAt.UnixMilli(),
				})
			}
			resp := map[string]interface{}{"messages": msgs}
			if count, cerr := r.history.CountSince(ctx, time.Hour); cerr == nil {
				resp["displayed_last_hour"] = count
			} else {
				log.Printf("[renderer] history count failed: %v", cerr)
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(resp)
			return
		}
		log.Printf("[renderer] history query failed, serving in-memory ring: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"messages": r.recent.All(),
	})
}

func main() {
	listenAddr := os.Getenv("LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = ":8081"
	}

	tickInterval := defaultTickInterval
	if v := os.Getenv("TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			tickInterval = d
		}
	}

	recentSize := display.DefaultRecentSize
	if v := os.Getenv("RECENT_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			recentSize = n
		}
	}

	// --- NATS ---
	natsConfig := messaging.DefaultNATSConfig()
	natsConfig.Name = "display-renderer"
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		natsConfig.URL = natsURL
	}
	natsClient, err := messaging.NewNATSClient(natsConfig)
	if err != nil {
		log.Fatalf("failed to connect to NATS: %v", err)
	}

	// --- Redis state mirror (optional) ---
	var (
		rdb   *redis.Client
		store *display.Store
	)
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: redisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			cancel()
			log.Fatalf("failed to connect to Redis: %v", err)
		}
		cancel()
		store = display.NewStore(rdb)
	}

	// --- Postgres history (optional) ---
	var (
		db        *sql.DB
		histStore *history.Store
	)
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		db, err = history.Open(databaseURL)
		if err != nil {
			log.Fatalf("failed to connect to Postgres: %v", err)
		}
		migrationsDir := os.Getenv("MIGRATIONS_DIR")
		if migrationsDir == "" {
			migrationsDir = "migrations"
		}
		if err := history.Migrate(db, migrationsDir); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		histStore = history.NewStore(db)
	}

	r := &renderer{
		nats:       natsClient,
		store:      store,
		history:    histStore,
		hub:        stream.NewHub(),
		recent:     display.NewRecent(recentSize),
		recentSize: recentSize,
	}

	if err := natsClient.SubscribeRender(r.handleRender); err != nil {
		log.Fatalf("failed to subscribe to render commands: %v", err)
	}
	if err := natsClient.SubscribeClear(r.handleClear); err != nil {
		log.Fatalf("failed to subscribe to clear commands: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", r.hub.HandleUpgrade)
	mux.HandleFunc("/recent", r.handleRecent)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "ok",
			"subscribers": r.hub.Count(),
		})
	})
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:         listenAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Printf("Display renderer starting")
	log.Printf("  listen_addr:   %s", listenAddr)
	log.Printf("  nats_url:      %s", natsConfig.URL)
	log.Printf("  tick_interval: %s", tickInterval)
	if rdb != nil {
		log.Printf("  redis_addr:    %s", rdb.Options().Addr)
	} else {
		log.Printf("  redis_addr:    (disabled)")
	}
	if db != nil {
		log.Printf("  history:       enabled")
	} else {
		log.Printf("  history:       (disabled)")
	}

	// Marquee ticker.
	tickerDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		n := 0
		for {
			select {
			case <-ticker.C:
				n++
				r.tick(n)
			case <-tickerDone:
				return
			}
		}
	}()

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, initiating graceful shutdown...", sig)
		close(tickerDone)
		natsClient.Close()
		r.hub.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
		cancel()
		if rdb != nil {
			if err := rdb.Close(); err != nil {
				log.Printf("redis close error: %v", err)
			}
		}
		if db != nil {
			if err := db.Close(); err != nil {
				log.Printf("database close error: %v", err)
			}
		}
		os.Exit(0)
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
