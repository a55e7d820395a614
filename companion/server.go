package companion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devskill-org/astro-companion/astro"
	"github.com/devskill-org/astro-companion/geocode"
	"github.com/devskill-org/astro-companion/spaceweather"
)

// WebServer exposes the published state over HTTP and pushes every newly
// published snapshot to websocket clients.
type WebServer struct {
	companion    *Companion
	server       *http.Server
	port         int
	startTime    time.Time
	upgrader     websocket.Upgrader
	clients      sync.Map
	broadcast    chan []byte
	done         chan struct{}
	spaceWeather *spaceweather.Client
	searcher     geocode.Searcher
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string          `json:"status"`
	Timestamp string          `json:"timestamp"`
	Version   string          `json:"version,omitempty"`
	Companion CompanionHealth `json:"companion"`
	System    SystemHealth    `json:"system"`
}

// CompanionHealth represents companion-specific health information.
type CompanionHealth struct {
	HasSnapshot   bool   `json:"has_snapshot"`
	HasMonthTable bool   `json:"has_month_table"`
	DailyLoading  bool   `json:"daily_loading"`
	MonthLoading  bool   `json:"month_loading"`
	Location      string `json:"location"`
}

// SystemHealth represents system-level health information.
type SystemHealth struct {
	Uptime string `json:"uptime"`
}

// NewWebServer creates a web server bound to the companion and registers
// it as the publish broadcast target. A non-positive port disables the
// server.
func NewWebServer(companion *Companion, port int) *WebServer {
	if port <= 0 {
		return nil
	}

	mux := http.NewServeMux()
	ws := &WebServer{
		companion: companion,
		port:      port,
		startTime: time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in development
			},
		},
		broadcast: make(chan []byte, 256),
		done:      make(chan struct{}),
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	config := companion.config
	swClient := spaceweather.NewClientWithHTTPClient(&http.Client{Timeout: config.APITimeout}, config.UserAgent)
	if config.SpaceWeatherBaseURL != "" {
		swClient.SetBaseURL(config.SpaceWeatherBaseURL)
	}
	ws.spaceWeather = swClient

	geoClient := geocode.NewClient(config.UserAgent, config.APITimeout)
	if config.GeocodeBaseURL != "" {
		geoClient.SetBaseURL(config.GeocodeBaseURL)
	}
	ws.searcher = geocode.NewCachedSearcher(geoClient, config.GeocodeCacheSize)

	mux.HandleFunc("/api/health", ws.healthHandler)
	mux.HandleFunc("/api/ready", ws.readinessHandler)
	mux.HandleFunc("/api/snapshot", ws.snapshotHandler)
	mux.HandleFunc("/api/calendar", ws.calendarHandler)
	mux.HandleFunc("/api/polaris", ws.polarisHandler)
	mux.HandleFunc("/api/spaceweather", ws.spaceWeatherHandler)
	mux.HandleFunc("/api/geocode", ws.geocodeHandler)
	mux.HandleFunc("/api/location", ws.locationHandler)
	mux.HandleFunc("/api/ws", ws.wsHandler)
	mux.Handle("/metrics", promhttp.Handler())

	companion.setPublishHook(ws.broadcastSnapshot)

	return ws
}

// Start starts the web server.
func (ws *WebServer) Start() error {
	if ws == nil {
		return nil
	}

	go ws.handleBroadcasts()

	go func() {
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			ws.companion.logger.Printf("Web server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully stops the web server.
func (ws *WebServer) Stop(ctx context.Context) error {
	if ws == nil {
		return nil
	}

	close(ws.done)

	ws.clients.Range(func(key, value any) bool {
		if conn, ok := key.(*websocket.Conn); ok {
			conn.Close()
		}
		return true
	})

	return ws.server.Shutdown(ctx)
}

func (ws *WebServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, ws.buildHealth())
}

func (ws *WebServer) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ready := map[string]any{
		"ready":     ws.companion.Snapshot() != nil,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if ws.companion.Snapshot() == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(ready) //nolint:errcheck
		return
	}

	writeJSON(w, ready)
}

func (ws *WebServer) snapshotHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := ws.companion.Snapshot()
	if snap == nil {
		http.Error(w, "No snapshot published yet", http.StatusNotFound)
		return
	}

	writeJSON(w, snap)
}

func (ws *WebServer) calendarHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	table, year, month := ws.companion.MonthTable()
	if table == nil {
		http.Error(w, "No month table published yet", http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]any{
		"year":  year,
		"month": int(month),
		"days":  table,
	})
}

func (ws *WebServer) polarisHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reading := ws.companion.PolarisReading()
	writeJSON(w, map[string]any{
		"lst_degrees":      reading.LSTDegrees,
		"hour_angle_hours": reading.HourAngleHours,
		"clock_hours":      reading.ClockHours,
		"clock":            reading.FormatClock(),
		"lst":              reading.FormatLST(),
	})
}

// spaceWeatherHandler serves the current K-index and the sunspot regions
// from the most recent observation.
func (ws *WebServer) spaceWeatherHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	entries, err := ws.spaceWeather.GetPlanetaryKIndex()
	if err != nil {
		ws.observeSpaceWeather("kindex", "error")
		ws.companion.logger.Printf("K-index fetch failed: %v", err)
	} else {
		ws.observeSpaceWeather("kindex", "success")
		if latest, ok := spaceweather.LatestKIndex(entries); ok {
			response["k_index"] = latest.Kp
			response["k_index_time"] = latest.TimeTag.Format(time.RFC3339)
		}
	}

	regions, err := ws.spaceWeather.GetSolarRegions()
	if err != nil {
		ws.observeSpaceWeather("regions", "error")
		ws.companion.logger.Printf("Solar regions fetch failed: %v", err)
	} else {
		ws.observeSpaceWeather("regions", "success")
		response["sunspot_regions"] = regions
	}

	writeJSON(w, response)
}

// geocodeHandler resolves a place query to candidate locations.
func (ws *WebServer) geocodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "Missing query parameter q", http.StatusBadRequest)
		return
	}

	results, err := ws.searcher.Search(r.Context(), query)
	if err != nil {
		ws.observeGeocode("error")
		ws.companion.logger.Printf("Geocode search failed: %v", err)
		http.Error(w, "Search failed", http.StatusBadGateway)
		return
	}
	ws.observeGeocode("success")

	writeJSON(w, map[string]any{
		"query":   query,
		"results": results,
	})
}

// locationHandler updates the observer location, kicking off both
// recomputation streams.
func (ws *WebServer) locationHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var loc astro.Location
	if err := json.NewDecoder(r.Body).Decode(&loc); err != nil {
		http.Error(w, "Invalid location payload", http.StatusBadRequest)
		return
	}
	if loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
		http.Error(w, "Coordinates out of range", http.StatusBadRequest)
		return
	}

	ws.companion.SetLocation(loc)
	writeJSON(w, map[string]any{"accepted": true, "location": loc})
}

func (ws *WebServer) observeSpaceWeather(product, outcome string) {
	if ws.companion.metrics != nil {
		ws.companion.metrics.SpaceWeatherRequests.WithLabelValues(product, outcome).Inc()
	}
}

func (ws *WebServer) observeGeocode(result string) {
	if ws.companion.metrics != nil {
		ws.companion.metrics.GeocodeRequests.WithLabelValues(result).Inc()
	}
}

// wsHandler upgrades the connection and keeps it registered until the
// client goes away.
func (ws *WebServer) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.companion.logger.Printf("WebSocket upgrade error: %v", err)
		return
	}

	// Send the latest snapshot before registering the connection for
	// broadcasts: gorilla connections allow only one concurrent writer,
	// and the broadcast loop owns the connection once it is registered.
	if snap := ws.companion.Snapshot(); snap != nil {
		if err := conn.WriteJSON(snapshotMessage(snap)); err != nil {
			ws.companion.logger.Printf("Failed to send initial snapshot: %v", err)
		}
	}

	ws.clients.Store(conn, true)
	ws.trackClients()

	defer func() {
		ws.clients.Delete(conn)
		conn.Close()
		ws.trackClients()
	}()

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				ws.companion.logger.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// handleBroadcasts sends messages to all connected clients.
func (ws *WebServer) handleBroadcasts() {
	for {
		select {
		case message := <-ws.broadcast:
			ws.clients.Range(func(key, value any) bool {
				conn, ok := key.(*websocket.Conn)
				if !ok {
					return true
				}

				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					ws.companion.logger.Printf("WebSocket write error: %v", err)
					conn.Close()
					ws.clients.Delete(conn)
				}
				return true
			})
		case <-ws.done:
			return
		}
	}
}

// broadcastSnapshot is the companion's publish hook.
func (ws *WebServer) broadcastSnapshot(snap *astro.DailySnapshot) {
	message, err := json.Marshal(snapshotMessage(snap))
	if err != nil {
		ws.companion.logger.Printf("Failed to marshal snapshot broadcast: %v", err)
		return
	}

	select {
	case ws.broadcast <- message:
	case <-ws.done:
	}
}

func snapshotMessage(snap *astro.DailySnapshot) map[string]any {
	return map[string]any{
		"type":     "snapshot_update",
		"snapshot": snap,
	}
}

func (ws *WebServer) buildHealth() HealthResponse {
	dailyLoading, monthLoading := ws.companion.Loading()
	table, _, _ := ws.companion.MonthTable()

	return HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
		Companion: CompanionHealth{
			HasSnapshot:   ws.companion.Snapshot() != nil,
			HasMonthTable: table != nil,
			DailyLoading:  dailyLoading,
			MonthLoading:  monthLoading,
			Location:      ws.companion.Location().Label,
		},
		System: SystemHealth{
			Uptime: formatUptime(time.Since(ws.startTime)),
		},
	}
}

func (ws *WebServer) trackClients() {
	count := 0
	ws.clients.Range(func(key, value any) bool {
		count++
		return true
	})
	if ws.companion.metrics != nil {
		ws.companion.metrics.WebsocketClients.Set(float64(count))
	}
	ws.companion.logger.Printf("WebSocket clients: %d", count)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// formatUptime formats a duration as a string with seconds rounded to integer.
func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
