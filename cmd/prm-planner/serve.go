package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/spf13/cobra"

	"prm-planner/pkg/collision"
	"prm-planner/pkg/geometry"
	"prm-planner/pkg/planner"
	"prm-planner/pkg/scene"
)

type PlanRequest struct {
	Scene     string             `json:"scene,omitempty"`     // Built-in scene, used when Obstacles is empty
	Obstacles []geometry.Polygon `json:"obstacles,omitempty"` // Optional: custom obstacle set
	Start     *geometry.Point    `json:"start,omitempty"`
	Goal      *geometry.Point    `json:"goal,omitempty"`
	Config    *planner.Config    `json:"config,omitempty"`
}

type ReplanRequest struct {
	Start geometry.Point `json:"start"`
	Goal  geometry.Point `json:"goal"`
}

type PlanResponse struct {
	Success    bool          `json:"success"`
	Message    string        `json:"message,omitempty"`
	Path       geometry.Path `json:"path,omitempty"`
	Cost       *float64      `json:"cost,omitempty"`
	Episode    int           `json:"episode"`
	Milestones int           `json:"milestones"`
	Edges      int           `json:"edges"`
	Threshold  float64       `json:"threshold"`
	FreeVolume float64       `json:"freeVolume"`
	Gamma      float64       `json:"gamma"`
}

// server holds the planner of the latest /plan request.
type server struct {
	mu      sync.RWMutex
	current *planner.Planner
}

func newServer() *server {
	return &server{}
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/plan", corsMiddleware(s.planHandler))
	mux.HandleFunc("/replan", corsMiddleware(s.replanHandler))
	mux.HandleFunc("/roadmapLines", corsMiddleware(s.roadmapLinesHandler))
	mux.HandleFunc("/snapshot", corsMiddleware(s.snapshotHandler))
	mux.HandleFunc("/health", corsMiddleware(s.healthHandler))
	return mux
}

// corsMiddleware adds CORS headers to allow frontend requests
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("⚠️  Failed to encode response: %v\n", err)
	}
}

func planResponse(p *planner.Planner) PlanResponse {
	st := p.Stats()
	resp := PlanResponse{
		Success:    st.PathExists,
		Path:       st.Path,
		Episode:    st.Episode,
		Milestones: st.Milestones,
		Edges:      st.Edges,
		Threshold:  st.Threshold,
		FreeVolume: st.FreeVolume,
		Gamma:      st.Gamma,
	}
	if st.PathExists {
		cost := st.Cost
		resp.Cost = &cost
	} else {
		resp.Message = "No path found in the roadmap"
	}
	return resp
}

// POST /plan - Build a new planner and run one episode
func (s *server) planHandler(w http.ResponseWriter, r *http.Request) {
	log.Println("========================================")
	log.Println("📍 Plan request received")

	if r.Method != http.MethodPost {
		log.Printf("❌ Method not allowed: %s\n", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Fields missing from the request config keep their defaults
	cfg := planner.DefaultConfig()
	req := PlanRequest{Config: &cfg}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Invalid request body: %v\n", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Set defaults
	if req.Scene == "" {
		req.Scene = "default"
	}
	sc, err := scene.Builtin(req.Scene)
	if err != nil {
		log.Printf("❌ %v\n", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Obstacles) > 0 {
		sc.Obstacles = req.Obstacles
	}
	if req.Start != nil {
		sc.Start = *req.Start
	}
	if req.Goal != nil {
		sc.Goal = *req.Goal
	}
	log.Printf("   Start: %s\n", sc.Start)
	log.Printf("   Goal:  %s\n", sc.Goal)
	log.Printf("   Obstacles: %d polygons, mode %s\n", len(sc.Obstacles), cfg.Mode)

	obstacles, err := collision.NewObstacles(sc.Obstacles)
	if err != nil {
		log.Printf("❌ Invalid obstacles: %v\n", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := planner.New(obstacles, cfg, sc.Start, sc.Goal)
	if err != nil {
		log.Printf("❌ Invalid config: %v\n", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p.Run()
	resp := planResponse(p)

	s.mu.Lock()
	s.current = p
	s.mu.Unlock()

	if resp.Success {
		log.Printf("✅ Path found with %d waypoints, cost %.4f\n", len(resp.Path), *resp.Cost)
	} else {
		log.Println("❌ No path found in the roadmap")
	}
	log.Println("========================================")
	writeJSON(w, http.StatusOK, resp)
}

// POST /replan - Run a new episode with new endpoints on the current planner
func (s *server) replanHandler(w http.ResponseWriter, r *http.Request) {
	log.Println("========================================")
	log.Println("🔄 Replan request received")

	if r.Method != http.MethodPost {
		log.Printf("❌ Method not allowed: %s\n", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ReplanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Invalid request body: %v\n", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		log.Println("❌ No planner available")
		http.Error(w, "No planner. Call /plan first", http.StatusBadRequest)
		log.Println("========================================")
		return
	}

	s.current.Reset(req.Start, req.Goal)
	s.current.Run()
	resp := planResponse(s.current)

	log.Printf("✅ Episode %d finished, path found: %v\n", resp.Episode, resp.Success)
	log.Println("========================================")
	writeJSON(w, http.StatusOK, resp)
}

// GET /roadmapLines - Get roadmap edges as line strings for visualization
func (s *server) roadmapLinesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		log.Printf("❌ Method not allowed: %s\n", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		http.Error(w, "No planner. Call /plan first", http.StatusBadRequest)
		return
	}

	rm := s.current.Roadmap()
	lines := rm.Lines()
	log.Printf("📊 Returning %d line segments\n", len(lines))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"lines":         lines,
		"numMilestones": rm.NumMilestones(),
		"numEdges":      len(lines),
	})
}

// GET /snapshot - Full roadmap state of the current episode
func (s *server) snapshotHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		http.Error(w, "No planner. Call /plan first", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.current.Roadmap().Snapshot())
}

// GET /health - Health check endpoint
func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	hasPlanner := s.current != nil
	milestones := 0
	if hasPlanner {
		milestones = s.current.Roadmap().NumMilestones()
	}
	s.mu.RUnlock()

	status := "ready"
	if !hasPlanner {
		status = "waiting for plan"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        status,
		"hasPlanner":    hasPlanner,
		"numMilestones": milestones,
	})
}

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve plans over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Println("========================================")
		log.Println("🚀 PRM Planner Server")
		log.Println("========================================")
		log.Printf("Server starting on %s\n", serveAddr)
		log.Println("")
		log.Println("Endpoints:")
		log.Println("  POST /plan           - Build a roadmap and plan between start and goal")
		log.Println("  POST /replan         - New endpoints on the current obstacles")
		log.Println("  GET  /roadmapLines   - Get roadmap edges for visualization")
		log.Println("  GET  /snapshot       - Get milestones, edges and path")
		log.Println("  GET  /health         - Check server status")
		log.Println("")
		log.Println("CORS enabled for all origins")
		log.Println("========================================")

		return http.ListenAndServe(serveAddr, newServer().routes())
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}
