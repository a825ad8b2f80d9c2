package gateway

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/glowsign/display-app/internal/display"
	"github.com/glowsign/display-app/internal/metrics"
	"github.com/glowsign/display-app/internal/problem"
	"github.com/glowsign/display-app/internal/ratelimit"
)

// displayRequest is the body of POST /display-text.
type displayRequest struct {
	Text string `json:"text"`
}

// displayResponse mirrors the upstream badge API's success body.
type displayResponse struct {
	Status string `json:"status"`
	Text   string `json:"text,omitempty"`
}

// newInstance returns a fresh per-request problem instance URI.
func newInstance() (id, instance string) {
	id = uuid.New().String()
	return id, "urn:uuid:" + id
}

func (s *Server) handleDisplayText(w http.ResponseWriter, r *http.Request) {
	id, instance := newInstance()

	if r.Method != http.MethodPost {
		methodNotAllowed(w, instance)
		return
	}

	var req displayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.InvalidRequest("request body is not valid JSON", instance).Write(w)
		return
	}

	s.submit(w, r, req.Text, display.SourceAPI, id, instance,
		displayResponse{Status: "Text displayed on LED", Text: req.Text})
}

func (s *Server) handleDisplaySummary(w http.ResponseWriter, r *http.Request) {
	id, instance := newInstance()

	if r.Method != http.MethodPost {
		methodNotAllowed(w, instance)
		return
	}

	// The upstream badge API acknowledges the summary without echoing it.
	s.submit(w, r, s.config.SummaryText, display.SourceSummary, id, instance,
		displayResponse{Status: "Summary displayed on LED"})
}

// submit runs the full accept path: rate limit, snapshot, validate, and
// forward. The original text reaches the renderer unchanged; okResp is the
// body written on acceptance.
func (s *Server) submit(w http.ResponseWriter, r *http.Request, text, source, id, instance string, okResp displayResponse) {
	if s.limiter != nil {
		allowed, _ := s.limiter.Allow(r.Context(), clientIP(r), ratelimit.RuleDisplay)
		if !allowed {
			problem.RateLimited(instance).Write(w)
			return
		}
	}

	snap, degraded, err := s.registry.Current(r.Context())
	if err != nil {
		metrics.ValidationsTotal.WithLabelValues("error").Inc()
		log.Printf("gateway: no usable icon snapshot for %s: %v", instance, err)
		problem.RegistryUnavailable(instance).Write(w)
		return
	}
	if degraded {
		w.Header().Set("X-Icon-Snapshot", "stale")
	}

	result := s.validator.Validate(text, snap)
	if !result.Accepted() {
		metrics.ValidationsTotal.WithLabelValues("rejected").Inc()
		for _, v := range result.Violations {
			metrics.ViolationsTotal.WithLabelValues(v.Reason).Inc()
		}
		problem.FromResult(result, instance).Write(w)
		return
	}
	metrics.ValidationsTotal.WithLabelValues("accepted").Inc()

	cmd := display.Command{
		ID:     id,
		Type:   display.CommandRender,
		Text:   text,
		Source: source,
		Units:  result.Units,
		Ts:     time.Now().UnixMilli(),
	}
	data, err := cmd.Encode()
	if err == nil {
		err = s.publisher.PublishRender(data)
	}
	if err != nil {
		log.Printf("gateway: forward to renderer failed for %s: %v", instance, err)
		problem.Internal("failed to forward message to the renderer", instance).Write(w)
		return
	}

	writeJSON(w, http.StatusOK, okResp)
}

func (s *Server) handleDisplayClear(w http.ResponseWriter, r *http.Request) {
	id, instance := newInstance()

	if r.Method != http.MethodPost {
		methodNotAllowed(w, instance)
		return
	}

	cmd := display.Command{ID: id, Type: display.CommandClear, Ts: time.Now().UnixMilli()}
	data, err := cmd.Encode()
	if err == nil {
		err = s.publisher.PublishClear(data)
	}
	if err != nil {
		log.Printf("gateway: clear failed for %s: %v", instance, err)
		problem.Internal("failed to forward clear to the renderer", instance).Write(w)
		return
	}

	writeJSON(w, http.StatusOK, displayResponse{Status: "Display cleared"})
}

// handlePredefinedIcons serves the icon codes from the current snapshot in
// the same token form the validator accepts. A degraded snapshot is still
// served; only a total registry outage fails.
func (s *Server) handlePredefinedIcons(w http.ResponseWriter, r *http.Request) {
	_, instance := newInstance()

	if r.Method != http.MethodGet {
		methodNotAllowed(w, instance)
		return
	}

	snap, degraded, err := s.registry.Current(r.Context())
	if err != nil {
		problem.RegistryUnavailable(instance).Write(w)
		return
	}
	if degraded {
		w.Header().Set("X-Icon-Snapshot", "stale")
	}

	syn := s.validator.Syntax()
	tokens := make([]string, 0, snap.Len())
	for _, code := range snap.Codes() {
		tokens = append(tokens, fmt.Sprintf("%c%s%c", syn.Open, code, syn.Close))
	}

	writeJSON(w, http.StatusOK, struct {
		Icons []string `json:"icons"`
	}{Icons: tokens})
}

func (s *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	_, instance := newInstance()

	if r.Method != http.MethodGet {
		methodNotAllowed(w, instance)
		return
	}

	var state *display.State
	if s.states != nil {
		var err error
		state, err = s.states.Get(r.Context())
		if err != nil {
			log.Printf("gateway: load display state: %v", err)
			problem.Internal("failed to load display state", instance).Write(w)
			return
		}
	}
	if state == nil {
		state = &display.State{} // nothing rendered yet
	}

	writeJSON(w, http.StatusOK, state)
}

// handleHealth responds with the gateway's health status as JSON, including
// uptime. It is used by load balancers for health checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}{
		Status: "ok",
		Uptime: time.Since(s.startedAt).Round(time.Second).String(),
	}
	writeJSON(w, http.StatusOK, resp)
}

// methodNotAllowed writes a 405 in the shared problem document shape.
func methodNotAllowed(w http.ResponseWriter, instance string) {
	doc := &problem.Document{
		Type:     problem.TypeInvalidRequest,
		Title:    "Method not allowed",
		Status:   http.StatusMethodNotAllowed,
		Detail:   "this endpoint does not support the request method",
		Instance: instance,
	}
	doc.Write(w)
}

// clientIP extracts the client address for rate limiting, honoring the
// first X-Forwarded-For hop when a proxy added one.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		for i := 0; i < len(fwd); i++ {
			if fwd[i] == ',' {
				return fwd[:i]
			}
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("gateway: encode response: %v", err)
	}
}
