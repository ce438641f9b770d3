package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/r3d91ll/tanita/pkg/analysis"
	"github.com/r3d91ll/tanita/pkg/errors"
	"github.com/r3d91ll/tanita/pkg/export"
	"github.com/r3d91ll/tanita/pkg/fields"
	"github.com/r3d91ll/tanita/pkg/publish"
	"github.com/r3d91ll/tanita/pkg/reader"
)

const shutdownTimeout = 5 * time.Second

// Loader reads the input set. It is called once at start and on every poll.
type Loader func(ctx context.Context) (*reader.LoadResult, error)

// Config holds server settings.
type Config struct {
	Addr string

	// PollInterval is how often Watch reloads. Zero disables polling.
	PollInterval time.Duration

	// AllowedOrigins lists accepted WebSocket origins; "*" accepts any.
	// Empty falls back to the same-origin check.
	AllowedOrigins []string

	Logger  *slog.Logger
	Metrics *Metrics
}

// Server holds the latest decoded dataset and serves it.
type Server struct {
	cfg      Config
	load     Loader
	hub      *Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	state *snapshot
}

// snapshot is one decoded dataset. It is never modified after Reload
// publishes it.
type snapshot struct {
	hash     *export.DatasetHash
	rows     []reader.Row // chronological
	messages []publish.Message
	profiles []publish.Message
	keys     map[string]bool
	warnings int
	loadedAt time.Time
}

// NewServer creates a server. Nothing is loaded until Reload or
// ListenAndServe runs.
func NewServer(cfg Config, load Loader) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		load:   load,
		logger: cfg.Logger,
		hub:    NewHub(cfg.Logger, cfg.Metrics),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
	}
	return s
}

// Hub returns the client hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// originChecker returns nil, the upgrader's same-origin default, when no
// origins are configured.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// -----------------------------------------------------------------------------
// Dataset
// -----------------------------------------------------------------------------

// rowKey identifies a measurement by content so rewritten files do not
// re-announce rows that only moved.
func rowKey(row reader.Row) string {
	var sb strings.Builder
	sb.WriteString(row.Source)
	for _, code := range row.Record.Codes() {
		sb.WriteString("|")
		sb.WriteString(code)
		sb.WriteString("=")
		sb.WriteString(row.Record.Value(code))
	}
	return sb.String()
}

func newSnapshot(res *reader.LoadResult) *snapshot {
	rows := analysis.Chronological(res.Measurements)
	st := &snapshot{
		hash:     export.ComputeDatasetHash(res.Measurements, res.Profiles),
		rows:     rows,
		messages: make([]publish.Message, 0, len(rows)),
		profiles: make([]publish.Message, 0, len(res.Profiles)),
		keys:     make(map[string]bool, len(rows)),
		warnings: len(res.Warnings),
		loadedAt: time.Now(),
	}
	for _, row := range rows {
		st.messages = append(st.messages, publish.NewMessage(row))
		st.keys[rowKey(row)] = true
	}
	for _, row := range res.Profiles {
		st.profiles = append(st.profiles, publish.NewMessage(row))
	}
	return st
}

// ReloadData is the payload of a reload event.
type ReloadData struct {
	Dataset      string `json:"dataset"`
	Measurements int    `json:"measurements"`
	Profiles     int    `json:"profiles"`
	Added        int    `json:"added"`
}

// Reload reads the input set and, when its content changed, replaces the
// served dataset. Measurements absent from the previous dataset are pushed
// to the measurements channel in chronological order, then a reload event
// goes to the status channel. The first load announces nothing.
func (s *Server) Reload(ctx context.Context) (bool, error) {
	res, err := s.load(ctx)
	if err != nil {
		s.cfg.Metrics.reload(reloadError)
		return false, err
	}
	next := newSnapshot(res)

	s.mu.Lock()
	prev := s.state
	if prev != nil && prev.hash.Hash == next.hash.Hash {
		s.mu.Unlock()
		s.cfg.Metrics.reload(reloadUnchanged)
		return false, nil
	}
	s.state = next
	s.mu.Unlock()

	s.cfg.Metrics.reload(reloadChanged)
	s.cfg.Metrics.dataset(len(next.messages), len(next.profiles))

	added := 0
	if prev != nil {
		for i, row := range next.rows {
			if prev.keys[rowKey(row)] {
				continue
			}
			added++
			if _, err := s.hub.Publish(ChannelMeasurements, newEvent(EventMeasurement, next.messages[i])); err != nil {
				return true, err
			}
		}
		if _, err := s.hub.Publish(ChannelStatus, newEvent(EventReload, ReloadData{
			Dataset:      next.hash.ShortHash(),
			Measurements: len(next.messages),
			Profiles:     len(next.profiles),
			Added:        added,
		})); err != nil {
			return true, err
		}
	}
	s.logger.Info("dataset loaded",
		"dataset", next.hash.ShortHash(),
		"measurements", len(next.messages),
		"profiles", len(next.profiles),
		"added", added)
	return true, nil
}

func (s *Server) current() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Watch reloads every PollInterval until ctx is cancelled. Failed reloads
// are logged and the previous dataset stays served.
func (s *Server) Watch(ctx context.Context) {
	if s.cfg.PollInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Reload(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("reload failed", "error", err)
			}
		}
	}
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// ListenAndServe binds Addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.ExportWrap(err, errors.ErrServeListenFailed, "failed to bind feed address").
			WithContext("addr", s.cfg.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve loads the dataset, then serves HTTP on ln with the hub and the
// poller running alongside. It returns after a graceful shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if _, err := s.Reload(ctx); err != nil {
		ln.Close()
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); s.hub.Run(ctx) }()
	go func() { defer wg.Done(); s.Watch(ctx) }()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("feed listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	s.logger.Info("feed shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = err
	}
	cancel()
	wg.Wait()
	return serveErr
}

// -----------------------------------------------------------------------------
// Routes
// -----------------------------------------------------------------------------

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(s.recoverer)
	r.Use(s.cfg.Metrics.Instrument)

	r.Get("/healthz", s.handleHealth)
	if s.cfg.Metrics != nil {
		r.Handle("/metrics", s.cfg.Metrics.Handler())
	}
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Get("/dataset", s.handleDataset)
		r.Get("/measurements", s.handleMeasurements)
		r.Get("/measurements/latest", s.handleLatest)
		r.Get("/measurements/{n}", s.handleMeasurement)
		r.Get("/profiles", s.handleProfiles)
		r.Get("/compare", s.handleCompare)
		r.Get("/fields", s.handleFields)
		r.Get("/fields/{code}", s.handleField)
	})
	return r
}

// Response is the JSON envelope of every API reply.
type Response struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError is the error part of a Response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Success: status < 300, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Error: &APIError{Code: code, Message: message}})
}

// loaded writes 503 and returns nil before the first successful load.
func (s *Server) loaded(w http.ResponseWriter) *snapshot {
	st := s.current()
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "not_loaded", "No dataset loaded yet")
	}
	return st
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.current()
	body := map[string]any{"status": "ok", "clients": s.hub.ClientCount()}
	if st == nil {
		body["status"] = "loading"
	} else {
		body["dataset"] = st.hash.ShortHash()
		body["measurements"] = len(st.messages)
	}
	writeJSON(w, http.StatusOK, body)
}

// DatasetInfo describes the served dataset.
type DatasetInfo struct {
	*export.DatasetHash
	Warnings int       `json:"warnings"`
	LoadedAt time.Time `json:"loaded_at"`
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	st := s.loaded(w)
	if st == nil {
		return
	}
	writeJSON(w, http.StatusOK, DatasetInfo{DatasetHash: st.hash, Warnings: st.warnings, LoadedAt: st.loadedAt})
}

// handleMeasurements lists measurements oldest first. ?source= narrows to
// one file.
func (s *Server) handleMeasurements(w http.ResponseWriter, r *http.Request) {
	st := s.loaded(w)
	if st == nil {
		return
	}
	source := r.URL.Query().Get("source")
	if source == "" {
		writeJSON(w, http.StatusOK, st.messages)
		return
	}
	out := []publish.Message{}
	for _, m := range st.messages {
		if strings.EqualFold(m.Source, source) {
			out = append(out, m)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// MeasurementDetail is one measurement with its presentation data.
type MeasurementDetail struct {
	publish.Message
	Groups []GroupView    `json:"groups"`
	Gauges []GaugeReading `json:"gauges"`
}

// GroupView is one tier of a measurement in presentation order.
type GroupView struct {
	Tier    string      `json:"tier"`
	Entries []EntryView `json:"entries"`
}

// EntryView is one field with its label and formatted value.
type EntryView struct {
	Code    string `json:"code"`
	Label   string `json:"label"`
	Value   string `json:"value"`
	Display string `json:"display"`
	Known   bool   `json:"known"`
}

// GaugeReading is a gauge placement in JSON form.
type GaugeReading struct {
	Code   string  `json:"code"`
	Title  string  `json:"title"`
	Value  float64 `json:"value"`
	Status string  `json:"status"`
	Color  string  `json:"color"`
}

func detail(st *snapshot, i int) MeasurementDetail {
	row := st.rows[i]
	d := MeasurementDetail{
		Message: st.messages[i],
		Gauges:  []GaugeReading{},
	}
	for _, g := range fields.Grouped(row.Record.Fields()) {
		gv := GroupView{Tier: g.Tier.String()}
		for _, e := range g.Entries {
			gv.Entries = append(gv.Entries, EntryView{
				Code:    e.Code,
				Label:   e.Meaning.Label,
				Value:   e.Value,
				Display: e.Display(),
				Known:   e.Meaning.Known,
			})
		}
		d.Groups = append(d.Groups, gv)
	}
	for _, rd := range analysis.Gauges(row.Record) {
		d.Gauges = append(d.Gauges, GaugeReading{
			Code:   rd.Gauge.Code,
			Title:  rd.Gauge.Title,
			Value:  rd.Value,
			Status: rd.Status(),
			Color:  rd.Gauge.Bands[rd.Band].Color,
		})
	}
	return d
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	st := s.loaded(w)
	if st == nil {
		return
	}
	if len(st.rows) == 0 {
		writeError(w, http.StatusNotFound, "no_measurements", "The dataset has no measurements")
		return
	}
	writeJSON(w, http.StatusOK, detail(st, len(st.rows)-1))
}

// handleMeasurement serves the n-th measurement, 1-based, oldest first.
func (s *Server) handleMeasurement(w http.ResponseWriter, r *http.Request) {
	st := s.loaded(w)
	if st == nil {
		return
	}
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "invalid_index", "Measurement index must be a positive number")
		return
	}
	if n > len(st.rows) {
		writeError(w, http.StatusNotFound, "not_found", "No measurement "+strconv.Itoa(n))
		return
	}
	writeJSON(w, http.StatusOK, detail(st, n-1))
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	st := s.loaded(w)
	if st == nil {
		return
	}
	writeJSON(w, http.StatusOK, st.profiles)
}

// DeltaView is a Delta in JSON form. Diff is nil when either side is
// missing or not numeric.
type DeltaView struct {
	Code     string   `json:"code"`
	Label    string   `json:"label"`
	Unit     string   `json:"unit,omitempty"`
	Previous string   `json:"previous"`
	Current  string   `json:"current"`
	Diff     *float64 `json:"diff"`
	Text     string   `json:"text"`
	Trend    string   `json:"trend"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	st := s.loaded(w)
	if st == nil {
		return
	}
	cmp, ok := analysis.LatestComparison(st.rows)
	if !ok {
		writeError(w, http.StatusNotFound, "not_enough_measurements", "Comparison needs at least two measurements")
		return
	}
	out := make([]DeltaView, 0, len(cmp.Deltas))
	for _, d := range cmp.Deltas {
		v := DeltaView{
			Code:     d.Code,
			Label:    d.Label,
			Unit:     d.Unit,
			Previous: d.PreviousText(),
			Current:  d.CurrentText(),
			Text:     d.DiffText(),
			Trend:    d.Trend.String(),
		}
		if d.HasDiff {
			diff := d.Diff
			v.Diff = &diff
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}

// FieldView is a dictionary entry in JSON form.
type FieldView struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Unit  string `json:"unit,omitempty"`
	Kind  string `json:"kind"`
	Tier  string `json:"tier"`
	Known bool   `json:"known"`
}

func fieldView(m fields.Meaning) FieldView {
	return FieldView{
		Code:  m.Code,
		Label: m.Label,
		Unit:  m.Unit,
		Kind:  m.Kind.String(),
		Tier:  m.Tier.String(),
		Known: m.Known,
	}
}

// handleFields lists the dictionary in presentation order. ?q= searches
// codes and labels.
func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	meanings := fields.All()
	if q := r.URL.Query().Get("q"); q != "" {
		meanings = fields.Search(q)
	}
	out := make([]FieldView, 0, len(meanings))
	for _, m := range meanings {
		out = append(out, fieldView(m))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleField describes one code. Unknown codes answer with known=false
// rather than 404, matching how they are displayed.
func (s *Server) handleField(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, fieldView(fields.Describe(chi.URLParam(r, "code"))))
}

// handleWebSocket upgrades the connection, queues a snapshot event and
// starts the client's pumps. The client subscribes to receive updates.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(s.hub, conn)
	if st := s.current(); st != nil {
		client.queue(newEvent(EventSnapshot, ReloadData{
			Dataset:      st.hash.ShortHash(),
			Measurements: len(st.messages),
			Profiles:     len(st.profiles),
		}))
	}
	if !s.hub.Register(client) {
		return
	}

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

// statusWriter captures the status code and byte count. It forwards
// Hijack so WebSocket upgrades pass through.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written int64
}

func (rw *statusWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

func (rw *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

func (rw *statusWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"bytes", rw.written,
			"latency", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				s.logger.Error("handler panic", "panic", v, "stack", string(debug.Stack()))
				writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
