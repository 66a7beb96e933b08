package api

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"net/http"
	"time"

	"AmplyBrain/internal/action"
	"AmplyBrain/internal/assistant"
	"AmplyBrain/internal/calendar"
	"AmplyBrain/internal/dispatch"
	xerrors "AmplyBrain/internal/errors"
	"AmplyBrain/internal/observability/metrics"
)

// Server 负责暴露 REST 接口，供外部驱动助手执行。
type Server struct {
	addr            string
	orchestrator    *assistant.Orchestrator
	registry        *action.Registry
	dispatcher      *dispatch.Dispatcher
	scanner         *calendar.Scanner
	collector       *metrics.Collector
	readTimeout     time.Duration
	writeTimeout    time.Duration
	shutdownTimeout time.Duration
}

// ServerOption 定义可选的服务配置。
type ServerOption func(*Server)

// WithDispatcher 配置自动动作派发器。配置后，助手响应中的 auto
// 动作会被提交执行。
func WithDispatcher(d *dispatch.Dispatcher) ServerOption {
	return func(s *Server) { s.dispatcher = d }
}

// WithScanner 配置提醒扫描器。
func WithScanner(sc *calendar.Scanner) ServerOption {
	return func(s *Server) { s.scanner = sc }
}

// WithMetrics 配置指标收集器并启用 /metrics。
func WithMetrics(c *metrics.Collector) ServerOption {
	return func(s *Server) { s.collector = c }
}

// WithTimeouts 配置服务超时。
func WithTimeouts(read, write, shutdown time.Duration) ServerOption {
	return func(s *Server) {
		s.readTimeout = read
		s.writeTimeout = write
		s.shutdownTimeout = shutdown
	}
}

// NewServer 构造 API 服务实例。
func NewServer(addr string, orchestrator *assistant.Orchestrator, registry *action.Registry, opts ...ServerOption) *Server {
	s := &Server{
		addr:            addr,
		orchestrator:    orchestrator,
		registry:        registry,
		readTimeout:     15 * time.Second,
		writeTimeout:    30 * time.Second,
		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Handler 返回完整的路由处理器，测试可直接使用。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/assistant", s.handleAssistant)
	mux.HandleFunc("/api/v1/actions/execute", s.handleExecuteAction)
	mux.HandleFunc("/api/v1/actions/executors", s.handleListExecutors)
	mux.HandleFunc("/api/v1/engine", s.handleEngine)
	mux.HandleFunc("/api/v1/calendar/reminders/run", s.handleReminderScan)
	mux.HandleFunc("/healthz", s.handleHealth)

	var handler http.Handler = mux
	if s.collector != nil {
		mux.Handle("/metrics", s.collector.Handler())
		handler = s.collector.Middleware(mux)
	}
	return handler
}

// Start 启动 HTTP 服务，直到上下文取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           withContext(ctx, s.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.readTimeout,
		WriteTimeout:      s.writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// handleAssistant 处理一轮助手调用，并把响应里的 auto 动作提交给
// 派发器。
func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持 POST", http.StatusMethodNotAllowed)
		return
	}

	var req assistant.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeClientError(w, "请求体解析失败")
		return
	}

	ctx := r.Context()
	resp, err := s.orchestrator.RunAssistant(ctx, req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if s.dispatcher != nil {
		for _, act := range resp.Actions {
			if _, err := s.dispatcher.Submit(ctx, act); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleExecuteAction 执行单个动作。请求体非法时按执行契约返回
// CLIENT_ERROR 信封而不是裸 400。
func (s *Server) handleExecuteAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持 POST", http.StatusMethodNotAllowed)
		return
	}

	var act action.Action
	if err := json.NewDecoder(r.Body).Decode(&act); err != nil {
		writeClientError(w, "动作解析失败: "+err.Error())
		return
	}

	result := action.Execute(r.Context(), s.registry, act, action.ExecContext{
		UserID: r.Header.Get("X-User-ID"),
	})
	if s.collector != nil {
		outcome := "ok"
		if !result.OK && result.Error != nil {
			outcome = string(result.Error.Code)
		}
		s.collector.ObserveAction(string(result.Kind), outcome)
	}
	writeJSON(w, http.StatusOK, result)
}

// handleListExecutors 列出已注册的动作类型。
func (s *Server) handleListExecutors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持 GET", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"kinds": s.registry.Kinds()})
}

type engineRequest struct {
	Engine string `json:"engine"`
	Mode   string `json:"mode"`
	Goal   string `json:"goal"`
}

// handleEngine 直接调用指定引擎，绕过路由层。
func (s *Server) handleEngine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持 POST", http.StatusMethodNotAllowed)
		return
	}

	var req engineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeClientError(w, "请求体解析失败")
		return
	}

	var engine assistant.Engine
	switch assistant.Engine(req.Engine) {
	case assistant.EnginePlan, assistant.EngineWorkout, assistant.EngineSummary:
		engine = assistant.Engine(req.Engine)
	default:
		writeClientError(w, "未知的引擎: "+req.Engine)
		return
	}

	output := assistant.RunEngine(engine, assistant.NormalizeMode(req.Mode), req.Goal)
	writeJSON(w, http.StatusOK, output)
}

// handleReminderScan 触发一次提醒扫描。
func (s *Server) handleReminderScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "仅支持 GET/POST", http.StatusMethodNotAllowed)
		return
	}
	if s.scanner == nil {
		http.Error(w, "提醒扫描未启用", http.StatusServiceUnavailable)
		return
	}

	result, err := s.scanner.Run(r.Context(), time.Now().UTC())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeClientError 按执行契约返回 ok=false 的结果信封，HTTP 状态
// 仍是 200：执行层的失败不是传输层的失败。
func writeClientError(w http.ResponseWriter, detail string) {
	result := action.Result{
		OK: false,
		Error: &action.ResultError{
			Code:   xerrors.CodeClientError,
			Detail: detail,
		},
		ExecutedAt: action.NowISO(),
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// withContext 确保请求处理能够感知根上下文取消。
func withContext(ctx context.Context, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			http.Error(w, "服务已关闭", http.StatusServiceUnavailable)
			return
		default:
		}
		handler.ServeHTTP(w, r)
	})
}
