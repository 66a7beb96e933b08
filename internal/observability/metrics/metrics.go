// Package metrics 维护进程内计数器并以 Prometheus 文本格式暴露。
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Collector 聚合 HTTP 与动作执行的指标。所有方法并发安全。
type Collector struct {
	mu sync.RWMutex

	httpRequests  map[string]int64 // path|status -> count
	httpDurations map[string]float64
	actionResults map[string]int64 // kind|outcome -> count
	queueDepth    int64
	startedAt     time.Time
}

// NewCollector 创建收集器。
func NewCollector() *Collector {
	return &Collector{
		httpRequests:  make(map[string]int64),
		httpDurations: make(map[string]float64),
		actionResults: make(map[string]int64),
		startedAt:     time.Now().UTC(),
	}
}

// ObserveHTTP 记录一次 HTTP 请求。
func (c *Collector) ObserveHTTP(path string, status int, elapsed time.Duration) {
	key := path + "|" + strconv.Itoa(status)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.httpRequests[key]++
	c.httpDurations[path] += elapsed.Seconds()
}

// ObserveAction 记录一次动作执行结果。outcome 是 ok 或错误码。
func (c *Collector) ObserveAction(kind, outcome string) {
	key := kind + "|" + outcome
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actionResults[key]++
}

// SetQueueDepth 更新队列深度仪表。
func (c *Collector) SetQueueDepth(depth int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queueDepth = depth
}

// Handler 以 Prometheus 文本格式输出全部指标。
func (c *Collector) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		c.mu.RLock()
		defer c.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		fmt.Fprintln(w, "# HELP amply_uptime_seconds 进程启动至今的秒数")
		fmt.Fprintln(w, "# TYPE amply_uptime_seconds gauge")
		fmt.Fprintf(w, "amply_uptime_seconds %f\n", time.Since(c.startedAt).Seconds())

		fmt.Fprintln(w, "# HELP amply_http_requests_total HTTP 请求总数")
		fmt.Fprintln(w, "# TYPE amply_http_requests_total counter")
		for _, key := range sortedKeys(c.httpRequests) {
			path, status := splitKey(key)
			fmt.Fprintf(w, "amply_http_requests_total{path=%q,status=%q} %d\n", path, status, c.httpRequests[key])
		}

		fmt.Fprintln(w, "# HELP amply_http_duration_seconds_sum HTTP 处理耗时累计")
		fmt.Fprintln(w, "# TYPE amply_http_duration_seconds_sum counter")
		for _, path := range sortedFloatKeys(c.httpDurations) {
			fmt.Fprintf(w, "amply_http_duration_seconds_sum{path=%q} %f\n", path, c.httpDurations[path])
		}

		fmt.Fprintln(w, "# HELP amply_action_results_total 动作执行结果总数")
		fmt.Fprintln(w, "# TYPE amply_action_results_total counter")
		for _, key := range sortedKeys(c.actionResults) {
			kind, outcome := splitKey(key)
			fmt.Fprintf(w, "amply_action_results_total{kind=%q,outcome=%q} %d\n", kind, outcome, c.actionResults[key])
		}

		fmt.Fprintln(w, "# HELP amply_queue_depth 自动动作队列深度")
		fmt.Fprintln(w, "# TYPE amply_queue_depth gauge")
		fmt.Fprintf(w, "amply_queue_depth %d\n", c.queueDepth)
	})
}

// Middleware 包装 HTTP 处理器并记录请求指标。
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		c.ObserveHTTP(r.URL.Path, recorder.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedFloatKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func splitKey(key string) (string, string) {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '|' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}
