package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	llmRequestsTotal atomic.Uint64
	llmAttemptsTotal atomic.Uint64
	llmRetriesTotal  atomic.Uint64
	llmFailures      = newLabeledCounter("kind")

	uploadTransitions         = newLabeledCounter("to")
	uploadTransitionsRejected = newLabeledCounter("reason")
	uploadAnalysisCompleted   atomic.Uint64
	uploadAnalysisFailed      atomic.Uint64

	workerJobs = newLabeledCounter("outcome")

	llmDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncLLMRequest counts one logical completion request.
func IncLLMRequest() {
	llmRequestsTotal.Add(1)
}

// AddLLMAttempts records how many HTTP attempts a request took.
func AddLLMAttempts(attempts int) {
	if attempts <= 0 {
		return
	}
	llmAttemptsTotal.Add(uint64(attempts))
	if attempts > 1 {
		llmRetriesTotal.Add(uint64(attempts - 1))
	}
}

// IncLLMFailure counts a failed request by error kind.
func IncLLMFailure(kind string) {
	llmFailures.Inc(kind)
}

// ObserveLLMDurationMs records a request duration in milliseconds.
func ObserveLLMDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	llmDuration.Observe(value)
}

// IncUploadTransition counts an applied status transition by target status.
func IncUploadTransition(to string) {
	uploadTransitions.Inc(to)
}

// IncUploadTransitionRejected counts a refused transition by reason.
func IncUploadTransitionRejected(reason string) {
	uploadTransitionsRejected.Inc(reason)
}

// IncUploadAnalysisCompleted increments the pipeline completed counter.
func IncUploadAnalysisCompleted() {
	uploadAnalysisCompleted.Add(1)
}

// IncUploadAnalysisFailed increments the pipeline failed counter.
func IncUploadAnalysisFailed() {
	uploadAnalysisFailed.Add(1)
}

// IncWorkerJob counts a queue message handled by the worker by outcome
// (received, completed, failed, dropped).
func IncWorkerJob(outcome string) {
	workerJobs.Inc(outcome)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "llm_requests_total", "Total LLM completion requests", llmRequestsTotal.Load())
	writeCounter(&buf, "llm_attempts_total", "Total LLM HTTP attempts", llmAttemptsTotal.Load())
	writeCounter(&buf, "llm_retries_total", "Total LLM retry attempts", llmRetriesTotal.Load())
	writeLabeledCounter(&buf, "llm_failures_total", "LLM failures by kind", llmFailures)
	writeHistogram(&buf, "llm_request_duration_ms", "LLM request duration in milliseconds", llmDuration.Snapshot())
	writeLabeledCounter(&buf, "upload_transitions_total", "Applied upload status transitions", uploadTransitions)
	writeLabeledCounter(&buf, "upload_transitions_rejected_total", "Refused upload status transitions", uploadTransitionsRejected)
	writeCounter(&buf, "upload_analysis_completed_total", "Upload analyses completed", uploadAnalysisCompleted.Load())
	writeCounter(&buf, "upload_analysis_failed_total", "Upload analyses failed", uploadAnalysisFailed.Load())
	writeLabeledCounter(&buf, "worker_jobs_total", "Queue messages handled by the worker", workerJobs)
	return buf.String()
}

type labeledCounter struct {
	label  string
	mu     sync.Mutex
	values map[string]uint64
}

func newLabeledCounter(label string) *labeledCounter {
	return &labeledCounter{label: label, values: make(map[string]uint64)}
}

func (l *labeledCounter) Inc(value string) {
	if value == "" {
		value = "unknown"
	}
	l.mu.Lock()
	l.values[value]++
	l.mu.Unlock()
}

func (l *labeledCounter) snapshot() ([]string, map[string]uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]uint64, len(l.values))
	keys := make([]string, 0, len(l.values))
	for k, v := range l.values {
		out[k] = v
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeLabeledCounter(buf *bytes.Buffer, name, help string, counter *labeledCounter) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys, values := counter.snapshot()
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, counter.label, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// SinceMillis returns the elapsed time since start in milliseconds.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
