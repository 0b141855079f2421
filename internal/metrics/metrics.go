package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Task metrics
	TasksSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tboard_tasks_submitted_total",
			Help: "Total number of tasks submitted",
		},
		[]string{"func", "priority"},
	)

	TasksCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tboard_tasks_completed_total",
			Help: "Total number of tasks completed",
		},
		[]string{"func", "status"},
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tboard_task_duration_seconds",
			Help:    "Task execution duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		},
		[]string{"func"},
	)

	// Queue metrics
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tboard_queue_depth",
			Help: "Current number of tasks in a board queue",
		},
		[]string{"lane"},
	)

	ConcurrentTasks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tboard_concurrent_tasks",
			Help: "Current value of the board's concurrency counter",
		},
	)

	// Remote call metrics
	RemoteCallsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tboard_remote_calls_sent_total",
			Help: "Total number of remote calls dispatched",
		},
		[]string{"func"},
	)

	RemoteCallState = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tboard_remote_call_state_total",
			Help: "Total number of remote call state transitions",
		},
		[]string{"state"},
	)

	// Timer wheel metrics
	TimerFires = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tboard_timer_fires_total",
			Help: "Total number of timer wheel entries fired",
		},
		[]string{"kind"},
	)

	TimerPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tboard_timer_pending",
			Help: "Current number of pending timer wheel entries",
		},
	)

	// Bridge metrics
	BridgePublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tboard_bridge_published_total",
			Help: "Total number of wire commands published",
		},
		[]string{"tier", "cmd"},
	)

	BridgeConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tboard_bridge_consumed_total",
			Help: "Total number of wire commands consumed",
		},
		[]string{"tier", "cmd"},
	)

	BridgeReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tboard_bridge_reconnects_total",
			Help: "Total number of bridge reconnect attempts",
		},
	)

	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tboard_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tboard_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// WebSocket metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tboard_websocket_connections",
			Help: "Current number of WebSocket connections",
		},
	)

	WebSocketMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tboard_websocket_messages_total",
			Help: "Total number of WebSocket messages sent",
		},
		[]string{"type"},
	)
)

func RecordTaskSubmission(funcName, priority string) {
	TasksSubmitted.WithLabelValues(funcName, priority).Inc()
}

func RecordTaskCompletion(funcName, status string, duration float64) {
	TasksCompleted.WithLabelValues(funcName, status).Inc()
	TaskDuration.WithLabelValues(funcName).Observe(duration)
}

func UpdateQueueDepth(lane string, depth float64) {
	QueueDepth.WithLabelValues(lane).Set(depth)
}

func SetConcurrentTasks(count float64) {
	ConcurrentTasks.Set(count)
}

func RecordRemoteCallSent(funcName string) {
	RemoteCallsSent.WithLabelValues(funcName).Inc()
}

func RecordRemoteCallState(state string) {
	RemoteCallState.WithLabelValues(state).Inc()
}

func RecordTimerFire(kind string) {
	TimerFires.WithLabelValues(kind).Inc()
}

func SetTimerPending(count float64) {
	TimerPending.Set(count)
}

func RecordBridgePublished(tier, cmd string) {
	BridgePublished.WithLabelValues(tier, cmd).Inc()
}

func RecordBridgeConsumed(tier, cmd string) {
	BridgeConsumed.WithLabelValues(tier, cmd).Inc()
}

func RecordBridgeReconnect() {
	BridgeReconnects.Inc()
}

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration)
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}

func SetWebSocketConnections(count float64) {
	WebSocketConnections.Set(count)
}

func RecordWebSocketMessage(msgType string) {
	WebSocketMessages.WithLabelValues(msgType).Inc()
}
