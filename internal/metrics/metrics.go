// Package metrics holds the Prometheus collectors exported on the private listener
// Package metrics 定义私有监听端口上导出的 Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fast_note_web"

// Outcome label values
// 结果标签取值
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	// BackendCalls counts provider calls by operation and outcome
	// BackendCalls 按操作与结果统计后端调用次数
	BackendCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "backend",
		Name:      "calls_total",
		Help:      "Calls made to the auth and data provider.",
	}, []string{"operation", "outcome"})

	// BackendLatency observes provider call latency
	// BackendLatency 后端调用耗时
	BackendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "backend",
		Name:      "call_duration_seconds",
		Help:      "Latency of calls made to the provider.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	// StaleResults counts async results dropped because a newer request or teardown superseded them
	// StaleResults 因被新请求或销毁取代而丢弃的异步结果数
	StaleResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stale_results_total",
		Help:      "Async results discarded because they were superseded.",
	}, []string{"controller"})

	// Rollbacks counts optimistic mutations restored after a failed remote call
	// Rollbacks 乐观更新失败后回滚的次数
	Rollbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "optimistic_rollbacks_total",
		Help:      "Optimistic list mutations rolled back.",
	})

	// Workspaces is the number of live browser workspaces
	// Workspaces 当前存活的浏览器工作区数量
	Workspaces = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "workspaces",
		Help:      "Live browser workspaces.",
	})
)
