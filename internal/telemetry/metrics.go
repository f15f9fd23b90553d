package telemetry

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы вызова узла (метка outcome).
const (
	OutcomeSucceeded    = "succeeded"
	OutcomeUnregistered = "unregistered"
	OutcomeFailed       = "failed"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graphflow_http_requests_total",
		Help: "HTTP requests handled by graphflow-api, by method and status.",
	}, []string{"method", "status"})

	workflowsSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "graphflow_workflows_saved_total",
		Help: "Workflows saved through save_workflow.",
	})

	nodeInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graphflow_node_invocations_total",
		Help: "Node handler invocations, by node type and outcome.",
	}, []string{"node_type", "outcome"})

	auditEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graphflow_audit_events_total",
		Help: "Events consumed by graphflow-audit, by message type.",
	}, []string{"type"})
)

// MethodOther — метка для нестандартных HTTP методов.
const MethodOther = "OTHER"

// ObserveHTTPRequest учитывает обработанный HTTP запрос.
// Нестандартные методы считаются как MethodOther.
func ObserveHTTPRequest(method string, status int) {
	httpRequests.WithLabelValues(methodLabel(method), strconv.Itoa(status)).Inc()
}

func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodConnect,
		http.MethodOptions, http.MethodTrace:
		return method
	default:
		return MethodOther
	}
}

// ObserveWorkflowSaved учитывает сохранение workflow.
func ObserveWorkflowSaved() {
	workflowsSaved.Inc()
}

// ObserveNodeInvocation учитывает вызов узла.
// Для незарегистрированных типов метка node_type схлопывается в "unregistered",
// чтобы клиент не мог раздувать число серий.
func ObserveNodeInvocation(nodeType, outcome string) {
	if outcome == OutcomeUnregistered {
		nodeType = OutcomeUnregistered
	}
	nodeInvocations.WithLabelValues(nodeType, outcome).Inc()
}

// ObserveAuditEvent учитывает событие, прочитанное аудитом.
func ObserveAuditEvent(msgType string) {
	auditEvents.WithLabelValues(msgType).Inc()
}
