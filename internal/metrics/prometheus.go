// Package metrics records interview and agent call metrics with Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/failover"
	"github.com/Avinashhmavii/TIME-AI-Coach/internal/interview"
)

var (
	_ interview.Recorder = (*PrometheusRecorder)(nil)
	_ failover.Recorder  = (*PrometheusRecorder)(nil)
)

// PrometheusRecorder implements the session and failover recorders.
type PrometheusRecorder struct {
	agentCalls          *prometheus.CounterVec
	agentCallDuration   *prometheus.HistogramVec
	failoverAttempts    *prometheus.CounterVec
	sessionsFinished    *prometheus.CounterVec
	submissionsRejected *prometheus.CounterVec
}

// NewPrometheusRecorder registers the collectors with reg. A nil reg uses the
// default registry.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		agentCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "interview_agent_calls_total",
				Help: "Total number of interview agent calls by outcome",
			},
			[]string{"outcome"},
		),
		agentCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "interview_agent_call_duration_seconds",
				Help:    "Duration of interview agent calls in seconds, failover included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		failoverAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "interview_failover_attempts_total",
				Help: "Total number of credential attempts by outcome",
			},
			[]string{"outcome"},
		),
		sessionsFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "interview_sessions_finished_total",
				Help: "Total number of finished interview sessions by reason",
			},
			[]string{"reason"},
		),
		submissionsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "interview_submissions_rejected_total",
				Help: "Total number of rejected answer submissions by reason",
			},
			[]string{"reason"},
		),
	}
}

func (p *PrometheusRecorder) ObserveAgentCall(outcome string, duration time.Duration) {
	p.agentCalls.WithLabelValues(outcome).Inc()
	p.agentCallDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (p *PrometheusRecorder) ObserveFailoverAttempt(outcome string) {
	p.failoverAttempts.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveSessionFinished(reason string) {
	p.sessionsFinished.WithLabelValues(reason).Inc()
}

func (p *PrometheusRecorder) ObserveSubmissionRejected(reason string) {
	p.submissionsRejected.WithLabelValues(reason).Inc()
}
