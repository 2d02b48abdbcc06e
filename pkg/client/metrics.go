package client

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for outbound traffic and commands
type Metrics struct {
	linesSent       *prometheus.CounterVec // by IRC command
	batchesSent     prometheus.Counter
	fragmentsSent   prometheus.Histogram
	localEchoes     prometheus.Counter
	sendErrors      prometheus.Counter
	commandsHandled *prometheus.CounterVec // by command and result
}

// NewMetrics creates metrics registered on reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		linesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "superirc_lines_sent_total",
				Help: "Total number of wire lines sent",
			},
			[]string{"command"},
		),
		batchesSent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "superirc_multiline_batches_total",
				Help: "Total number of draft/multiline batches sent",
			},
		),
		fragmentsSent: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "superirc_message_fragments",
				Help:    "Number of PRIVMSG lines each outgoing message was split into",
				Buckets: []float64{1, 2, 3, 5, 10, 25, 50},
			},
		),
		localEchoes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "superirc_local_echoes_total",
				Help: "Total number of locally synthesized echo messages",
			},
		),
		sendErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "superirc_send_errors_total",
				Help: "Total number of failed transport sends",
			},
		),
		commandsHandled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "superirc_commands_total",
				Help: "Total number of slash commands parsed",
			},
			[]string{"command", "result"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.linesSent,
			m.batchesSent,
			m.fragmentsSent,
			m.localEchoes,
			m.sendErrors,
			m.commandsHandled,
		)
	}

	return m
}

// RecordLine records one line sent with the given IRC command
func (m *Metrics) RecordLine(command string) {
	if m == nil {
		return
	}
	m.linesSent.WithLabelValues(command).Inc()
}

// RecordMessage records one outgoing message and how it was framed
func (m *Metrics) RecordMessage(fragments int, batched bool) {
	if m == nil {
		return
	}
	m.fragmentsSent.Observe(float64(fragments))
	if batched {
		m.batchesSent.Inc()
	}
}

// RecordLocalEcho records a synthesized echo
func (m *Metrics) RecordLocalEcho() {
	if m == nil {
		return
	}
	m.localEchoes.Inc()
}

// RecordSendError records a failed send
func (m *Metrics) RecordSendError() {
	if m == nil {
		return
	}
	m.sendErrors.Inc()
}

// RecordCommand records a parsed slash command and whether it succeeded
func (m *Metrics) RecordCommand(command string, success bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !success {
		result = "failed"
	}
	m.commandsHandled.WithLabelValues(command, result).Inc()
}
