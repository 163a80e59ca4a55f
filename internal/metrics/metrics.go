// Package metrics holds the Prometheus collectors of the quiz service. They register with
// the default registry, which the server exposes on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RoomsActive counts rooms held by the registry, launched or not.
	RoomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quiz_rooms_active",
			Help: "Current number of open rooms",
		},
	)

	// Joins counts join attempts; result: ok/full/not_found/error.
	Joins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_joins_total",
			Help: "Total number of join attempts",
		},
		[]string{"result"},
	)

	// Launches counts started quizzes by pacing mode.
	Launches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_launches_total",
			Help: "Total number of launched quizzes",
		},
		[]string{"mode"},
	)

	// Answers counts recorded answers; correct: true/false.
	Answers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_answers_total",
			Help: "Total number of recorded answers",
		},
		[]string{"correct"},
	)

	// SkippedQuestions counts raw questions the markup parser rejected at launch.
	SkippedQuestions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_skipped_questions_total",
			Help: "Total number of questions dropped at launch because they could not be parsed",
		},
	)

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quiz_ws_connections_current",
			Help: "Current number of open websocket connections",
		},
	)

	// DroppedConnections counts connections closed because their send buffer was full.
	DroppedConnections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_ws_dropped_connections_total",
			Help: "Total number of websocket connections dropped for falling behind",
		},
	)
)
