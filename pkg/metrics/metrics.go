package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Websocket metrics
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_ws_connections_active",
			Help: "Currently admitted websocket connections",
		},
	)

	RoomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_rooms_active",
			Help: "Rooms with at least one local connection",
		},
	)

	EventsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_events_delivered_total",
			Help: "Frames queued to a connection",
		},
		[]string{"event"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_events_dropped_total",
			Help: "Frames dropped because the connection queue was full or no connection was present",
		},
		[]string{"event", "reason"}, // reason: "queue_full" or "offline"
	)

	// Business metrics
	MessagesDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_dispatched_total",
			Help: "Messages persisted and fanned out",
		},
		[]string{"kind", "path"}, // kind: "direct" or "group", path: "ws" or "rest"
	)

	FriendshipMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_friendship_mutations_total",
			Help: "Friendship add/remove attempts by outcome",
		},
		[]string{"op", "outcome"},
	)

	ReconcileTasks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_reconcile_tasks_total",
			Help: "Reconciliation tasks by result",
		},
		[]string{"result"}, // "enqueued", "resolved", "retry", "failed"
	)

	// Infrastructure metrics
	PairLockWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_pair_lock_wait_seconds",
			Help:    "Time spent acquiring the friendship pair lock",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
	)
)
