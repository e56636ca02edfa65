package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Reactions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fm_reactions_total",
		Help: "Total reaction requests accepted, by requested action.",
	}, []string{"action"})

	FlushOK = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fm_counter_flush_ok_total",
		Help: "Total debounced counter flushes written to the durable store.",
	})
	FlushFail = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fm_counter_flush_fail_total",
		Help: "Total counter flushes that failed (cache stays authoritative).",
	})

	ReconcileRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fm_reconcile_runs_total",
		Help: "Total reconciliation job runs.",
	})
	ReconcileRecords = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fm_reconcile_records_total",
		Help: "Total reaction records written back into the counter cache.",
	})

	OnlineConns = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fm_ws_online_conns",
		Help: "Current websocket connections (approx).",
	})
	WSAuthOK = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fm_ws_auth_ok_total",
		Help: "Total websocket handshakes authenticated within the grace period.",
	})
	WSAuthFail = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fm_ws_auth_fail_total",
		Help: "Total websocket handshakes rejected for a bad credential.",
	})
	WSAuthTimeout = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fm_ws_auth_timeout_total",
		Help: "Total connections force-disconnected by the grace-period timer.",
	})
	WSBackpressure = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fm_ws_backpressure_total",
		Help: "Total broadcast messages dropped on a full outbound queue.",
	})

	ShareBroadcast = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fm_share_broadcast_total",
		Help: "Total share:new-movie events emitted.",
	})
)

func Register() {
	prometheus.MustRegister(
		Reactions,
		FlushOK, FlushFail,
		ReconcileRuns, ReconcileRecords,
		OnlineConns, WSAuthOK, WSAuthFail, WSAuthTimeout, WSBackpressure,
		ShareBroadcast,
	)
}
