package matchmaking

import "expvar"

var (
	metricEnqueueTotal     = expvar.NewInt("matchmaking_enqueue_total")
	metricPairTotal        = expvar.NewInt("matchmaking_pair_total")
	metricPairErrorsTotal  = expvar.NewInt("matchmaking_pair_errors_total")
	metricEvictedTotal     = expvar.NewInt("matchmaking_evicted_total")
	metricDroppedTotal     = expvar.NewInt("matchmaking_dropped_total")
	metricQueuedLobbiesNow = expvar.NewInt("matchmaking_queued_lobbies")
)
