package httptransport

import "expvar"

var (
	metricSSEConnectionsTotal  = expvar.NewInt("battle_sse_connections_total")
	metricSSEConnectionsActive = expvar.NewInt("battle_sse_connections_active")

	metricTranscriptQueryTotal  = expvar.NewInt("transcript_query_total")
	metricTranscriptQueryErrors = expvar.NewInt("transcript_query_errors_total")
)
