package ws

import "expvar"

var (
	metricConnectionsNow    = expvar.NewInt("ws_connections")
	metricConnectsTotal     = expvar.NewInt("ws_connects_total")
	metricAuthFailuresTotal = expvar.NewInt("ws_auth_failures_total")
	metricMessagesInTotal   = expvar.NewInt("ws_messages_in_total")
	metricMessagesOutTotal  = expvar.NewInt("ws_messages_out_total")
	metricClientErrorsTotal = expvar.NewInt("ws_client_errors_total")
)
