package session

import "expvar"

var (
	metricBattlesStarted = expvar.NewInt("session_battles_started_total")
	metricBattlesEnded   = expvar.NewInt("session_battles_ended_total")
	metricTurnsResolved  = expvar.NewInt("session_turns_resolved_total")
	metricForfeits       = expvar.NewInt("session_forfeits_total")
	metricTimeouts       = expvar.NewInt("session_turn_timeouts_total")
	metricActiveBattles  = expvar.NewInt("session_active_battles")
)
