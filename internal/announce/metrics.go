package announce

import "expvar"

var (
	metricAnnounceSentTotal   = expvar.NewInt("announce_sent_total")
	metricAnnounceFailedTotal = expvar.NewInt("announce_failed_total")
)
