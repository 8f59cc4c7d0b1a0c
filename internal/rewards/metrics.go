package rewards

import "expvar"

var (
	metricRewardQueuedTotal       = expvar.NewInt("rewards_queued_total")
	metricRewardDroppedTotal      = expvar.NewInt("rewards_dropped_total")
	metricRewardDuplicateTotal    = expvar.NewInt("rewards_duplicate_total")
	metricRewardRetryTotal        = expvar.NewInt("rewards_retry_total")
	metricRewardRetryDroppedTotal = expvar.NewInt("rewards_retry_dropped_total")
	metricRewardSentTotal         = expvar.NewInt("rewards_sent_total")
	metricRewardFailedTotal       = expvar.NewInt("rewards_failed_total")
	metricRewardQueueLen          = expvar.NewInt("rewards_queue_len")
)
