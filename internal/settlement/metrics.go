package settlement

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchesComputed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settleup_settlement_batches_computed_total",
		Help: "Number of settlement batches computed.",
	})

	settlementsSuggested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settleup_settlements_suggested_total",
		Help: "Number of settlements produced by the transfer minimizer.",
	})

	settlementsPaid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settleup_settlements_paid_total",
		Help: "Number of settlements marked as paid.",
	})
)
