package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	turnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lookout",
			Name:      "chat_turns_total",
			Help:      "Chat turns answered, by classified intent",
		},
		[]string{"intent"},
	)

	composerFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lookout",
			Name:      "composer_fallbacks_total",
			Help:      "Replies replaced by the greeting after a composer fault",
		},
	)

	instructionOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lookout",
			Name:      "instruction_operations_total",
			Help:      "Instruction store operations",
		},
		[]string{"backend", "op", "status"},
	)

	instructionsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lookout",
			Name:      "instructions_expired_total",
			Help:      "Instruction sets swept from the memory store",
		},
	)
)
