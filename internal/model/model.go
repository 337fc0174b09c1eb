// Package model holds what the services exchange over the broker.
package model

import (
	"strings"

	"github.com/LeonardoBeccarini/water_allocation/internal/model/messages"
)

type AllocationDecisionEvent = messages.AllocationDecisionEvent

const DecisionTopicPrefix = "event/allocationDecision"

// DecisionTopic is {prefix}/{provenance}. An empty prefix means DecisionTopicPrefix.
func DecisionTopic(prefix, provenance string) string {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = DecisionTopicPrefix
	}
	return prefix + "/" + provenance
}
