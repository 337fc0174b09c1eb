package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecisionTopic(t *testing.T) {
	assert.Equal(t, "event/allocationDecision/fallback", DecisionTopic("", "fallback"))
	assert.Equal(t, "district/7/optimized", DecisionTopic("district/7/", "optimized"))
}
