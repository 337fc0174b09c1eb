package app

import (
	"encoding/json"

	"github.com/LeonardoBeccarini/water_allocation/internal/model"
	"github.com/LeonardoBeccarini/water_allocation/internal/model/messages"
	"github.com/LeonardoBeccarini/water_allocation/internal/optimizer"
	"github.com/LeonardoBeccarini/water_allocation/pkg/dedup"
)

func decisionEvent(runID string, req optimizer.Request, res optimizer.Result) model.AllocationDecisionEvent {
	evt := model.AllocationDecisionEvent{
		RunID:            runID,
		Provenance:       string(res.Provenance),
		TotalWaterSupply: req.TotalWaterSupply,
		Allocations:      make([]messages.FarmAllocation, len(res.Allocations)),
		TotalShortage:    res.Metrics.TotalShortage,
		FairnessIndex:    res.Metrics.FairnessIndex,
		WaterEfficiency:  res.Metrics.WaterEfficiency,
	}
	for i, a := range res.Allocations {
		evt.Allocations[i] = messages.FarmAllocation{FarmID: a.FarmID, WaterAllocated: a.WaterAllocated, Shortage: a.Shortage}
	}
	return evt
}

// decisionKey ignores run id and timestamp so re-running the same plan
// maps to the same key.
func decisionKey(evt model.AllocationDecisionEvent) string {
	b, err := json.Marshal(struct {
		Provenance  string                    `json:"p"`
		Supply      float64                   `json:"s"`
		Allocations []messages.FarmAllocation `json:"a"`
	}{evt.Provenance, evt.TotalWaterSupply, evt.Allocations})
	if err != nil {
		return ""
	}
	return dedup.Key(b)
}

// publishDecision is best effort: the HTTP caller gets its result even
// when the broker is down.
func (g *Gateway) publishDecision(runID string, req optimizer.Request, res optimizer.Result) {
	if g.cfg.Publisher == nil {
		return
	}
	evt := decisionEvent(runID, req, res)
	evt.Timestamp = g.cfg.Now().UTC()

	key := decisionKey(evt)
	if g.cfg.Deduper != nil && !g.cfg.Deduper.ShouldProcess(key) {
		g.cfg.Metrics.ObserveEvent("duplicate")
		g.log.Debug().Str("run_id", runID).Msg("decision unchanged, not published")
		return
	}

	topic := model.DecisionTopic(g.cfg.TopicPrefix, evt.Provenance)
	if err := g.cfg.Publisher.PublishJSON(topic, evt); err != nil {
		if g.cfg.Deduper != nil {
			g.cfg.Deduper.Forget(key)
		}
		g.cfg.Metrics.ObserveEvent("error")
		g.log.Warn().Err(err).Str("topic", topic).Msg("decision publish failed")
		return
	}
	g.cfg.Metrics.ObserveEvent("published")
	g.log.Info().Str("run_id", runID).Str("topic", topic).Int("farms", len(evt.Allocations)).Msg("decision published")
}
