package retag

import (
	"sort"

	"github.com/tsawler/docstruct/model"
)

// MappingContext accumulates the style-to-tag decisions of one run. It is
// passed explicitly through every re-tagging call so that concurrent runs
// never share state. A MappingContext is not safe for concurrent use.
type MappingContext struct {
	mappings []model.StyleMapping
	counts   map[string]int
}

// NewMappingContext returns an empty context.
func NewMappingContext() *MappingContext {
	return &MappingContext{counts: make(map[string]int)}
}

// Record appends a mapping decision.
func (mc *MappingContext) Record(original, tag string, confidence float64, reason string) {
	mc.mappings = append(mc.mappings, model.StyleMapping{
		OriginalStyle: original,
		Tag:           tag,
		Confidence:    confidence,
		Reason:        reason,
	})
	mc.counts[tag]++
}

// Mappings returns a copy of the recorded decisions in recording order.
func (mc *MappingContext) Mappings() []model.StyleMapping {
	out := make([]model.StyleMapping, len(mc.mappings))
	copy(out, mc.mappings)
	return out
}

// Count returns how many times tag was produced.
func (mc *MappingContext) Count(tag string) int {
	return mc.counts[tag]
}

// Tags returns the produced tags, sorted.
func (mc *MappingContext) Tags() []string {
	tags := make([]string, 0, len(mc.counts))
	for tag := range mc.counts {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Len returns the number of recorded decisions.
func (mc *MappingContext) Len() int {
	return len(mc.mappings)
}

// MeanConfidence returns the average confidence of all decisions, and
// false when nothing was recorded.
func (mc *MappingContext) MeanConfidence() (float64, bool) {
	if len(mc.mappings) == 0 {
		return 0, false
	}
	var sum float64
	for _, m := range mc.mappings {
		sum += m.Confidence
	}
	return sum / float64(len(mc.mappings)), true
}
