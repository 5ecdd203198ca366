// internal/engine/ranker.go
package engine

import (
    "sort"

    "github.com/julianb233/outreach-backend/internal/model"
)

var priorityOrder = map[string]int{
    model.TriggerUrgent: 0,
    model.TriggerHigh:   1,
    model.TriggerMedium: 2,
    model.TriggerLow:    3,
}

// Rank stable-sorts triggers by priority tier (urgent first) and returns the
// top limit entries. Ties keep roster scan order, so the same roster and
// timestamp always produce the same slice.
func Rank(triggers []model.Trigger, limit int) []model.Trigger {
    ranked := make([]model.Trigger, len(triggers))
    copy(ranked, triggers)

    sort.SliceStable(ranked, func(i, j int) bool {
        return rankOf(ranked[i].Priority) < rankOf(ranked[j].Priority)
    })

    if limit > 0 && len(ranked) > limit {
        ranked = ranked[:limit]
    }
    return ranked
}

func rankOf(priority string) int {
    if r, ok := priorityOrder[priority]; ok {
        return r
    }
    return len(priorityOrder)
}

// Summary counts triggers per priority tier.
func Summary(triggers []model.Trigger) map[string]int {
    counts := map[string]int{}
    for _, t := range triggers {
        counts[t.Priority]++
    }
    return counts
}
