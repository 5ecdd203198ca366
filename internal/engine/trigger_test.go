package engine_test

import (
	"strings"
	"testing"
	"time"

	"github.com/julianb233/outreach-backend/internal/engine"
	"github.com/julianb233/outreach-backend/internal/model"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := testNow.Add(-time.Duration(n) * 24 * time.Hour)
	return &t
}

func person(id int, priority, relationshipType, status string, lastContacted *time.Time) model.Person {
	return model.Person{
		ID:               id,
		Name:             "Person " + priority,
		Priority:         priority,
		RelationshipType: relationshipType,
		Status:           status,
		LastContacted:    lastContacted,
	}
}

func evaluate(t *testing.T, people ...model.Person) []model.Trigger {
	t.Helper()
	ctx := &engine.EvalContext{Now: testNow, Cooldowns: map[int]time.Time{}}
	return engine.Evaluate(ctx, people)
}

func TestInactiveAndBlockedYieldNoTrigger(t *testing.T) {
	triggers := evaluate(t,
		person(1, "critical", "friend", "inactive", nil),
		person(2, "critical", "family", "blocked", daysAgo(100)),
	)
	if len(triggers) != 0 {
		t.Fatalf("expected no triggers for non-active people, got %d", len(triggers))
	}
}

func TestCriticalNeverContacted(t *testing.T) {
	p := person(1, "critical", "client", "active", nil)
	p.Name = "Alice Johnson"

	triggers := evaluate(t, p)
	if len(triggers) != 1 {
		t.Fatalf("expected 1 trigger, got %d", len(triggers))
	}

	trig := triggers[0]
	if trig.TriggerType != model.TriggerNoContactWarning {
		t.Errorf("expected no_contact_warning, got %s", trig.TriggerType)
	}
	if trig.Priority != model.TriggerUrgent {
		t.Errorf("expected urgent priority, got %s", trig.Priority)
	}
	if trig.Reason != "Never contacted Alice Johnson (critical priority)" {
		t.Errorf("unexpected reason: %q", trig.Reason)
	}
	if trig.DaysSince != nil {
		t.Errorf("expected nil days_since for never-contacted, got %d", *trig.DaysSince)
	}
}

func TestPrecedenceExclusivity(t *testing.T) {
	// Matches rule 1 (critical, >7 days) and rule 3 (family, but not >21
	// days). Only the first matching rule may fire.
	p := person(1, "critical", "family", "active", daysAgo(10))

	triggers := evaluate(t, p)
	if len(triggers) != 1 {
		t.Fatalf("expected exactly 1 trigger, got %d", len(triggers))
	}
	if triggers[0].TriggerType != model.TriggerRelationshipCooling {
		t.Errorf("expected rule-1 relationship_cooling, got %s", triggers[0].TriggerType)
	}
	if triggers[0].Priority != model.TriggerUrgent {
		t.Errorf("expected urgent, got %s", triggers[0].Priority)
	}
}

func TestFamilyRuleBeatsMediumRule(t *testing.T) {
	// Family at 25 days: rule 3 fires before the medium-tier rule 4 would.
	p := person(1, "medium", "family", "active", daysAgo(25))

	triggers := evaluate(t, p)
	if len(triggers) != 1 {
		t.Fatalf("expected 1 trigger, got %d", len(triggers))
	}
	if triggers[0].TriggerType != model.TriggerCheckInNeeded || triggers[0].Priority != model.TriggerHigh {
		t.Errorf("expected high check_in_needed from the family rule, got %s/%s",
			triggers[0].Priority, triggers[0].TriggerType)
	}
	if !strings.Contains(triggers[0].Reason, "family") {
		t.Errorf("reason should name the relationship: %q", triggers[0].Reason)
	}
}

func TestMediumThresholds(t *testing.T) {
	stale := person(1, "medium", "colleague", "active", daysAgo(35))
	fresh := person(2, "medium", "colleague", "active", daysAgo(10))

	triggers := evaluate(t, stale, fresh)
	if len(triggers) != 1 {
		t.Fatalf("expected only the 35-day person to trigger, got %d triggers", len(triggers))
	}
	if triggers[0].PersonID != 1 {
		t.Errorf("wrong person triggered: %d", triggers[0].PersonID)
	}
	if triggers[0].TriggerType != model.TriggerCheckInNeeded || triggers[0].Priority != model.TriggerMedium {
		t.Errorf("expected medium check_in_needed, got %s/%s", triggers[0].Priority, triggers[0].TriggerType)
	}
}

func TestNullDaysNeverSatisfiesThresholds(t *testing.T) {
	// A never-contacted friend must not hit the >21-day family/friend rule;
	// with low tier there is no never-contacted branch either.
	p := person(1, "low", "friend", "active", nil)

	triggers := evaluate(t, p)
	if len(triggers) != 0 {
		t.Fatalf("expected no trigger for never-contacted low-priority friend, got %+v", triggers)
	}
}

func TestNoMatchingRuleYieldsNothing(t *testing.T) {
	triggers := evaluate(t,
		person(1, "low", "colleague", "active", daysAgo(200)),
		person(2, "critical", "client", "active", daysAgo(3)),
		person(3, "high", "client", "active", daysAgo(5)),
	)
	if len(triggers) != 0 {
		t.Fatalf("expected no triggers, got %d", len(triggers))
	}
}

func TestCooldownSuppressesTriggers(t *testing.T) {
	p := person(1, "critical", "client", "active", nil)

	ctx := &engine.EvalContext{
		Now:       testNow,
		Cooldowns: map[int]time.Time{1: testNow.Add(48 * time.Hour)},
	}
	if triggers := engine.Evaluate(ctx, []model.Person{p}); len(triggers) != 0 {
		t.Fatalf("expected suppression during cool-down, got %d triggers", len(triggers))
	}
}

func TestExpiredCooldownIsPrunedOnRead(t *testing.T) {
	p := person(1, "critical", "client", "active", nil)

	cooldowns := map[int]time.Time{1: testNow.Add(-time.Hour)}
	ctx := &engine.EvalContext{Now: testNow, Cooldowns: cooldowns}

	triggers := engine.Evaluate(ctx, []model.Person{p})
	if len(triggers) != 1 {
		t.Fatalf("expected expired cool-down to be ignored, got %d triggers", len(triggers))
	}
	if _, still := cooldowns[1]; still {
		t.Error("expired cool-down entry should be pruned on read")
	}
}

func TestDaysSinceContact(t *testing.T) {
	if d := engine.DaysSinceContact(&model.Person{}, testNow); d != nil {
		t.Errorf("expected nil for never-contacted, got %d", *d)
	}

	p := model.Person{LastContacted: daysAgo(9)}
	if d := engine.DaysSinceContact(&p, testNow); d == nil || *d != 9 {
		t.Errorf("expected 9 days, got %v", d)
	}

	// Partial days floor to whole days.
	partial := testNow.Add(-36 * time.Hour)
	p = model.Person{LastContacted: &partial}
	if d := engine.DaysSinceContact(&p, testNow); d == nil || *d != 1 {
		t.Errorf("expected 1 day for 36 hours, got %v", d)
	}
}
