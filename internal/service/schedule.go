// internal/service/schedule.go
package service

import (
    "time"

    "github.com/julianb233/outreach-backend/internal/model"
)

// SendTimePolicy decides when an approved message should go out. Every policy
// must return a time >= now.
type SendTimePolicy interface {
    OptimalSendTime(p *model.Person, now time.Time) time.Time
}

// DaypartPolicy schedules sends at the next daypart boundary in the person's
// timezone: 09:00, 12:30 or 17:30, rolling to 09:00 next morning after the
// evening window. Critical-priority people skip the wait and go out five
// minutes from now.
type DaypartPolicy struct {
    DefaultTimezone string
}

var dayparts = []struct{ hour, minute int }{
    {9, 0},
    {12, 30},
    {17, 30},
}

func (d *DaypartPolicy) OptimalSendTime(p *model.Person, now time.Time) time.Time {
    if p.Priority == model.PriorityCritical {
        return now.Add(5 * time.Minute)
    }

    loc := d.location(p)
    local := now.In(loc)

    for _, part := range dayparts {
        slot := time.Date(local.Year(), local.Month(), local.Day(), part.hour, part.minute, 0, 0, loc)
        if slot.After(local) {
            return slot
        }
    }

    // Past the evening window: tomorrow morning.
    next := local.AddDate(0, 0, 1)
    return time.Date(next.Year(), next.Month(), next.Day(), dayparts[0].hour, dayparts[0].minute, 0, 0, loc)
}

func (d *DaypartPolicy) location(p *model.Person) *time.Location {
    tz := p.Timezone
    if tz == "" {
        tz = d.DefaultTimezone
    }
    if loc, err := time.LoadLocation(tz); err == nil {
        return loc
    }
    return time.Local
}

// clampForward pins a scheduled time to now when it has already passed, so a
// QueueItem's scheduled_time is never earlier than its creation.
func clampForward(t, now time.Time) time.Time {
    if t.Before(now) {
        return now
    }
    return t
}
