// Package timer implements the session countdown state machine used on the venue floor.
//
// Timers never tick on the server. A RUNNING timer stores the remaining seconds at the moment it
// was (re)started plus that start instant; everything else is derived from the clock on demand.
package timer

import (
	"errors"
	"time"

	"rccafe/internal/models"
)

type Action string

const (
	ActionStart   Action = "start"
	ActionPause   Action = "pause"
	ActionAddTime Action = "add_time"
	ActionReset   Action = "reset"
	ActionStop    Action = "stop"
)

var (
	ErrInvalidAction      = errors.New("invalid action")
	ErrAlreadyRunning     = errors.New("timer is already running")
	ErrNotRunning         = errors.New("timer is not running")
	ErrCompleted          = errors.New("timer is completed")
	ErrUnsupportedMinutes = errors.New("unsupported minutes increment")
)

// Command is one staff action against a timer.
type Command struct {
	Action  Action
	Minutes int
}

// Machine applies commands. AddTimeMinutes lists the accepted add_time increments.
type Machine struct {
	AddTimeMinutes []int
}

func New(addTimeMinutes []int) Machine {
	return Machine{AddTimeMinutes: addTimeMinutes}
}

// Remaining returns the seconds left at now, floored at zero.
func Remaining(t models.Timer, now time.Time) int {
	switch t.Status {
	case models.TimerCompleted:
		return 0
	case models.TimerRunning:
		if t.StartTime == nil {
			return clampZero(t.RemainingSeconds)
		}
		return clampZero(t.RemainingSeconds - elapsed(*t.StartTime, now))
	default:
		return clampZero(t.RemainingSeconds)
	}
}

// settle turns a RUNNING timer that has run out into a COMPLETED one.
func settle(t *models.Timer, now time.Time) {
	if t.Status == models.TimerRunning && Remaining(*t, now) == 0 {
		t.Status = models.TimerCompleted
		t.RemainingSeconds = 0
		t.StartTime = nil
	}
}

// Apply returns t after cmd at now. On error the returned timer must be discarded; t itself is
// never modified.
func (m Machine) Apply(t models.Timer, cmd Command, now time.Time) (models.Timer, error) {
	settle(&t, now)

	switch cmd.Action {
	case ActionStart:
		switch t.Status {
		case models.TimerRunning:
			return t, ErrAlreadyRunning
		case models.TimerCompleted:
			return t, ErrCompleted
		case models.TimerStopped:
			t.RemainingSeconds = t.AllocatedMinutes * 60
		}
		start := now
		t.StartTime = &start
		t.PausedAt = nil
		t.Status = models.TimerRunning

	case ActionPause:
		if t.Status != models.TimerRunning {
			return t, ErrNotRunning
		}
		t.RemainingSeconds = Remaining(t, now)
		paused := now
		t.StartTime = nil
		t.PausedAt = &paused
		t.Status = models.TimerPaused

	case ActionAddTime:
		if !m.allowsAddTime(cmd.Minutes) {
			return t, ErrUnsupportedMinutes
		}
		if t.Status == models.TimerCompleted {
			return t, ErrCompleted
		}
		if t.Status == models.TimerRunning {
			t.RemainingSeconds = Remaining(t, now)
			start := now
			t.StartTime = &start
		}
		t.RemainingSeconds += cmd.Minutes * 60
		t.AllocatedMinutes += cmd.Minutes

	case ActionReset:
		t.RemainingSeconds = t.AllocatedMinutes * 60
		t.Status = models.TimerStopped
		t.StartTime = nil
		t.PausedAt = nil

	case ActionStop:
		t.Status = models.TimerCompleted
		t.RemainingSeconds = 0
		t.StartTime = nil

	default:
		return t, ErrInvalidAction
	}
	return t, nil
}

func (m Machine) allowsAddTime(minutes int) bool {
	for _, allowed := range m.AddTimeMinutes {
		if minutes == allowed {
			return true
		}
	}
	return false
}

// View is the read model served to staff screens and the public display.
type View struct {
	models.Timer
	RemainingSeconds     int                `json:"remaining_seconds"`
	RemainingMinutes     int                `json:"remaining_minutes"`
	RemainingSecondsOnly int                `json:"remaining_seconds_only"`
	Status               models.TimerStatus `json:"status"`
}

// NewView derives the state of t at now without changing it.
func NewView(t models.Timer, now time.Time) View {
	remaining := Remaining(t, now)
	status := t.Status
	if status == models.TimerRunning && remaining == 0 {
		status = models.TimerCompleted
	}
	return View{
		Timer:                t,
		RemainingSeconds:     remaining,
		RemainingMinutes:     remaining / 60,
		RemainingSecondsOnly: remaining % 60,
		Status:               status,
	}
}

func elapsed(start, now time.Time) int {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

func clampZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
