package venue

import (
	"errors"
	"time"

	"rccafe/internal/models"
)

var (
	ErrMembershipInactive  = errors.New("membership is not active")
	ErrNoSessionsRemaining = errors.New("no sessions remaining")
	ErrMembershipExpired   = errors.New("membership has expired")
)

// ExpiryFor returns the end of a one month membership starting at start.
func ExpiryFor(start time.Time) time.Time {
	return start.AddDate(0, 1, 0)
}

// DerivedStatus is the status an ACTIVE membership should have at now.
// Every other status is final and returned unchanged.
func DerivedStatus(m models.Membership, now time.Time) models.MembershipStatus {
	if m.Status != models.MembershipActive {
		return m.Status
	}
	if m.SessionsRemaining <= 0 {
		return models.MembershipCompleted
	}
	if now.After(m.ExpiryDate) {
		return models.MembershipExpired
	}
	return models.MembershipActive
}

// CheckDeduct reports why a session cannot be taken from m at now, or nil when it can.
func CheckDeduct(m models.Membership, now time.Time) error {
	if m.Status != models.MembershipActive {
		return ErrMembershipInactive
	}
	if m.SessionsRemaining <= 0 {
		return ErrNoSessionsRemaining
	}
	if now.After(m.ExpiryDate) {
		return ErrMembershipExpired
	}
	return nil
}

// Deduct returns m with one session used at now.
func Deduct(m models.Membership, now time.Time) models.Membership {
	m.SessionsUsed++
	m.SessionsRemaining--
	used := now
	m.LastBookedDate = &used
	if m.SessionsRemaining == 0 {
		m.Status = models.MembershipCompleted
	}
	return m
}

// Restore returns m with one session given back.
func Restore(m models.Membership) models.Membership {
	if m.SessionsUsed > 0 {
		m.SessionsUsed--
	}
	m.SessionsRemaining++
	if m.Status == models.MembershipCompleted && m.SessionsRemaining > 0 {
		m.Status = models.MembershipActive
	}
	return m
}
