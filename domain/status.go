package domain

import "strings"

// Status is the canonical lowercase build status of a project
type Status string

const (
	StatusSuccess    Status = "success"
	StatusRebuilding Status = "rebuilding"
	StatusFailure    Status = "failure"
	StatusDown       Status = "down"
)

// StatusOrder lists statuses from best to worst
var StatusOrder = []Status{StatusSuccess, StatusRebuilding, StatusFailure, StatusDown}

const (
	activityUnknown  = "unknown"
	activityQueued   = "queued"
	activityBuilding = "building"
	statusUnknown    = "unknown"
)

func (s Status) String() string {
	return string(s)
}

// Severity returns the index of s in StatusOrder. Unrecognized and empty
// statuses rank as 0.
func (s Status) Severity() int {
	for i, known := range StatusOrder {
		if s == known {
			return i
		}
	}
	return 0
}

// IsKnown reports whether s is one of the ordered statuses
func (s Status) IsKnown() bool {
	for _, known := range StatusOrder {
		if s == known {
			return true
		}
	}
	return false
}

// Worst folds statuses into the one with the highest severity. The result is
// always an entry of StatusOrder, so an empty or unrecognized input alone
// yields StatusSuccess.
func Worst(statuses ...Status) Status {
	worst := 0
	for _, s := range statuses {
		if sev := s.Severity(); sev > worst {
			worst = sev
		}
	}
	return StatusOrder[worst]
}

// NormalizeActivity lowercases raw activity and status values and applies the
// rewrite rules for unknown values and in-progress rebuilds.
func NormalizeActivity(rawActivity, rawStatus string) (string, Status) {
	activity := strings.ToLower(rawActivity)
	if activity == activityUnknown {
		activity = activityQueued
	}

	status := strings.ToLower(rawStatus)
	if status == statusUnknown {
		status = string(StatusFailure)
	}
	// A build in progress whose last result was a failure is rebuilding
	if status == string(StatusFailure) && activity == activityBuilding {
		status = string(StatusRebuilding)
	}

	return activity, Status(status)
}
