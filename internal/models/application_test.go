package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidApplicationStatus(t *testing.T) {
	assert.True(t, ValidApplicationStatus(ApplicationStatusApplied))
	assert.True(t, ValidApplicationStatus(ApplicationStatusWithdrawn))
	assert.False(t, ValidApplicationStatus("hired"))
	assert.False(t, ValidApplicationStatus(""))
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"applied to viewed", ApplicationStatusApplied, ApplicationStatusViewed, true},
		{"applied to interview skips steps", ApplicationStatusApplied, ApplicationStatusInterview, true},
		{"viewed back to applied", ApplicationStatusViewed, ApplicationStatusApplied, false},
		{"interview to offered", ApplicationStatusInterview, ApplicationStatusOffered, true},
		{"interview to rejected", ApplicationStatusInterview, ApplicationStatusRejected, true},
		{"offered is terminal", ApplicationStatusOffered, ApplicationStatusRejected, false},
		{"rejected is terminal", ApplicationStatusRejected, ApplicationStatusViewed, false},
		{"withdrawn is terminal", ApplicationStatusWithdrawn, ApplicationStatusApplied, false},
		{"withdraw from applied", ApplicationStatusApplied, ApplicationStatusWithdrawn, true},
		{"withdraw from interview", ApplicationStatusInterview, ApplicationStatusWithdrawn, true},
		{"withdraw from offered", ApplicationStatusOffered, ApplicationStatusWithdrawn, false},
		{"same status", ApplicationStatusViewed, ApplicationStatusViewed, false},
		{"unknown target", ApplicationStatusApplied, "hired", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Application{Status: tt.from}
			assert.Equal(t, tt.allowed, a.CanTransitionTo(tt.to))
		})
	}
}
