package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRdvStatusTerminal(t *testing.T) {
	assert.False(t, RdvStatusPending.Terminal())
	assert.False(t, RdvStatusConfirmed.Terminal())
	assert.True(t, RdvStatusCancelled.Terminal())
	assert.True(t, RdvStatusCompleted.Terminal())
	assert.True(t, RdvStatusMissed.Terminal())
}

func TestRdvStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from RdvStatus
		to   RdvStatus
		want bool
	}{
		{"pending to confirmed", RdvStatusPending, RdvStatusConfirmed, true},
		{"pending to cancelled", RdvStatusPending, RdvStatusCancelled, true},
		{"pending to completed", RdvStatusPending, RdvStatusCompleted, false},
		{"confirmed to completed", RdvStatusConfirmed, RdvStatusCompleted, true},
		{"confirmed to missed", RdvStatusConfirmed, RdvStatusMissed, true},
		{"confirmed to cancelled", RdvStatusConfirmed, RdvStatusCancelled, true},
		{"confirmed to pending", RdvStatusConfirmed, RdvStatusPending, false},
		{"cancelled admits nothing", RdvStatusCancelled, RdvStatusPending, false},
		{"completed admits nothing", RdvStatusCompleted, RdvStatusCancelled, false},
		{"missed admits nothing", RdvStatusMissed, RdvStatusConfirmed, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestTransitionAllowed(t *testing.T) {
	tests := []struct {
		name  string
		actor RdvActor
		from  RdvStatus
		to    RdvStatus
		want  bool
	}{
		{"patient cancels pending", RdvActorPatient, RdvStatusPending, RdvStatusCancelled, true},
		{"patient cancels confirmed", RdvActorPatient, RdvStatusConfirmed, RdvStatusCancelled, true},
		{"patient cannot confirm", RdvActorPatient, RdvStatusPending, RdvStatusConfirmed, false},
		{"patient cannot complete", RdvActorPatient, RdvStatusConfirmed, RdvStatusCompleted, false},
		{"professional confirms pending", RdvActorProfessional, RdvStatusPending, RdvStatusConfirmed, true},
		{"professional completes confirmed", RdvActorProfessional, RdvStatusConfirmed, RdvStatusCompleted, true},
		{"professional marks missed", RdvActorProfessional, RdvStatusConfirmed, RdvStatusMissed, true},
		{"professional cancels pending", RdvActorProfessional, RdvStatusPending, RdvStatusCancelled, true},
		{"no actor beats the graph", RdvActorProfessional, RdvStatusCompleted, RdvStatusCancelled, false},
		{"unknown actor denied", RdvActor("stranger"), RdvStatusPending, RdvStatusCancelled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TransitionAllowed(tt.actor, tt.from, tt.to))
		})
	}
}
