package core

import (
	"testing"

	"rollcore/pkg/domain"
)

// Pointer helpers for patch fields in core package tests.
func strPtr(v string) *string { return &v }

func floatPtr(v float64) *float64 { return &v }

func statusPtr(v domain.RollStatus) *domain.RollStatus { return &v }

func mustChangePayload[T any](t *testing.T, value T) domain.ChangePayload {
	t.Helper()
	payload, err := domain.NewChangePayloadFromValue(value)
	if err != nil {
		t.Fatalf("build change payload: %v", err)
	}
	return payload
}
