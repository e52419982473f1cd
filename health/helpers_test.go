package health

import (
	"testing"
	"time"
)

func TestStatusConstructors(t *testing.T) {
	tests := []struct {
		name       string
		construct  func(component, message string) Status
		wantStatus string
		wantFlag   bool
	}{
		{
			name:       "NewHealthy",
			construct:  NewHealthy,
			wantStatus: StateHealthy,
			wantFlag:   true,
		},
		{
			name:       "NewUnhealthy",
			construct:  NewUnhealthy,
			wantStatus: StateUnhealthy,
		},
		{
			name:       "NewDegraded",
			construct:  NewDegraded,
			wantStatus: StateDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := tt.construct("annotator", "some message")

			if status.Component != "annotator" {
				t.Errorf("Expected component annotator, got %s", status.Component)
			}

			if status.Status != tt.wantStatus {
				t.Errorf("Expected status %s, got %s", tt.wantStatus, status.Status)
			}

			if status.Message != "some message" {
				t.Errorf("Expected message to be preserved, got %s", status.Message)
			}

			if status.Healthy != tt.wantFlag {
				t.Errorf("Expected healthy flag %v, got %v", tt.wantFlag, status.Healthy)
			}

			if status.Timestamp.IsZero() {
				t.Error("Expected timestamp to be set")
			}
		})
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name         string
		component    string
		subStatuses  []Status
		wantStatus   string
		wantMessage  string
		wantSubCount int
	}{
		{
			name:         "empty sub-statuses",
			component:    "nertagd",
			subStatuses:  []Status{},
			wantStatus:   StateHealthy,
			wantMessage:  "No sub-components to aggregate",
			wantSubCount: 0,
		},
		{
			name:      "all healthy",
			component: "nertagd",
			subStatuses: []Status{
				{Status: StateHealthy, Component: "nats"},
				{Status: StateHealthy, Component: "annotator"},
			},
			wantStatus:   StateHealthy,
			wantMessage:  "All sub-components are healthy",
			wantSubCount: 2,
		},
		{
			name:      "one unhealthy",
			component: "nertagd",
			subStatuses: []Status{
				{Status: StateHealthy, Component: "nats"},
				{Status: StateUnhealthy, Component: "tagger"},
			},
			wantStatus:   StateUnhealthy,
			wantMessage:  "One or more sub-components are unhealthy",
			wantSubCount: 2,
		},
		{
			name:      "one degraded no unhealthy",
			component: "nertagd",
			subStatuses: []Status{
				{Status: StateHealthy, Component: "nats"},
				{Status: StateDegraded, Component: "annotator"},
			},
			wantStatus:   StateDegraded,
			wantMessage:  "One or more sub-components are degraded",
			wantSubCount: 2,
		},
		{
			name:      "degraded and unhealthy - unhealthy wins",
			component: "nertagd",
			subStatuses: []Status{
				{Status: StateDegraded, Component: "annotator"},
				{Status: StateUnhealthy, Component: "tagger"},
			},
			wantStatus:   StateUnhealthy,
			wantMessage:  "One or more sub-components are unhealthy",
			wantSubCount: 2,
		},
		{
			name:      "multiple degraded",
			component: "nertagd",
			subStatuses: []Status{
				{Status: StateDegraded, Component: "annotator"},
				{Status: StateDegraded, Component: "tagger"},
				{Status: StateHealthy, Component: "nats"},
			},
			wantStatus:   StateDegraded,
			wantMessage:  "One or more sub-components are degraded",
			wantSubCount: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Aggregate(tt.component, tt.subStatuses)

			if result.Component != tt.component {
				t.Errorf("Expected component %s, got %s", tt.component, result.Component)
			}

			if result.Status != tt.wantStatus {
				t.Errorf("Expected status %s, got %s", tt.wantStatus, result.Status)
			}

			if result.Message != tt.wantMessage {
				t.Errorf("Expected message %s, got %s", tt.wantMessage, result.Message)
			}

			if len(result.SubStatuses) != tt.wantSubCount {
				t.Errorf("Expected %d sub-statuses, got %d", tt.wantSubCount, len(result.SubStatuses))
			}

			if result.Timestamp.IsZero() {
				t.Error("Expected timestamp to be set")
			}
		})
	}
}

func TestAggregate_DoesNotModifyInput(t *testing.T) {
	original := []Status{
		{Status: StateHealthy, Component: "nats"},
		{Status: StateUnhealthy, Component: "tagger"},
	}

	// Make a copy for comparison
	originalCopy := make([]Status, len(original))
	copy(originalCopy, original)

	result := Aggregate("nertagd", original)

	// Verify original slice is not modified
	if len(original) != len(originalCopy) {
		t.Error("Aggregate modified the length of input slice")
	}

	for i, orig := range original {
		if orig.Component != originalCopy[i].Component {
			t.Errorf("Aggregate modified input slice at index %d", i)
		}
		if orig.Status != originalCopy[i].Status {
			t.Errorf("Aggregate modified input slice at index %d", i)
		}
	}

	// Verify sub-statuses are independent copies
	if len(result.SubStatuses) > 0 {
		result.SubStatuses[0].Component = "modified"
		if original[0].Component == "modified" {
			t.Error("Modifying result sub-statuses should not affect input")
		}
	}
}

func TestHelperTimestamps(t *testing.T) {
	// All helper functions should stamp statuses within a reasonable window
	before := time.Now()

	healthy := NewHealthy("nats", "msg")
	unhealthy := NewUnhealthy("tagger", "msg")
	degraded := NewDegraded("annotator", "msg")
	aggregated := Aggregate("nertagd", []Status{healthy})

	after := time.Now()

	statuses := []Status{healthy, unhealthy, degraded, aggregated}
	for i, status := range statuses {
		if status.Timestamp.Before(before) || status.Timestamp.After(after) {
			t.Errorf("Status %d timestamp %v is outside expected range [%v, %v]",
				i, status.Timestamp, before, after)
		}
	}
}
