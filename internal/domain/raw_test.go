package domain

import (
	"testing"
)

func TestNormalizeIdentifierFallback(t *testing.T) {
	t.Parallel() // Enable parallel execution

	// clienteId wins over everything else for the client identifier
	task := RawTask{ClienteID: "c1", AltID: "s1", ID: "ignored"}.Normalize()
	if task.ClientID != "c1" {
		t.Errorf("Expected client ID c1, got %s", task.ClientID)
	}
	if task.ID != "s1" {
		t.Errorf("Expected server ID s1, got %s", task.ID)
	}

	// clientId is the next alias
	task = RawTask{ClientID: "c2", ID: "s2"}.Normalize()
	if task.ClientID != "c2" {
		t.Errorf("Expected client ID c2, got %s", task.ClientID)
	}

	// server identifier backfills the client identifier
	task = RawTask{ID: "s3"}.Normalize()
	if task.ClientID != "s3" {
		t.Errorf("Expected client ID s3, got %s", task.ClientID)
	}

	// nothing at all: a fresh identifier is generated
	task = RawTask{Title: "orphan"}.Normalize()
	if task.ClientID == "" {
		t.Error("Expected generated client ID, got empty string")
	}
	if task.ID != "" {
		t.Errorf("Expected empty server ID, got %s", task.ID)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel() // Enable parallel execution
	task := RawTask{ID: "s1"}.Normalize()

	if task.Title != DefaultTitle {
		t.Errorf("Expected placeholder title %q, got %q", DefaultTitle, task.Title)
	}

	if task.Status != StatusPending {
		t.Errorf("Expected status %s, got %s", StatusPending, task.Status)
	}

	task = RawTask{ID: "s1", Title: "   ", Status: "bogus"}.Normalize()
	if task.Title != DefaultTitle {
		t.Errorf("Expected placeholder title for blank input, got %q", task.Title)
	}
	if task.Status != StatusPending {
		t.Errorf("Expected unrecognized status to normalize to pending, got %s", task.Status)
	}
}

func TestNormalizeDeletedCoercion(t *testing.T) {
	t.Parallel() // Enable parallel execution
	cases := []struct {
		raw  any
		want bool
	}{
		{true, true},
		{false, false},
		{nil, false},
		{float64(1), true},
		{float64(0), false},
		{"true", true},
		{"false", false},
		{"1", true},
		{"yes", false},
	}

	for _, tc := range cases {
		task := RawTask{ID: "s1", Deleted: tc.raw}.Normalize()
		if task.Deleted != tc.want {
			t.Errorf("Deleted %v: expected %v, got %v", tc.raw, tc.want, task.Deleted)
		}
	}
}

func TestNormalizeAllPreservesOrder(t *testing.T) {
	t.Parallel() // Enable parallel execution
	raws := []RawTask{
		{ID: "s1", Title: "first"},
		{ID: "s2", Title: "second"},
	}

	tasks := NormalizeAll(raws)
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != "s1" || tasks[1].ID != "s2" {
		t.Errorf("Expected order s1, s2; got %s, %s", tasks[0].ID, tasks[1].ID)
	}
}
