package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/wippyai/ownership/internal/lifecycle"
)

// trace runs a scenario to completion and returns its recorded lines.
func trace(t *testing.T, name string) []string {
	t.Helper()
	list, err := selectScenarios(name)
	if err != nil {
		t.Fatal(err)
	}
	rec := lifecycle.NewRecorder(nil)
	for _, st := range list[0].build(context.Background(), rec) {
		if err := st.run(); err != nil {
			t.Fatalf("%s: %v", st.title, err)
		}
	}
	return rec.Lines()
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name string
		want []string
	}{
		{
			name: "raw",
			want: []string{
				"tim constructed",
				"timothy constructed",
				"tim destructed",
				"timothy destructed",
				"jim constructed",
				"jimothy constructed",
				"jimothy destructed",
				"jim destructed",
			},
		},
		{
			name: "unique",
			want: []string{
				"Joe the third constructed",
				"Joe the second constructed",
				"Joe the first constructed",
				"Joe the third destructed",
				"Joe the second destructed",
				"Joe the first destructed",
				"who constructed",
				"what constructed",
				"who, what: who, what",
				"who, what: what, who",
				"who constructed",
				"what destructed",
				"who destructed",
				"what constructed",
				"who, what: who, what",
				"who destructed",
				"what destructed",
			},
		},
		{
			name: "shared",
			want: []string{
				"Blossom constructed",
				"Bubbles constructed",
				"Buttercup constructed",
				"Professor constructed",
				"blossom.Parent.UseCount(): 3",
				"Blossom destructed",
				"bubbles.Parent.UseCount(): 2",
				"Bubbles destructed",
				"buttercup.Parent.UseCount(): 1",
				"Buttercup destructed",
				"Professor destructed",
			},
		},
		{
			name: "cycle",
			want: []string{
				"fred constructed",
				"fred.Parent.UseCount(): 1",
				"fred destructed",
			},
		},
		{
			name: "weak",
			want: []string{
				"Fredzilla constructed",
				"weak.UseCount(): 1",
				"temp.Name: Fredzilla",
				"weak.UseCount(): 2",
				"Fredzilla destructed",
				"weak.UseCount(): 0",
				"weak.Lock() is empty",
			},
		},
		{
			name: "table",
			want: []string{
				"Mojo constructed",
				"handles 1, 2 share Mojo, use-count: 2",
				"Mojo destructed",
				"weak handle 3 expired: true",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, trace(t, tt.name)); diff != "" {
				t.Errorf("trace mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSelectScenarios(t *testing.T) {
	all, err := selectScenarios("all")
	if err != nil || len(all) != len(scenarios) {
		t.Fatalf("Expected every scenario, got %d (%v)", len(all), err)
	}
	if _, err := selectScenarios("bogus"); err == nil {
		t.Fatal("Expected error for unknown scenario")
	}
}

func TestRunPlain(t *testing.T) {
	var out bytes.Buffer
	if err := runPlain(context.Background(), &out, scenarios, nil); err != nil {
		t.Fatalf("runPlain failed: %v", err)
	}

	got := out.String()
	for _, sc := range scenarios {
		if !strings.Contains(got, "== "+sc.title+" ==") {
			t.Errorf("missing header for %s", sc.name)
		}
	}
	if !strings.Contains(got, "-- Breaking the cycle by hand\nfred destructed\n") {
		t.Errorf("step output not grouped under its title:\n%s", got)
	}
}

func TestRunPlain_DefaultSelection(t *testing.T) {
	list, err := selectScenarios("all")
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := runPlain(context.Background(), &out, list, zap.NewNop()); err != nil {
		t.Fatalf("runPlain failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"== Handle table and host module ==",
		"handles 1, 2 share Mojo, use-count: 2",
		"Mojo destructed",
		"weak handle 3 expired: true",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestInteractiveModel_StepsThrough(t *testing.T) {
	list, _ := selectScenarios("weak")
	m := newInteractiveModel(context.Background(), list, nil, 80, 24)

	enter := tea.KeyMsg{Type: tea.KeyEnter}
	for i := 0; i < 2; i++ {
		m.Update(enter)
	}
	if m.next != 2 {
		t.Fatalf("Expected 2 steps run, got %d", m.next)
	}
	if !strings.Contains(strings.Join(m.lines, "\n"), "weak.Lock() is empty") {
		t.Fatal("Expected the second step's output")
	}

	m.Update(enter)
	if !m.done {
		t.Fatal("Expected the model to finish after the last scenario")
	}
	if _, cmd := m.Update(enter); cmd == nil {
		t.Fatal("Expected quit once finished")
	}
	if m.err != nil {
		t.Fatalf("unexpected error: %v", m.err)
	}
}
