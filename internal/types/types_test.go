package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func validTree() *PlanTree {
	return &PlanTree{
		Title: "Customer Retention Programme",
		Outcomes: []Outcome{
			{
				Description: "Reduce churn by 20%",
				Benefits: []Benefit{
					{
						Description: "Higher recurring revenue",
						Deliverables: []Deliverable{
							{
								Description: "Churn prediction dashboard",
								Tasks: []Task{
									{Name: "Build data pipeline", ResponsibleTeam: "Data", Duration: 10},
									{Name: "Design dashboard", ResponsibleTeam: "BI", Duration: 5,
										StartDate: "2025-03-01", EndDate: "2025-03-10"},
								},
							},
						},
					},
				},
			},
		},
	}
}

func TestValidate_ValidTree(t *testing.T) {
	if err := validTree().Validate(); err != nil {
		t.Fatalf("expected valid tree, got: %v", err)
	}
}

func TestValidate_MissingTitle(t *testing.T) {
	tree := validTree()
	tree.Title = "  "
	err := tree.Validate()
	if err == nil {
		t.Fatal("expected error for empty title")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Path != "title" {
		t.Errorf("expected path 'title', got %q", verr.Path)
	}
}

func TestValidate_NoOutcomes(t *testing.T) {
	tree := &PlanTree{Title: "Empty"}
	if err := tree.Validate(); err == nil {
		t.Fatal("expected error for tree with no outcomes")
	}
}

func TestValidate_NonPositiveDuration(t *testing.T) {
	tree := validTree()
	tree.Outcomes[0].Benefits[0].Deliverables[0].Tasks[0].Duration = 0
	err := tree.Validate()
	if err == nil {
		t.Fatal("expected error for zero duration")
	}
	if !strings.Contains(err.Error(), "duration must be positive") {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "tasks[0]") {
		t.Errorf("error should locate the task, got: %v", err)
	}
}

func TestValidate_EndBeforeStart(t *testing.T) {
	tree := validTree()
	task := &tree.Outcomes[0].Benefits[0].Deliverables[0].Tasks[1]
	task.StartDate = "2025-03-10"
	task.EndDate = "2025-03-01"
	if err := tree.Validate(); err == nil {
		t.Fatal("expected error when end_date precedes start_date")
	}
}

func TestValidate_BadDateFormat(t *testing.T) {
	tree := validTree()
	tree.Outcomes[0].Benefits[0].Deliverables[0].Tasks[1].StartDate = "03/01/2025"
	if err := tree.Validate(); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
}

func TestPlanTree_JSONRoundTrip(t *testing.T) {
	tree := validTree()
	data, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded PlanTree
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.Title != tree.Title {
		t.Errorf("title mismatch: %q != %q", decoded.Title, tree.Title)
	}
	o, b, d, tasks := decoded.CountNodes()
	if o != 1 || b != 1 || d != 1 || tasks != 2 {
		t.Errorf("node counts changed in round trip: %d/%d/%d/%d", o, b, d, tasks)
	}
	got := decoded.Outcomes[0].Benefits[0].Deliverables[0].Tasks[1]
	if got.StartDate != "2025-03-01" || got.EndDate != "2025-03-10" {
		t.Errorf("task dates not preserved: %+v", got)
	}
}

func TestFieldEdit_Validate(t *testing.T) {
	tests := []struct {
		name    string
		edit    FieldEdit
		wantErr bool
	}{
		{"vision edit", FieldEdit{Field: FieldVision, Value: "New vision"}, false},
		{"outcome edit", FieldEdit{Field: FieldOutcome, NodeID: 3, Value: "Updated"}, false},
		{"unknown field", FieldEdit{Field: "tasks", NodeID: 1, Value: "x"}, true},
		{"missing node id", FieldEdit{Field: FieldBenefit, Value: "x"}, true},
		{"empty value", FieldEdit{Field: FieldVision, Value: "  "}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.edit.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
