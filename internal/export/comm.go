package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/planweave/planweave/internal/ai"
)

// Stakeholder is one row of the communications plan.
type Stakeholder struct {
	Name                    string `json:"Name"`
	Role                    string `json:"Role"`
	CommunicationMethod     string `json:"CommunicationMethod"`
	Frequency               string `json:"Frequency"`
	Responsible             string `json:"Responsible"`
	Priority                string `json:"Priority"`
	PreferredDeliveryMethod string `json:"PreferredDeliveryMethod"`
	CommunicationGoal       string `json:"CommunicationGoal"`
}

// CommPlan is the normalized communications plan document.
type CommPlan struct {
	Objective    string        `json:"Objective"`
	Stakeholders []Stakeholder `json:"Stakeholders"`
	Channels     []string      `json:"Channels"`
	Notes        string        `json:"Notes"`
}

func commPlanPrompt(desc string) string {
	return fmt.Sprintf(`You are a senior project communications consultant.
Create a Communication Plan JSON for the project described below.
<desc>%s</desc>

Return ONLY a JSON object with this exact structure:
{
 "Objective":"...",
 "Stakeholders":[
   {"Name":"...","Role":"...","CommunicationMethod":"Status Email / Standup / SteerCo / Board Pack",
    "Frequency":"Weekly / Fortnightly / Monthly / Ad-hoc","Responsible":"...","Priority":"High/Medium/Low",
    "PreferredDeliveryMethod":"Email / MS Teams / Slack / Portal","CommunicationGoal":"..."}
 ],
 "Channels":["Email","MS Teams","Standup","SteerCo"],
 "Notes":"Short notes if any"
}
Rules: Generate 8-12 relevant stakeholder rows. Tailor Roles & Frequency to the project description in <desc>.`, desc)
}

// GenerateCommPlan asks the model for a communications plan and normalizes
// the answer. Any failure, from the call to the parse to an empty
// stakeholder table, degrades to the hand-authored default plan rather than
// an error: the export must always produce a document.
func GenerateCommPlan(ctx context.Context, llm Completer, facts Facts, desc string) *CommPlan {
	if llm == nil {
		return DefaultCommPlan(facts.ProjectName)
	}
	temp := 0.3
	resp, err := llm.Complete(ctx, ai.Request{
		Prompt:      commPlanPrompt(desc),
		Temperature: &temp,
		Operation:   "communication plan",
	})
	if err != nil {
		return DefaultCommPlan(facts.ProjectName)
	}
	obj, parseFailure := ai.Parse[map[string]any](resp.Text, "communication plan")
	if parseFailure != nil {
		return DefaultCommPlan(facts.ProjectName)
	}
	return NormalizeCommPlan(obj, facts.ProjectName)
}

// NormalizeCommPlan coerces an arbitrary model answer into a usable plan:
// stakeholder rows get per-field defaults and a normalized priority, and a
// plan with no usable stakeholders at all falls back to the default plan.
func NormalizeCommPlan(obj map[string]any, projectName string) *CommPlan {
	if obj == nil {
		return DefaultCommPlan(projectName)
	}

	var stakeholders []Stakeholder
	if raw, ok := obj["Stakeholders"].([]any); ok {
		for _, item := range raw {
			if d, ok := item.(map[string]any); ok {
				stakeholders = append(stakeholders, stakeholderFromMap(d))
			}
		}
	}
	if len(stakeholders) == 0 {
		return DefaultCommPlan(projectName)
	}

	objective := strings.TrimSpace(stringField(obj, "Objective"))
	if objective == "" {
		objective = fmt.Sprintf("Communicate status, risks and decisions for %s.", projectName)
	}

	channels := stringList(obj["Channels"])
	if len(channels) == 0 {
		channels = []string{"Email", "MS Teams", "Standup"}
	}

	return &CommPlan{
		Objective:    objective,
		Stakeholders: stakeholders,
		Channels:     channels,
		Notes:        stringField(obj, "Notes"),
	}
}

func stakeholderFromMap(d map[string]any) Stakeholder {
	return Stakeholder{
		Name:                    firstNonEmpty(stringField(d, "Name"), stringField(d, "Stakeholder")),
		Role:                    stringField(d, "Role"),
		CommunicationMethod:     firstNonEmpty(stringField(d, "CommunicationMethod"), "Status Email"),
		Frequency:               firstNonEmpty(stringField(d, "Frequency"), "Weekly"),
		Responsible:             firstNonEmpty(stringField(d, "Responsible"), "Project Manager"),
		Priority:                normalizePriority(stringField(d, "Priority")),
		PreferredDeliveryMethod: firstNonEmpty(stringField(d, "PreferredDeliveryMethod"), "Email"),
		CommunicationGoal:       firstNonEmpty(stringField(d, "CommunicationGoal"), stringField(d, "Purpose")),
	}
}

// normalizePriority maps free-text priorities onto High/Medium/Low, taking
// Medium as the safe middle for anything unrecognized.
func normalizePriority(v string) string {
	switch {
	case strings.HasPrefix(strings.ToLower(strings.TrimSpace(v)), "h"):
		return "High"
	case strings.HasPrefix(strings.ToLower(strings.TrimSpace(v)), "l"):
		return "Low"
	default:
		return "Medium"
	}
}

// DefaultCommPlan is the fallback document used when generation fails.
func DefaultCommPlan(projectName string) *CommPlan {
	return &CommPlan{
		Objective: fmt.Sprintf("Keep stakeholders for the '%s' project aligned on schedule, risks, and go-live readiness.", projectName),
		Stakeholders: []Stakeholder{
			{Name: "Project Manager", Role: "Delivery Lead", CommunicationMethod: "Daily Standup", Frequency: "Daily",
				Responsible: "Self", Priority: "High", PreferredDeliveryMethod: "MS Teams",
				CommunicationGoal: "Coordinate delivery & unblock issues"},
			{Name: "Executive Sponsor", Role: "Sponsor", CommunicationMethod: "Steering Committee", Frequency: "Fortnightly",
				Responsible: "Project Manager", Priority: "High", PreferredDeliveryMethod: "Board Pack / Email",
				CommunicationGoal: "Secure decisions, manage risks"},
			{Name: "Product Team", Role: "Product", CommunicationMethod: "Backlog Review", Frequency: "Weekly",
				Responsible: "Product Manager", Priority: "High", PreferredDeliveryMethod: "Jira / Teams",
				CommunicationGoal: "Align on scope and priorities"},
			{Name: "Tech Lead", Role: "Technology", CommunicationMethod: "Tech Sync", Frequency: "Weekly",
				Responsible: "Tech Lead", Priority: "Medium", PreferredDeliveryMethod: "Teams",
				CommunicationGoal: "Resolve architectural issues"},
		},
		Channels: []string{"Email", "MS Teams", "Standup", "Steering Committee"},
		Notes:    "This is a default plan. The AI-generated plan could not be created.",
	}
}
