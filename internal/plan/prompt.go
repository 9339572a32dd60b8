package plan

import (
	"fmt"
	"strconv"
	"strings"

	"yoga-guide/internal/models"
)

// Defaults substituted for missing profile fields.
const (
	DefaultName     = "Yogi"
	DefaultAge      = 25
	DefaultWeight   = 70
	DefaultGoal     = "General Fitness"
	DefaultDuration = 30
	DefaultInjuries = "None"
)

// GenerationRequest is a profile with every field resolved.
type GenerationRequest struct {
	Name     string
	Age      float64
	Weight   float64
	Goals    []string
	Duration float64
	Injuries string
}

func NewGenerationRequest(p models.UserProfile) GenerationRequest {
	req := GenerationRequest{
		Name:     strings.TrimSpace(p.Name),
		Age:      p.Age.Or(DefaultAge),
		Weight:   p.Weight.Or(DefaultWeight),
		Duration: p.Duration.Or(DefaultDuration),
		Injuries: strings.TrimSpace(p.Injuries),
	}

	if req.Name == "" {
		req.Name = DefaultName
	}
	if req.Injuries == "" {
		req.Injuries = DefaultInjuries
	}

	for _, g := range p.Goals {
		if g = strings.TrimSpace(g); g != "" {
			req.Goals = append(req.Goals, g)
		}
	}
	if len(req.Goals) == 0 {
		req.Goals = []string{DefaultGoal}
	}

	return req
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Prompt renders the instruction sent to every candidate model.
func (r GenerationRequest) Prompt() string {
	var b strings.Builder

	b.WriteString("You are an expert Yoga Instructor (Iyengar style) and Nutritionist.\n")
	b.WriteString("Create a highly personalized 1-day plan for:\n")
	fmt.Fprintf(&b, "- Name: %s\n", r.Name)
	fmt.Fprintf(&b, "- Profile: %s years old, %skg\n", num(r.Age), num(r.Weight))
	fmt.Fprintf(&b, "- Main Goals: %s\n", strings.Join(r.Goals, ", "))
	fmt.Fprintf(&b, "- Session Duration: %s minutes\n", num(r.Duration))
	fmt.Fprintf(&b, "- Physical Issues: %s\n\n", r.Injuries)

	b.WriteString("Return strictly valid JSON (no markdown) with this structure:\n")
	fmt.Fprintf(&b, `{
  "summary": "A 1-sentence motivating personalized summary for %s.",
  "routine": [
    {
      "name": "Pose Name (English)",
      "sanskrit": "Sanskrit Name",
      "duration": "Time (e.g., 2 mins)",
      "type": "Warm Up | Flow | Strength | Cool Down",
      "benefit": "Specific benefit related to %s",
      "instruction": "Brief 1-sentence cue on how to do it correctly."
    }
  ],
  "diet": [
    { "time": "Pre-Yoga", "item": "Specific food item", "reason": "Why this helps energy/recovery." },
    { "time": "Post-Yoga", "item": "Meal suggestion", "reason": "Recovery benefit." },
    { "time": "Lunch", "item": "Healthy Indian/Global meal", "reason": "Sustained energy." }
  ],
  "mindfulness": "A short breathing or meditation tip."
}
`, r.Name, r.Goals[0])

	return b.String()
}
