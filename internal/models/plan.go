package models

// Plan is the one-day routine, diet and mindfulness record shown on the plan page.
type Plan struct {
	Summary     string        `json:"summary"`
	Routine     []RoutineStep `json:"routine"`
	Diet        []DietItem    `json:"diet"`
	Mindfulness string        `json:"mindfulness"`
}

// RoutineStep is one pose of the daily flow. Type is usually one of
// "Warm Up", "Flow", "Strength" or "Cool Down" but free text is allowed.
type RoutineStep struct {
	Name        string `json:"name"`
	Sanskrit    string `json:"sanskrit"`
	Duration    string `json:"duration"`
	Type        string `json:"type"`
	Benefit     string `json:"benefit"`
	Instruction string `json:"instruction"`
}

type DietItem struct {
	Time   string `json:"time"`
	Item   string `json:"item"`
	Reason string `json:"reason"`
}
