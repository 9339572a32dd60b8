package plan

import "yoga-guide/internal/models"

// DefaultPlan is served whenever generation cannot produce a valid plan.
// Each call returns a fresh copy.
func DefaultPlan() models.Plan {
	return models.Plan{
		Summary: "We couldn't reach the AI guru, but here is a balanced routine for you.",
		Routine: []models.RoutineStep{
			{
				Name:        "Mountain Pose",
				Sanskrit:    "Tadasana",
				Duration:    "2 mins",
				Type:        "Warm Up",
				Benefit:     "Improves posture and stability.",
				Instruction: "Stand tall, feet together, shoulders rolled back.",
			},
			{
				Name:        "Downward Dog",
				Sanskrit:    "Adho Mukha Svanasana",
				Duration:    "3 mins",
				Type:        "Flow",
				Benefit:     "Stretches hamstrings and strengthens arms.",
				Instruction: "Press hands into mat, lift hips high.",
			},
			{
				Name:        "Child's Pose",
				Sanskrit:    "Balasana",
				Duration:    "5 mins",
				Type:        "Cool Down",
				Benefit:     "Relieves stress and fatigue.",
				Instruction: "Sit back on heels, forehead to mat.",
			},
		},
		Diet: []models.DietItem{
			{Time: "Hydration", Item: "Warm Lemon Water", Reason: "Aids digestion and hydration."},
			{Time: "Post-Yoga", Item: "Banana or Nuts", Reason: "Quick energy replenishment."},
		},
		Mindfulness: "Take 5 deep breaths, counting to 4 on inhale and 6 on exhale.",
	}
}
