package generateplan

import "yoga-guide/internal/models"

// Input is the process variable set; it is the onboarding profile itself.
type Input = models.UserProfile

type Output struct {
	Plan    models.Plan `json:"plan"`
	Outcome string      `json:"outcome"`
	Model   string      `json:"model,omitempty"`
}
