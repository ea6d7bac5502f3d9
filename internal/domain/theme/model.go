package theme

import (
	"fmt"
	"time"
)

// Theme is a member-submitted cycle theme waiting in the club's pool.
type Theme struct {
	ID          string
	ClubID      string
	Text        string
	SubmittedBy string
	SubmittedAt time.Time
	UsedAt      *time.Time
	UsedCycleID string
}

func (t Theme) Used() bool {
	return t.UsedAt != nil
}

func (t Theme) Validate() error {
	if t.ClubID == "" {
		return fmt.Errorf("theme club id is required")
	}
	if t.Text == "" {
		return fmt.Errorf("theme text is required")
	}

	return nil
}
