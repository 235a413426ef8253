package institution

import (
	"context"

	"github.com/encorestage/encore/internal/domain/opportunity"
)

type Applicant struct {
	ID             string `yaml:"id" json:"id"`
	Name           string `yaml:"name" json:"name"`
	ProfileSummary string `yaml:"profile_summary" json:"profile_summary"`
}

// Posting is one of the institution's own opportunities with the people who
// applied to it.
type Posting struct {
	opportunity.Opportunity
	Applicants []Applicant `json:"applicants"`
}

func (p Posting) ApplicantCount() int {
	return len(p.Applicants)
}

type Source interface {
	Postings(ctx context.Context, institutionID string) ([]Posting, error)
}
