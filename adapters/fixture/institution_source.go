package fixture

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/encorestage/encore/internal/domain/institution"
	"github.com/encorestage/encore/internal/domain/opportunity"
	"github.com/encorestage/encore/internal/domain/record"
	"github.com/encorestage/encore/pkg/logger"
)

//go:embed institution_postings.yaml
var defaultPostings []byte

type postingDoc struct {
	Fields     map[string]any          `yaml:",inline"`
	Applicants []institution.Applicant `yaml:"applicants"`
}

type fixtureDoc struct {
	Postings []postingDoc `yaml:"postings"`
}

// InstitutionSource serves dashboard postings from a static YAML document.
// Opportunity fields go through the same normalizer as database rows.
type InstitutionSource struct {
	postings []scopedPosting
}

type scopedPosting struct {
	institutionID string
	posting       institution.Posting
}

// NewInstitutionSource loads the fixture at path, or the embedded default
// when path is empty.
func NewInstitutionSource(path string, log logger.Logger) (*InstitutionSource, error) {
	data := defaultPostings
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read institution fixture: %w", err)
		}
		data = b
	}
	src, err := ParseInstitutionSource(data)
	if err != nil {
		return nil, err
	}
	log.Info("Loaded institution fixture", zap.String("path", path), zap.Int("postings", len(src.postings)))
	return src, nil
}

func ParseInstitutionSource(data []byte) (*InstitutionSource, error) {
	var doc fixtureDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("cannot parse institution fixture: %w", err)
	}

	src := &InstitutionSource{}
	for _, d := range doc.Postings {
		row := record.Row(d.Fields)
		applicants := d.Applicants
		if applicants == nil {
			applicants = []institution.Applicant{}
		}
		src.postings = append(src.postings, scopedPosting{
			institutionID: record.StringOr(row, "", "institution_id", "institutionId"),
			posting: institution.Posting{
				Opportunity: opportunity.FromRow(row),
				Applicants:  applicants,
			},
		})
	}
	return src, nil
}

func (s *InstitutionSource) Postings(_ context.Context, institutionID string) ([]institution.Posting, error) {
	out := make([]institution.Posting, 0, len(s.postings))
	for _, p := range s.postings {
		if p.institutionID == "" || p.institutionID == institutionID {
			out = append(out, p.posting)
		}
	}
	return out, nil
}
