package fixture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encorestage/encore/internal/domain/opportunity"
	"github.com/encorestage/encore/pkg/logger"
)

func TestInstitutionSource_Default(t *testing.T) {
	src, err := NewInstitutionSource("", logger.NewNop())
	require.NoError(t, err)

	postings, err := src.Postings(context.Background(), "any-institution")
	require.NoError(t, err)
	require.Len(t, postings, 1)

	p := postings[0]
	assert.Equal(t, "org_op_1", p.ID)
	assert.Equal(t, "Chorus auditions", p.Title)
	assert.Equal(t, opportunity.TypeAudition, p.Type)
	assert.Equal(t, "Florence", p.Location)
	assert.Equal(t, []string{"Chorus"}, p.RoleTags)
	assert.Equal(t, "€0-€100", p.PayRange)
	assert.Equal(t, 1, p.ApplicantCount())
	assert.Equal(t, "Marco", p.Applicants[0].Name)
	assert.Equal(t, "Tenor", p.Applicants[0].ProfileSummary)
}

func TestInstitutionSource_ScopesByInstitution(t *testing.T) {
	doc := []byte(`
postings:
  - id: p1
    name: Opera gala
    institution_id: inst-a
  - id: p2
    roleTags: [Bass]
`)
	src, err := ParseInstitutionSource(doc)
	require.NoError(t, err)

	a, err := src.Postings(context.Background(), "inst-a")
	require.NoError(t, err)
	require.Len(t, a, 2)
	assert.Equal(t, "Opera gala", a[0].Title)
	assert.Equal(t, opportunity.TypeGig, a[1].Type)
	assert.Equal(t, []string{"Bass"}, a[1].RoleTags)
	assert.Equal(t, 0, a[1].ApplicantCount())

	b, err := src.Postings(context.Background(), "inst-b")
	require.NoError(t, err)
	require.Len(t, b, 1)
	assert.Equal(t, "p2", b[0].ID)
}

func TestInstitutionSource_BadYAML(t *testing.T) {
	_, err := ParseInstitutionSource([]byte("postings: [unclosed"))
	assert.Error(t, err)
}
