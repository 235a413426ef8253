package opportunity

import (
	"context"
	"strings"

	"github.com/encorestage/encore/internal/domain/record"
)

type Type string

const (
	TypeAudition    Type = "audition"
	TypeGig         Type = "gig"
	TypeCompetition Type = "competition"
)

const UntitledTitle = "Untitled"

// Opportunity is a posted audition, gig or competition. This service only
// ever reads them.
type Opportunity struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Type     Type     `json:"type"`
	Location string   `json:"location"`
	RoleTags []string `json:"role_tags"`
	Level    string   `json:"level"`
	Deadline string   `json:"deadline"`
	PayRange string   `json:"pay_range"`
}

// ParseType folds a stored type into the closed set. Anything unrecognised
// is shown and filtered as a gig.
func ParseType(s string) Type {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case TypeAudition:
		return TypeAudition
	case TypeCompetition:
		return TypeCompetition
	}
	return TypeGig
}

// Defaults is what FromRow yields for a row carrying none of the known fields.
func Defaults() Opportunity {
	return Opportunity{
		Title:    UntitledTitle,
		Type:     TypeGig,
		RoleTags: []string{},
	}
}

// FromRow maps a raw opportunities row onto the canonical shape. Aliases are
// tried snake_case first.
func FromRow(r record.Row) Opportunity {
	return Opportunity{
		ID:       record.StringOr(r, "", "id", "ID", "uuid"),
		Title:    record.StringOr(r, UntitledTitle, "title", "name"),
		Type:     ParseType(record.StringOr(r, string(TypeGig), "type")),
		Location: record.StringOr(r, "", "location", "city"),
		RoleTags: record.Strings(r, "role_tags", "roleTags"),
		Level:    record.StringOr(r, "", "level"),
		Deadline: record.StringOr(r, "", "deadline", "closing_date"),
		PayRange: record.StringOr(r, "", "pay_range", "payRange"),
	}
}

func FromRows(rows []record.Row) []Opportunity {
	out := make([]Opportunity, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromRow(r))
	}
	return out
}

// Query narrows a listing. A zero Query lists everything.
type Query struct {
	Filter map[string]any
}

type Repository interface {
	// List returns raw rows ordered by deadline ascending.
	List(ctx context.Context, q Query) ([]record.Row, error)
}
