package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/encorestage/encore/internal/domain/record"
)

func TestFromRow_EmptyRowIsBlankProfile(t *testing.T) {
	assert.Equal(t, New(""), FromRow(record.Row{}))
}

func TestToRow_UsesPersistedColumnNames(t *testing.T) {
	p := New("owner-1")
	p.DisplayName = "Giulia Rossi"
	p.VoiceType = "Soprano"
	p.AddRepertoire(3)
	p.PrependMedia(MediaItem{ID: "m1", Kind: KindImage, URL: "https://cdn/x.png", Name: "x.png"})
	p.AddCareer("c1", "2025-01-01")

	row := p.ToRow()
	assert.Equal(t, "owner-1", row["owner_id"])
	assert.Equal(t, "Giulia Rossi", row["display_name"])
	assert.Equal(t, "Soprano", row["voice_type"])
	assert.Nil(t, row["avatar_url"])
	assert.Equal(t, map[string]any{"id": int64(3), "title": NewRepertoireTitle, "composer": ""}, row["repertoire"].([]any)[0])
	assert.Equal(t, "image", row["media"].([]any)[0].(map[string]any)["type"])
	assert.Contains(t, row["career"].([]any)[0].(map[string]any), "media_urls")
}

func TestFromRow_RoundTrip(t *testing.T) {
	p := New("owner-1")
	p.DisplayName = "Giulia Rossi"
	p.AvatarURL = "https://cdn/avatar.png"
	p.AddSchool("Conservatorio")
	p.AddRepertoire(1)
	p.UpdateRepertoire(1, RepertoireComposer, "Mozart")
	p.PrependMedia(MediaItem{ID: "m1", Kind: KindVideo, URL: "https://cdn/v.mp4", Name: "v.mp4"})
	p.AddCareer("c1", "2025-01-01")
	p.PrependCareerMedia("c1", "https://cdn/c.jpg")

	assert.Equal(t, p, FromRow(p.ToRow()))
}

func TestFromRow_CamelCaseAndRepairs(t *testing.T) {
	row := record.Row{
		"ownerId":     "owner-2",
		"displayName": "Marco",
		"voiceType":   "Tenor",
		"repertoire": []any{
			map[string]any{"title": "Una furtiva lagrima", "composer": "Donizetti"},
			map[string]any{"id": float64(4), "title": "Nessun dorma"},
			map[string]any{"id": float64(4), "title": "Recondita armonia"},
		},
		"media":           `[{"type":"image","url":"u1"},{"type":"mystery","url":"u2"}]`,
		"career_timeline": []any{map[string]any{"id": "c1", "mediaUrls": []any{"u3"}}},
	}

	p := FromRow(row)
	assert.Equal(t, "owner-2", p.OwnerID)
	assert.Equal(t, "Marco", p.DisplayName)
	assert.Equal(t, "Tenor", p.VoiceType)

	ids := map[int64]bool{}
	for _, r := range p.Repertoire {
		assert.False(t, ids[r.LocalID], "duplicate local id %d", r.LocalID)
		ids[r.LocalID] = true
	}
	assert.Len(t, ids, 3)

	assert.Equal(t, KindImage, p.Media[0].Kind)
	assert.Equal(t, KindAudio, p.Media[1].Kind)
	assert.NotEqual(t, p.Media[0].ID, p.Media[1].ID)
	assert.Equal(t, []string{"u3"}, p.Career[0].MediaURLs)
}
