package profile

import (
	"fmt"

	"github.com/encorestage/encore/internal/domain/record"
)

// ToRow maps the profile onto the persisted column names of the profiles
// table. Nested sequences become plain maps so the row can be stored as json.
func (p ArtistProfile) ToRow() record.Row {
	repertoire := make([]any, 0, len(p.Repertoire))
	for _, r := range p.Repertoire {
		repertoire = append(repertoire, map[string]any{
			"id":       r.LocalID,
			"title":    r.Title,
			"composer": r.Composer,
		})
	}

	media := make([]any, 0, len(p.Media))
	for _, m := range p.Media {
		media = append(media, map[string]any{
			"id":   m.ID,
			"type": string(m.Kind),
			"url":  m.URL,
			"name": m.Name,
		})
	}

	career := make([]any, 0, len(p.Career))
	for _, c := range p.Career {
		urls := make([]any, 0, len(c.MediaURLs))
		for _, u := range c.MediaURLs {
			urls = append(urls, u)
		}
		career = append(career, map[string]any{
			"id":          c.ID,
			"title":       c.Title,
			"date":        c.Date,
			"description": c.Description,
			"media_urls":  urls,
		})
	}

	schools := make([]any, 0, len(p.Schools))
	for _, s := range p.Schools {
		schools = append(schools, s)
	}

	var avatar any
	if p.AvatarURL != "" {
		avatar = p.AvatarURL
	}

	return record.Row{
		"owner_id":     p.OwnerID,
		"display_name": p.DisplayName,
		"bio":          p.Bio,
		"location":     p.Location,
		"voice_type":   p.VoiceType,
		"artist_type":  p.ArtistType,
		"avatar_url":   avatar,
		"schools":      schools,
		"repertoire":   repertoire,
		"media":        media,
		"career":       career,
	}
}

// FromRow rebuilds a profile from a stored row, tolerating camelCase keys
// written by older clients. Missing ids are filled in so every repertoire,
// media and career id is unique within the result.
func FromRow(r record.Row) ArtistProfile {
	p := New(record.StringOr(r, "", "owner_id", "ownerId", "user_id"))
	p.DisplayName = record.StringOr(r, "", "display_name", "displayName", "name")
	p.Bio = record.StringOr(r, "", "bio")
	p.Location = record.StringOr(r, "", "location")
	p.VoiceType = record.StringOr(r, "", "voice_type", "voiceType")
	p.ArtistType = record.StringOr(r, "", "artist_type", "artistType")
	p.AvatarURL = record.StringOr(r, "", "avatar_url", "avatarUrl")
	p.Schools = record.Strings(r, "schools")

	for _, item := range record.Rows(r, "repertoire") {
		id, _ := record.Int64(item, "id", "local_id", "localId")
		p.Repertoire = append(p.Repertoire, RepertoireItem{
			LocalID:  id,
			Title:    record.StringOr(item, "", "title"),
			Composer: record.StringOr(item, "", "composer"),
		})
	}
	p.fixLocalIDs()

	seen := map[string]bool{}
	for i, item := range record.Rows(r, "media") {
		id := uniqueID(record.StringOr(item, "", "id"), fmt.Sprintf("media-%d", i), seen)
		p.Media = append(p.Media, MediaItem{
			ID:   id,
			Kind: ParseKind(record.StringOr(item, "", "type", "kind")),
			URL:  record.StringOr(item, "", "url"),
			Name: record.StringOr(item, "", "name"),
		})
	}

	seen = map[string]bool{}
	for i, item := range record.Rows(r, "career", "career_timeline", "careerTimeline") {
		id := uniqueID(record.StringOr(item, "", "id"), fmt.Sprintf("career-%d", i), seen)
		p.Career = append(p.Career, CareerMoment{
			ID:          id,
			Title:       record.StringOr(item, "", "title"),
			Date:        record.StringOr(item, "", "date"),
			Description: record.StringOr(item, "", "description"),
			MediaURLs:   record.Strings(item, "media_urls", "mediaUrls"),
		})
	}
	return p
}

func uniqueID(id, fallback string, seen map[string]bool) string {
	if id == "" || seen[id] {
		id = fallback
	}
	for seen[id] {
		id += "'"
	}
	seen[id] = true
	return id
}

// fixLocalIDs renumbers repertoire rows whose id is missing or repeated.
func (p *ArtistProfile) fixLocalIDs() {
	next := p.MaxLocalID() + 1
	seen := map[int64]bool{}
	for i := range p.Repertoire {
		id := p.Repertoire[i].LocalID
		if id <= 0 || seen[id] {
			p.Repertoire[i].LocalID = next
			id = next
			next++
		}
		seen[id] = true
	}
}
