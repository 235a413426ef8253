package profile

import "strings"

const NewRepertoireTitle = "New Aria"

type Field string

const (
	FieldDisplayName Field = "display_name"
	FieldBio         Field = "bio"
	FieldLocation    Field = "location"
	FieldVoiceType   Field = "voice_type"
	FieldArtistType  Field = "artist_type"
)

var ScalarFields = []Field{FieldDisplayName, FieldBio, FieldLocation, FieldVoiceType, FieldArtistType}

type RepertoireField string

const (
	RepertoireTitle    RepertoireField = "title"
	RepertoireComposer RepertoireField = "composer"
)

type CareerField string

const (
	CareerTitle       CareerField = "title"
	CareerDate        CareerField = "date"
	CareerDescription CareerField = "description"
)

// SetField sets one of the free-text scalar fields. Unknown fields are ignored.
func (p *ArtistProfile) SetField(f Field, value string) bool {
	switch f {
	case FieldDisplayName:
		p.DisplayName = value
	case FieldBio:
		p.Bio = value
	case FieldLocation:
		p.Location = value
	case FieldVoiceType:
		p.VoiceType = value
	case FieldArtistType:
		p.ArtistType = value
	default:
		return false
	}
	return true
}

func (p *ArtistProfile) AddRepertoire(localID int64) {
	p.Repertoire = append(p.Repertoire, RepertoireItem{LocalID: localID, Title: NewRepertoireTitle})
}

func (p *ArtistProfile) UpdateRepertoire(localID int64, f RepertoireField, value string) bool {
	for i := range p.Repertoire {
		if p.Repertoire[i].LocalID != localID {
			continue
		}
		switch f {
		case RepertoireTitle:
			p.Repertoire[i].Title = value
		case RepertoireComposer:
			p.Repertoire[i].Composer = value
		default:
			return false
		}
		return true
	}
	return false
}

func (p *ArtistProfile) RemoveRepertoire(localID int64) bool {
	for i := range p.Repertoire {
		if p.Repertoire[i].LocalID == localID {
			p.Repertoire = append(p.Repertoire[:i:i], p.Repertoire[i+1:]...)
			return true
		}
	}
	return false
}

// MaxLocalID is the largest repertoire local id in use, 0 when empty.
func (p *ArtistProfile) MaxLocalID() int64 {
	var max int64
	for _, r := range p.Repertoire {
		if r.LocalID > max {
			max = r.LocalID
		}
	}
	return max
}

func (p *ArtistProfile) AddSchool(text string) bool {
	s := strings.TrimSpace(text)
	if s == "" {
		return false
	}
	p.Schools = append(p.Schools, s)
	return true
}

func (p *ArtistProfile) RemoveSchool(index int) bool {
	if index < 0 || index >= len(p.Schools) {
		return false
	}
	p.Schools = append(p.Schools[:index:index], p.Schools[index+1:]...)
	return true
}

// PrependMedia puts items in front of the existing media, keeping their order.
func (p *ArtistProfile) PrependMedia(items ...MediaItem) {
	media := make([]MediaItem, 0, len(items)+len(p.Media))
	media = append(media, items...)
	p.Media = append(media, p.Media...)
}

func (p *ArtistProfile) AddCareer(id, date string) {
	moment := CareerMoment{ID: id, Date: date, MediaURLs: []string{}}
	p.Career = append([]CareerMoment{moment}, p.Career...)
}

func (p *ArtistProfile) career(id string) *CareerMoment {
	for i := range p.Career {
		if p.Career[i].ID == id {
			return &p.Career[i]
		}
	}
	return nil
}

func (p *ArtistProfile) HasCareer(id string) bool {
	return p.career(id) != nil
}

func (p *ArtistProfile) UpdateCareer(id string, f CareerField, value string) bool {
	c := p.career(id)
	if c == nil {
		return false
	}
	switch f {
	case CareerTitle:
		c.Title = value
	case CareerDate:
		c.Date = value
	case CareerDescription:
		c.Description = value
	default:
		return false
	}
	return true
}

func (p *ArtistProfile) PrependCareerMedia(id, url string) bool {
	c := p.career(id)
	if c == nil {
		return false
	}
	c.MediaURLs = append([]string{url}, c.MediaURLs...)
	return true
}
