package pokeapi

import (
	"fmt"
	"strings"
)

// Summary is a list endpoint reference used to locate a detail resource.
type Summary struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ListPage mirrors the payload returned by the list endpoint.
type ListPage struct {
	Count    int       `json:"count"`
	Next     string    `json:"next"`
	Previous string    `json:"previous"`
	Results  []Summary `json:"results"`
}

// Record is a fully resolved catalog entry.
type Record struct {
	ID             int        `json:"id"`
	Name           string     `json:"name"`
	Sprites        Sprites    `json:"sprites"`
	Types          []TypeSlot `json:"types"`
	Height         int        `json:"height,omitempty"`
	Weight         int        `json:"weight,omitempty"`
	BaseExperience int        `json:"base_experience,omitempty"`
}

// Sprites holds the image references Dex cares about.
type Sprites struct {
	FrontDefault string       `json:"front_default,omitempty"`
	Other        OtherSprites `json:"other"`
}

// OtherSprites groups alternative artwork sets.
type OtherSprites struct {
	OfficialArtwork Artwork `json:"official-artwork"`
}

// Artwork is a single artwork set.
type Artwork struct {
	FrontDefault string `json:"front_default,omitempty"`
}

// TypeSlot is one ordered type entry of a record.
type TypeSlot struct {
	Slot int          `json:"slot"`
	Type NamedLinkRef `json:"type"`
}

// NamedLinkRef is the API's generic {name, url} pair.
type NamedLinkRef struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Populated reports whether the record holds real data. Unfilled slots of the
// accumulated collection are zero records.
func (r Record) Populated() bool {
	return r.ID > 0 || r.Name != ""
}

// PrimarySprite prefers the official artwork and falls back to the default sprite.
func (r Record) PrimarySprite() string {
	if art := strings.TrimSpace(r.Sprites.Other.OfficialArtwork.FrontDefault); art != "" {
		return art
	}
	return strings.TrimSpace(r.Sprites.FrontDefault)
}

// Categories returns the record's type names in slot order.
func (r Record) Categories() []string {
	if len(r.Types) == 0 {
		return nil
	}
	out := make([]string, 0, len(r.Types))
	for _, t := range r.Types {
		if name := strings.TrimSpace(t.Type.Name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// DisplayName returns the name with its first letter upper-cased.
func (r Record) DisplayName() string {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return "Unknown"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// DisplayID formats the id as #001, or #??? when unknown.
func (r Record) DisplayID() string {
	if r.ID <= 0 {
		return "#???"
	}
	return fmt.Sprintf("#%03d", r.ID)
}

// MatchesName reports whether the lowercased name contains the lowercased term.
func (r Record) MatchesName(term string) bool {
	if r.Name == "" {
		return false
	}
	return strings.Contains(strings.ToLower(r.Name), strings.ToLower(term))
}
