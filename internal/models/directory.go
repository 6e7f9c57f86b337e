package models

import (
	"fmt"
	"strings"

	"github.com/evvtrack/evvtrack/internal/geo"
)

// Caregiver is the identity record the engine reads through the directory.
// Attributes that hold for the whole week (skills, travel radius, rating)
// live here rather than being repeated on every availability slot.
type Caregiver struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Skills         []string     `json:"skills,omitempty"`
	PreferenceTags []string     `json:"preference_tags,omitempty"` // client preferences this caregiver satisfies
	Rating         float64      `json:"rating"`                    // 0-5
	HomeLocation   geo.Location `json:"home_location"`
	TravelRadiusMi float64      `json:"travel_radius_mi"`
}

// Client is the care recipient record the engine reads through the directory.
type Client struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Location       geo.Location `json:"location"`
	PreferenceTags []string     `json:"preference_tags,omitempty"`
}

func (c *Caregiver) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("caregiver must have an id")
	}
	if c.Rating < 0 || c.Rating > 5 {
		return fmt.Errorf("caregiver rating must be between 0 and 5")
	}
	if c.TravelRadiusMi < 0 {
		return fmt.Errorf("travel radius must not be negative")
	}
	return nil
}

func (c *Client) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("client must have an id")
	}
	return nil
}

// HasTag reports whether the caregiver satisfies a preference tag,
// case-insensitively.
func (c *Caregiver) HasTag(tag string) bool {
	for _, t := range c.PreferenceTags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// HasSkill reports whether the caregiver carries a skill tag,
// case-insensitively.
func (c *Caregiver) HasSkill(skill string) bool {
	for _, s := range c.Skills {
		if strings.EqualFold(s, skill) {
			return true
		}
	}
	return false
}
