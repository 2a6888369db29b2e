// Copyright 2025 The Encounters Authors
// SPDX-License-Identifier: Apache-2.0

// Package detection groups venues discovered near a user's contacts into
// real-world gatherings and turns them into ranked group suggestions.
package detection

import (
	"fmt"
	"time"

	"github.com/cardscape/encounters/spatial"
)

// BusinessStatusOperational is the business status of a venue that is open.
const BusinessStatusOperational = "OPERATIONAL"

// GroupTypeEvent is the type of every suggestion produced by this package.
const GroupTypeEvent = "event"

// Contact is a person record found near a venue.
type Contact struct {
	ID          string         `json:"id"`
	Name        string         `json:"name,omitempty"`
	Location    *spatial.Point `json:"location,omitempty"`
	SubmittedAt *time.Time     `json:"submittedAt,omitempty"`
	CreatedAt   *time.Time     `json:"createdAt,omitempty"`
}

// Timestamp returns SubmittedAt, falling back to CreatedAt.
func (c *Contact) Timestamp() (time.Time, bool) {
	if c.SubmittedAt != nil {
		return *c.SubmittedAt, true
	}

	if c.CreatedAt != nil {
		return *c.CreatedAt, true
	}

	return time.Time{}, false
}

// Event is a discovered venue that may host a gathering. Events are not
// modified while they are being clustered.
type Event struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Location        *spatial.Point `json:"location"`
	Types           []string       `json:"types"`
	Rating          *float64       `json:"rating,omitempty"`
	UserRatingCount *int           `json:"userRatingCount,omitempty"`
	BusinessStatus  string         `json:"businessStatus,omitempty"`
	Vicinity        string         `json:"vicinity,omitempty"`
	// HighConfidence is set upstream when the venue was a primary discovery hit.
	HighConfidence bool      `json:"highConfidence,omitempty"`
	ContactsNearby []Contact `json:"contactsNearby"`
}

// City returns the city extracted from the vicinity, or "".
func (e *Event) City() string {
	return CityFromVicinity(e.Vicinity)
}

// Confidence is the quality tier of a cluster.
type Confidence int

const (
	ConfidenceLow Confidence = iota
	ConfidenceMedium
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	default:
		return "low"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Confidence) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Confidence) UnmarshalText(text []byte) error {
	switch string(text) {
	case "high":
		*c = ConfidenceHigh
	case "medium":
		*c = ConfidenceMedium
	case "low", "":
		*c = ConfidenceLow
	default:
		return fmt.Errorf("invalid confidence: %q", text)
	}

	return nil
}

// SubType is the category label of a suggestion.
type SubType int

const (
	SubTypeBusiness SubType = iota
	SubTypeConference
	SubTypeSports
	SubTypeEntertainment
	SubTypeEducation
	SubTypeCultural
)

var subTypeNames = map[SubType]string{
	SubTypeBusiness:      "business",
	SubTypeConference:    "conference",
	SubTypeSports:        "sports",
	SubTypeEntertainment: "entertainment",
	SubTypeEducation:     "education",
	SubTypeCultural:      "cultural",
}

func (s SubType) String() string {
	if name, ok := subTypeNames[s]; ok {
		return name
	}

	return subTypeNames[SubTypeBusiness]
}

// MarshalText implements encoding.TextMarshaler.
func (s SubType) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SubType) UnmarshalText(text []byte) error {
	for k, v := range subTypeNames {
		if v == string(text) {
			*s = k

			return nil
		}
	}

	if len(text) == 0 {
		*s = SubTypeBusiness

		return nil
	}

	return fmt.Errorf("invalid sub type: %q", text)
}

// TimeRange is a closed interval of time.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Cluster is a group of events judged to be the same gathering together with
// the contacts found near them.
type Cluster struct {
	ID           string        `json:"id"`
	PrimaryEvent *Event        `json:"primaryEvent"`
	Events       []*Event      `json:"events"`
	Contacts     []Contact     `json:"contacts"`
	CenterPoint  spatial.Point `json:"centerPoint"`
	Radius       int           `json:"radius"`
	Confidence   Confidence    `json:"confidence"`
	TimeRange    TimeRange     `json:"timeRange"`
}

// Types returns the union of the member event types in first-seen order.
func (c *Cluster) Types() []string {
	seen := make(map[string]bool)

	var types []string

	for _, e := range c.Events {
		for _, t := range e.Types {
			if !seen[t] {
				seen[t] = true
				types = append(types, t)
			}
		}
	}

	return types
}

// EventData describes the venues behind a suggestion.
type EventData struct {
	PrimaryVenue  string        `json:"primaryVenue"`
	CenterPoint   spatial.Point `json:"centerPoint"`
	Venues        []string      `json:"venues"`
	AttendeeCount int           `json:"attendeeCount"`
	Radius        int           `json:"radius"`
	Types         []string      `json:"types"`
	Timeframe     string        `json:"timeframe"`
}

// GroupSuggestion is a proposed group of contacts met at the same gathering.
type GroupSuggestion struct {
	ID            string     `json:"id"`
	Type          string     `json:"type"`
	SubType       SubType    `json:"subType"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	ContactIDs    []string   `json:"contactIds"`
	Contacts      []Contact  `json:"contacts"`
	Confidence    Confidence `json:"confidence"`
	Reason        string     `json:"reason"`
	EventData     *EventData `json:"eventData,omitempty"`
	AutoGenerated bool       `json:"autoGenerated"`
	Priority      int        `json:"priority"`
}
