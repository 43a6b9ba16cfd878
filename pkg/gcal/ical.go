package gcal

import (
	"bufio"
	"io"
	"strings"
	"time"
)

// Event is one calendar event, parsed from an iCal feed or converted from an
// API record.
type Event struct {
	UID         string    `json:"uid"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	URL         string    `json:"url,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Created     time.Time `json:"created,omitempty"`
	Updated     time.Time `json:"updated,omitempty"`
	AllDay      bool      `json:"allDay,omitempty"`
}

const (
	icalDateTimeLayout = "20060102T150405Z" // YYYYMMDDTHHMMSSZ, 'Z' indicates UTC
	icalDateLayout     = "20060102"
)

// ParseFeed parses VEVENT blocks out of an iCal feed. Events without a
// summary are dropped; unknown properties are ignored.
func ParseFeed(r io.Reader) ([]Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var events []Event
	var current *Event

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "BEGIN:VEVENT":
			current = &Event{}
		case line == "END:VEVENT":
			if current != nil && current.Summary != "" {
				events = append(events, *current)
			}
			current = nil
		case current != nil && strings.Contains(line, ":"):
			colon := strings.Index(line, ":")
			property := line[:colon]
			value := line[colon+1:]
			parseProperty(current, property, value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// parseProperty applies one KEY:VALUE line. Property parameters such as
// ;VALUE=DATE are folded into the key.
func parseProperty(event *Event, property, value string) {
	name := property
	dateOnly := false
	if semi := strings.Index(property, ";"); semi >= 0 {
		name = property[:semi]
		dateOnly = strings.Contains(property[semi:], "VALUE=DATE")
	}

	switch name {
	case "SUMMARY":
		event.Summary = unescapeText(value)
	case "DESCRIPTION":
		event.Description = unescapeText(value)
	case "LOCATION":
		event.Location = unescapeText(value)
	case "DTSTART":
		event.Start = parseDateTime(value, dateOnly)
		if dateOnly {
			event.AllDay = true
		}
	case "DTEND":
		event.End = parseDateTime(value, dateOnly)
	case "CREATED":
		event.Created = parseDateTime(value, false)
	case "LAST-MODIFIED":
		event.Updated = parseDateTime(value, false)
	case "UID":
		event.UID = value
	case "URL":
		event.URL = value
	}
}

func parseDateTime(value string, dateOnly bool) time.Time {
	if dateOnly || len(value) == len(icalDateLayout) {
		if t, err := time.Parse(icalDateLayout, value); err == nil {
			return t
		}
		return time.Time{}
	}
	if t, err := time.Parse(icalDateTimeLayout, value); err == nil {
		return t
	}
	// Some feeds emit local times without the trailing Z.
	if t, err := time.Parse("20060102T150405", value); err == nil {
		return t
	}
	return time.Time{}
}

// unescapeText reverses the iCal text escapes \n \, \; and \\.
func unescapeText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		if text[i] != '\\' || i+1 == len(text) {
			b.WriteByte(text[i])
			continue
		}
		i++
		switch text[i] {
		case 'n', 'N':
			b.WriteByte('\n')
		case ',', ';', '\\':
			b.WriteByte(text[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(text[i])
		}
	}
	return b.String()
}
