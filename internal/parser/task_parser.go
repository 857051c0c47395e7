package parser

import (
	"regexp"
	"strings"
)

// NotesSeparator splits a task line into description and notes
const NotesSeparator = "::"

const maxDescriptionLength = 200

// ParsedTask is a draft task typed on the command line
type ParsedTask struct {
	Description string
	Notes       string
	Tickets     []string
	Errors      []string
}

var ticketRegex = regexp.MustCompile(`\b([A-Za-z]+)-(\d+)\b`)

// ParseTaskLine splits "description :: notes". Ticket references such as
// app-123 are normalized to upper case wherever they appear.
func ParseTaskLine(input string) ParsedTask {
	result := ParsedTask{
		Tickets: []string{},
		Errors:  []string{},
	}

	desc, notes, _ := strings.Cut(input, NotesSeparator)
	result.Description = normalizeTickets(collapse(desc), &result)
	result.Notes = normalizeTickets(collapse(notes), &result)

	if result.Description == "" {
		result.Errors = append(result.Errors, "Task description is required")
	}
	if len(result.Description) > maxDescriptionLength {
		result.Errors = append(result.Errors, "Task description is too long (max 200 characters)")
	}
	return result
}

// Valid reports whether the line can be saved as a draft task
func (p ParsedTask) Valid() bool {
	return len(p.Errors) == 0
}

func normalizeTickets(text string, result *ParsedTask) string {
	return ticketRegex.ReplaceAllStringFunc(text, func(match string) string {
		id := strings.ToUpper(match)
		for _, seen := range result.Tickets {
			if seen == id {
				return id
			}
		}
		result.Tickets = append(result.Tickets, id)
		return id
	})
}

// collapse trims and squeezes runs of whitespace
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
