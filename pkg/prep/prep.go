// Package prep derives the ProcessSteps table from a raw support-ticket
// export.
package prep

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/roiscope/roiscope/pkg/model"
)

// TableTickets names the ticket export in error messages.
const TableTickets = "Tickets"

// Ticket export columns.
const (
	ColTicketID      = "Ticket ID"
	ColTicketType    = "Ticket Type"
	ColTicketSubject = "Ticket Subject"
	ColFirstResponse = "First Response Time"
	ColResolution    = "Time to Resolution"
	ColCSAT          = "Customer Satisfaction Rating"
)

// Fallbacks for subjects without any measured value.
const (
	DefaultHandleTimeMin      = 30.0
	DefaultFirstResponseHours = 4.0
	DefaultResolutionHours    = 24.0
	DefaultCSAT               = 3.0
	DefaultProcessArea        = "General"
	DefaultOwnerRole          = "L1 Agent"
)

// Ticket is one row of the export. Durations are in hours; a nil field was
// blank or unparseable.
type Ticket struct {
	ID                 string
	Type               string
	Subject            string
	FirstResponseHours *float64
	ResolutionHours    *float64
	CSAT               *float64
}

// Step is a derived process step with the aggregates it was built from.
type Step struct {
	model.ProcessStep
	Description        string
	OwnerRole          string
	Volume             int
	FirstResponseHours float64
	ResolutionHours    float64
	CSAT               float64
}

// DefaultAutomationMapping maps ticket subjects to automation candidates.
// Subjects not listed are Partial.
func DefaultAutomationMapping() map[string]string {
	return map[string]string{
		"Password reset":           "Full",
		"Account access":           "Full",
		"Product setup":            "Partial",
		"Installation support":     "Partial",
		"Product recommendation":   "Partial",
		"Product compatibility":    "Partial",
		"Payment issue":            "Partial",
		"Delivery problem":         "Partial",
		"Network problem":          "Partial",
		"Battery life":             "Partial",
		"Display issue":            "Partial",
		"Peripheral compatibility": "Partial",
		"Software bug":             "Assist",
		"Hardware issue":           "Assist",
		"Data loss":                "Assist",
		"Refund request":           "Assist",
		"Cancellation request":     "Assist",
	}
}

// ParseDuration converts "X days HH:MM:SS", "1 day HH:MM:SS" or "HH:MM:SS"
// to hours. Seconds are ignored.
func ParseDuration(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	days := 0
	if before, after, ok := cutDays(s); ok {
		d, err := strconv.Atoi(strings.TrimSpace(before))
		if err != nil {
			return 0, false
		}
		days = d
		s = strings.TrimSpace(after)
		if s == "" {
			s = "00:00:00"
		}
	}

	parts := strings.Split(s, ":")
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	minutes := 0
	if len(parts) > 1 {
		if minutes, err = strconv.Atoi(parts[1]); err != nil {
			return 0, false
		}
	}
	return float64(days*24+hours) + float64(minutes)/60, true
}

func cutDays(s string) (string, string, bool) {
	for _, sep := range []string{" days", " day"} {
		if before, after, ok := strings.Cut(s, sep); ok {
			return before, after, true
		}
	}
	return "", "", false
}

// ReadTickets parses a ticket export. Unparseable durations and ratings are
// treated as missing.
func ReadTickets(r io.Reader) ([]Ticket, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &model.Error{Kind: model.KindMissingInput, Op: "load", Table: TableTickets, Message: "ticket export is empty"}
		}
		return nil, &model.Error{Kind: model.KindInvalidInput, Op: "load", Table: TableTickets, Message: "reading header", Err: err}
	}
	idx := make(map[string]int, len(head))
	for i, col := range head {
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff")
		}
		idx[strings.TrimSpace(col)] = i
	}
	var missing []string
	for _, col := range []string{ColTicketID, ColTicketType, ColTicketSubject, ColFirstResponse, ColResolution, ColCSAT} {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &model.Error{Kind: model.KindMissingInput, Op: "load", Table: TableTickets,
			Message: fmt.Sprintf("%s missing required columns: %v", TableTickets, missing)}
	}

	var tickets []Ticket
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &model.Error{Kind: model.KindInvalidInput, Op: "load", Table: TableTickets, Row: row, Message: "reading rows", Err: err}
		}
		get := func(col string) string {
			if i := idx[col]; i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}

		t := Ticket{ID: get(ColTicketID), Type: get(ColTicketType), Subject: get(ColTicketSubject)}
		if t.Subject == "" {
			continue
		}
		if h, ok := ParseDuration(get(ColFirstResponse)); ok {
			t.FirstResponseHours = &h
		}
		if h, ok := ParseDuration(get(ColResolution)); ok {
			t.ResolutionHours = &h
		}
		if v, err := strconv.ParseFloat(get(ColCSAT), 64); err == nil && !math.IsNaN(v) {
			t.CSAT = &v
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

// ReadTicketsFile reads a ticket export from disk.
func ReadTicketsFile(path string) ([]Ticket, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &model.Error{Kind: model.KindMissingInput, Op: "load", Table: TableTickets, Message: "missing file: " + path}
		}
		return nil, fmt.Errorf("opening tickets: %w", err)
	}
	defer f.Close()
	return ReadTickets(f)
}

// mean accumulates an average over present values only.
type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v *float64) {
	if v != nil {
		m.sum += *v
		m.n++
	}
}

func (m mean) value() (float64, bool) {
	if m.n == 0 {
		return 0, false
	}
	return m.sum / float64(m.n), true
}

type group struct {
	subject            string
	volume             int
	firstResponse, res mean
	csat               mean
	types              map[string]int
}

// DeriveSteps groups tickets by subject into process steps. Steps are
// ordered by volume, largest first, ties by subject, and numbered S01, S02,
// and so on. A nil mapping uses DefaultAutomationMapping.
func DeriveSteps(tickets []Ticket, mapping map[string]string) []Step {
	if mapping == nil {
		mapping = DefaultAutomationMapping()
	}

	groups := make(map[string]*group)
	for _, t := range tickets {
		g, ok := groups[t.Subject]
		if !ok {
			g = &group{subject: t.Subject, types: make(map[string]int)}
			groups[t.Subject] = g
		}
		g.volume++
		g.firstResponse.add(t.FirstResponseHours)
		g.res.add(t.ResolutionHours)
		g.csat.add(t.CSAT)
		if t.Type != "" {
			g.types[t.Type]++
		}
	}

	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].volume != ordered[j].volume {
			return ordered[i].volume > ordered[j].volume
		}
		return ordered[i].subject < ordered[j].subject
	})

	total := len(tickets)
	steps := make([]Step, 0, len(ordered))
	for i, g := range ordered {
		s := Step{
			ProcessStep: model.ProcessStep{
				ID:                  fmt.Sprintf("S%02d", i+1),
				Name:                g.subject,
				ProcessArea:         modalType(g.types),
				VolumeShare:         round(float64(g.volume)/float64(total), 3),
				AvgHandleTimeMin:    DefaultHandleTimeMin,
				AutomationCandidate: model.ParseAutomationCandidate(candidateFor(mapping, g.subject)),
			},
			Description:        "Customer inquiry related to " + strings.ToLower(g.subject),
			OwnerRole:          DefaultOwnerRole,
			Volume:             g.volume,
			FirstResponseHours: DefaultFirstResponseHours,
			ResolutionHours:    DefaultResolutionHours,
			CSAT:               DefaultCSAT,
		}
		if v, ok := g.firstResponse.value(); ok {
			s.FirstResponseHours = round(v, 2)
		}
		if v, ok := g.res.value(); ok {
			s.ResolutionHours = round(v, 2)
			// Handle time is estimated as a third of the resolution time.
			s.AvgHandleTimeMin = s.ResolutionHours * 60 / 3
		}
		if v, ok := g.csat.value(); ok {
			s.CSAT = round(v, 2)
		}
		steps = append(steps, s)
	}
	return steps
}

func candidateFor(mapping map[string]string, subject string) string {
	if c, ok := mapping[subject]; ok {
		return c
	}
	return "Partial"
}

// modalType returns the most frequent ticket type, the lexically smallest on
// ties.
func modalType(types map[string]int) string {
	best, bestN := DefaultProcessArea, 0
	for t, n := range types {
		if n > bestN || (n == bestN && t < best) {
			best, bestN = t, n
		}
	}
	return best
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// StepColumns is the column order of a derived ProcessSteps table.
var StepColumns = []string{
	"step_id",
	"step_name",
	"process_area",
	"description",
	"owner_role",
	"volume_share",
	"avg_handle_time_min",
	"avg_first_response_hrs",
	"avg_resolution_hrs",
	"avg_csat",
	"volume",
	"automation_candidate",
}

// WriteSteps writes steps as a ProcessSteps table loadable by
// model.LoadSteps.
func WriteSteps(w io.Writer, steps []Step) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(StepColumns); err != nil {
		return err
	}
	for _, s := range steps {
		row := []string{
			s.ID,
			s.Name,
			s.ProcessArea,
			s.Description,
			s.OwnerRole,
			formatFloat(s.VolumeShare),
			formatFloat(s.AvgHandleTimeMin),
			formatFloat(s.FirstResponseHours),
			formatFloat(s.ResolutionHours),
			formatFloat(s.CSAT),
			strconv.Itoa(s.Volume),
			s.AutomationCandidate.String(),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
