package analytics

import (
	"sort"
	"time"

	"github.com/classtrack/classtrack-api/internal/models"
)

// bucketLabel is the short month/day label rendered on chart axes.
const bucketLabel = "Jan 02"

// Selection narrows the pipeline to the whole catalog or a single behavior.
// The zero value is not meaningful; construct through All or ForBehavior.
type Selection struct {
	all        bool
	behaviorID string
}

// All selects every behavior.
func All() Selection {
	return Selection{all: true}
}

// ForBehavior selects a single behavior by id.
func ForBehavior(id string) Selection {
	return Selection{behaviorID: id}
}

// IsAll reports whether the selection covers the whole catalog.
func (s Selection) IsAll() bool {
	return s.all
}

// BehaviorID returns the selected behavior id; empty for the all selection.
func (s Selection) BehaviorID() string {
	if s.all {
		return ""
	}
	return s.behaviorID
}

// Summary holds headline counts for a set of incidents.
// Positive + Negative always equals Total: incidents whose behavior id is
// missing from the catalog fold into Negative. That mirrors how the data has
// always been counted; excluding orphans entirely would need a product
// decision first.
type Summary struct {
	Total    int `json:"total"`
	Positive int `json:"positive"`
	Negative int `json:"negative"`
}

// DistributionEntry is one bar in the per-behavior breakdown.
type DistributionEntry struct {
	BehaviorID string              `json:"behavior_id"`
	Name       string              `json:"name"`
	Type       models.BehaviorType `json:"type"`
	Count      int                 `json:"count"`
}

// TimeSeriesBucket is one calendar day with at least one incident. Date is
// midnight at the start of the day in the location the series was built for.
// For the all selection Positive/Negative carry the split; for a single
// behavior Count carries the tally.
type TimeSeriesBucket struct {
	Date     time.Time `json:"date"`
	Label    string    `json:"label"`
	Positive int       `json:"positive"`
	Negative int       `json:"negative"`
	Count    int       `json:"count"`
}

// Report is the assembled per-student view consumed by the report endpoints.
type Report struct {
	StudentID       string              `json:"student_id"`
	StudentName     string              `json:"student_name"`
	RangeStart      time.Time           `json:"range_start"`
	RangeEnd        time.Time           `json:"range_end"`
	Summary         Summary             `json:"summary"`
	Breakdown       []DistributionEntry `json:"breakdown"`
	RecentIncidents []models.Incident   `json:"recent_incidents"`
}

// catalog indexes behaviors by id for type lookups.
func catalog(behaviors []models.Behavior) map[string]models.Behavior {
	m := make(map[string]models.Behavior, len(behaviors))
	for _, b := range behaviors {
		m[b.ID] = b
	}
	return m
}

func filter(incidents []models.Incident, sel Selection) []models.Incident {
	if sel.IsAll() {
		return incidents
	}
	out := make([]models.Incident, 0, len(incidents))
	for _, inc := range incidents {
		if inc.BehaviorID == sel.behaviorID {
			out = append(out, inc)
		}
	}
	return out
}

// Summarize counts the selected incidents, splitting by behavior polarity.
func Summarize(incidents []models.Incident, behaviors []models.Behavior, sel Selection) Summary {
	byID := catalog(behaviors)
	filtered := filter(incidents, sel)

	s := Summary{Total: len(filtered)}
	for _, inc := range filtered {
		if b, ok := byID[inc.BehaviorID]; ok && b.Type == models.BehaviorPositive {
			s.Positive++
		}
	}
	s.Negative = s.Total - s.Positive
	return s
}

// Distribution tallies incidents per behavior in catalog order, dropping
// behaviors that never occur. Incidents referencing ids absent from the
// catalog do not appear here even though Summarize counts them; the summary
// and the breakdown are deliberately asymmetric.
func Distribution(incidents []models.Incident, behaviors []models.Behavior) []DistributionEntry {
	counts := make(map[string]int, len(behaviors))
	for _, inc := range incidents {
		counts[inc.BehaviorID]++
	}

	out := make([]DistributionEntry, 0, len(behaviors))
	for _, b := range behaviors {
		n := counts[b.ID]
		if n == 0 {
			continue
		}
		out = append(out, DistributionEntry{
			BehaviorID: b.ID,
			Name:       b.Name,
			Type:       b.Type,
			Count:      n,
		})
	}
	return out
}

// TimeSeries groups the selected incidents into calendar-day buckets in loc,
// with the day boundary at midnight. Days without incidents are omitted, not
// interpolated. Buckets are keyed and ordered by the real date; the label is
// derived afterwards, so series spanning a year boundary sort correctly.
func TimeSeries(incidents []models.Incident, behaviors []models.Behavior, sel Selection, loc *time.Location) []TimeSeriesBucket {
	if loc == nil {
		loc = time.Local
	}
	byID := catalog(behaviors)
	buckets := make(map[time.Time]*TimeSeriesBucket)

	for _, inc := range filter(incidents, sel) {
		local := inc.Timestamp.In(loc)
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

		bucket, ok := buckets[day]
		if !ok {
			bucket = &TimeSeriesBucket{Date: day, Label: day.Format(bucketLabel)}
			buckets[day] = bucket
		}

		if sel.IsAll() {
			if b, ok := byID[inc.BehaviorID]; ok && b.Type == models.BehaviorPositive {
				bucket.Positive++
			} else {
				bucket.Negative++
			}
		} else {
			bucket.Count++
		}
	}

	out := make([]TimeSeriesBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// BuildReport assembles the per-student report consumed by the email drafting
// flow. Incidents are expected pre-filtered to the requested range; recent
// holds at most maxRecent entries ordered newest first.
func BuildReport(studentID, studentName string, start, end time.Time, incidents []models.Incident, behaviors []models.Behavior, maxRecent int) Report {
	if maxRecent <= 0 {
		maxRecent = 20
	}

	recent := make([]models.Incident, len(incidents))
	copy(recent, incidents)
	sort.Slice(recent, func(i, j int) bool { return recent[i].Timestamp.After(recent[j].Timestamp) })
	if len(recent) > maxRecent {
		recent = recent[:maxRecent]
	}

	return Report{
		StudentID:       studentID,
		StudentName:     studentName,
		RangeStart:      start,
		RangeEnd:        end,
		Summary:         Summarize(incidents, behaviors, All()),
		Breakdown:       Distribution(incidents, behaviors),
		RecentIncidents: recent,
	}
}
