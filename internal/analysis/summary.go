// =============================================================================
// Tax Hall Analytics - Aggregator
// =============================================================================
//
// This module turns a canonical record set into the Summary consumed by the
// chart layer and the report generator.
//
// COMPUTATIONS:
//   - completion and guidance rates (percent of all records)
//   - average duration over records with a positive duration
//   - frequency rankings per dimension
//   - per-operator workload and completion rate
//   - business-type ranking within each of the top subject types
//
// ORDERING:
//   Every ranking is descending by count. Ties keep the order in which the
//   label was first seen in the input, so the same input always produces
//   the same Summary.
//
// The functions here are pure: no I/O, no logging, no shared state.
//
// =============================================================================

package analysis

import (
	"sort"
	"strings"

	"github.com/ginjaninja78/tax-hall-analytics/internal/types"
)

const (
	// TopSubjects is the number of subject types in the cross-tabulation.
	TopSubjects = 4

	// TopBusinessPerSubject is the number of business types kept per subject.
	TopBusinessPerSubject = 5
)

// Summarize computes the aggregate summary of records. An empty input
// yields types.EmptySummary().
func Summarize(records []types.Record) types.Summary {
	total := len(records)
	if total == 0 {
		return types.EmptySummary()
	}

	var successCount, guidedCount, timedCount int
	var timedTotal float64
	for _, r := range records {
		if r.SuccessStatus.Bool() {
			successCount++
		}
		if r.Guided.Bool() {
			guidedCount++
		}
		if r.Duration > 0 {
			timedCount++
			timedTotal += r.Duration
		}
	}

	avgDuration := 0.0
	if timedCount > 0 {
		avgDuration = timedTotal / float64(timedCount)
	}

	subjects := Frequency(records, SubjectType)

	return types.Summary{
		TotalRecords:      total,
		SuccessRate:       percent(successCount, total),
		AvgDurationLong:   avgDuration,
		TopBusinessTypes:  Frequency(records, BusinessType),
		TopReasons:        Frequency(records, VisitReason),
		GuidanceRate:      percent(guidedCount, total),
		OperatorStats:     OperatorStats(records),
		SubjectTypeDist:   toNameValues(subjects),
		TaxAuthorityDist:  toNameValues(Frequency(records, TaxAuthority)),
		BusinessBySubject: BusinessBySubject(records, subjects, TopSubjects, TopBusinessPerSubject),
	}
}

// =============================================================================
// DIMENSIONS
// =============================================================================

// Dimension selects the field a frequency ranking counts.
type Dimension func(types.Record) string

// Dimensions of the canonical record.
var (
	SubjectType  Dimension = func(r types.Record) string { return r.SubjectType }
	TaxAuthority Dimension = func(r types.Record) string { return r.TaxAuthority }
	BusinessType Dimension = func(r types.Record) string { return r.BusinessType }
	Operator     Dimension = func(r types.Record) string { return r.Operator }
	VisitReason  Dimension = func(r types.Record) string { return r.VisitReason }
)

// =============================================================================
// FREQUENCY RANKING
// =============================================================================

// counter counts labels while remembering first-seen order.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(label string) {
	if _, seen := c.counts[label]; !seen {
		c.order = append(c.order, label)
	}
	c.counts[label]++
}

// ranked returns the labels in descending count order, ties in first-seen order.
func (c *counter) ranked() []types.NameCount {
	out := make([]types.NameCount, 0, len(c.order))
	for _, label := range c.order {
		out = append(out, types.NameCount{Name: label, Count: c.counts[label]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// Frequency ranks the trimmed values of one dimension. Values that are
// blank after trimming are not counted.
func Frequency(records []types.Record, dim Dimension) []types.NameCount {
	c := newCounter()
	for _, r := range records {
		label := strings.TrimSpace(dim(r))
		if label == "" {
			continue
		}
		c.add(label)
	}
	return c.ranked()
}

// =============================================================================
// OPERATOR STATS
// =============================================================================

// OperatorStats accumulates workload and completion rate per operator,
// ordered by workload with first-seen tie-break.
func OperatorStats(records []types.Record) []types.OperatorStat {
	c := newCounter()
	success := make(map[string]int)
	for _, r := range records {
		op := Operator(r)
		if op == "" {
			op = types.Unknown
		}
		c.add(op)
		if r.SuccessStatus.Bool() {
			success[op]++
		}
	}

	ranked := c.ranked()
	stats := make([]types.OperatorStat, 0, len(ranked))
	for _, entry := range ranked {
		stats = append(stats, types.OperatorStat{
			Name:        entry.Name,
			Count:       entry.Count,
			SuccessRate: percent(success[entry.Name], entry.Count),
		})
	}
	return stats
}

// =============================================================================
// CROSS-TABULATION
// =============================================================================

// BusinessBySubject ranks business types within each of the first
// topSubjects entries of subjects. subjects must be the subject-type ranking
// of the same records.
func BusinessBySubject(records []types.Record, subjects []types.NameCount, topSubjects, topBusiness int) []types.SubjectBusiness {
	if len(subjects) > topSubjects {
		subjects = subjects[:topSubjects]
	}

	out := make([]types.SubjectBusiness, 0, len(subjects))
	for _, subject := range subjects {
		subset := make([]types.Record, 0)
		for _, r := range records {
			if strings.TrimSpace(r.SubjectType) == subject.Name {
				subset = append(subset, r)
			}
		}

		business := Frequency(subset, BusinessType)
		if len(business) > topBusiness {
			business = business[:topBusiness]
		}
		out = append(out, types.SubjectBusiness{Subject: subject.Name, Data: business})
	}
	return out
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func toNameValues(in []types.NameCount) []types.NameValue {
	out := make([]types.NameValue, 0, len(in))
	for _, entry := range in {
		out = append(out, types.NameValue{Name: entry.Name, Value: entry.Count})
	}
	return out
}
