// Package inspection turns row-level violation records into the
// per-inspection modeling dataset.
//
// The raw source carries one row per violation found during an inspection
// visit, so the outcome score repeats across every violation of the same
// visit. Aggregate collapses those rows into one feature row per inspection
// event: violation counts, a critical-violation count, and the violation
// codes joined in encounter order.
package inspection

import (
	"math"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/civicdata/inspectscore/core/frame"
	"github.com/civicdata/inspectscore/core/parallel"
	"github.com/civicdata/inspectscore/pkg/errors"
	"github.com/civicdata/inspectscore/pkg/log"
)

// Columns names the raw source columns the aggregator reads.
type Columns struct {
	EntityID       string
	Borough        string
	Date           string
	InspectionType string
	ViolationCode  string
	CriticalFlag   string
	Score          string
}

// DefaultColumns matches the NYC DOHMH inspection export layout.
func DefaultColumns() Columns {
	return Columns{
		EntityID:       "CAMIS",
		Borough:        "BORO",
		Date:           "INSPECTION DATE",
		InspectionType: "INSPECTION TYPE",
		ViolationCode:  "VIOLATION CODE",
		CriticalFlag:   "CRITICAL FLAG",
		Score:          "SCORE",
	}
}

// DatasetSchema is the fixed schema of the aggregated modeling dataset.
// Counts are floats because they feed the model as numeric features.
func DatasetSchema() frame.Schema {
	return frame.Schema{
		{Name: "entity_id", Type: frame.String},
		{Name: "borough", Type: frame.String},
		{Name: "inspection_type", Type: frame.String},
		{Name: "score", Type: frame.Float},
		{Name: "codes", Type: frame.String},
		{Name: "critical_violations", Type: frame.Float},
		{Name: "total_violations", Type: frame.Float},
	}
}

// Summary reports what the aggregation did: rows read, rows excluded by
// each validity filter, and groups produced.
type Summary struct {
	RowsIn                int
	DroppedSentinelDate   int
	DroppedNullScore      int
	DroppedUnknownBorough int
	Groups                int
}

// Aggregator groups raw violation rows into per-inspection feature rows.
//
// Known coverage gap: an inspection with no source row at all (a clean
// visit the source never recorded) cannot appear in the output; the
// aggregator only reshapes rows that exist. A clean visit encoded as a
// single row with an empty violation code is kept and aggregates to
// total_violations=1, critical_violations=0, codes="".
type Aggregator struct {
	columns   Columns
	sentinel  time.Time
	critical  string
	separator string
	workers   int
	logger    log.Logger
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithColumns overrides the raw source column names.
func WithColumns(c Columns) AggregatorOption {
	return func(a *Aggregator) { a.columns = c }
}

// WithSeparator overrides the joined-codes separator.
func WithSeparator(sep string) AggregatorOption {
	return func(a *Aggregator) { a.separator = sep }
}

// WithWorkers caps the partition worker count.
func WithWorkers(n int) AggregatorOption {
	return func(a *Aggregator) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithLogger sets the logger, typically from a session.
func WithLogger(logger log.Logger) AggregatorOption {
	return func(a *Aggregator) { a.logger = logger }
}

// NewAggregator creates an Aggregator with NYC-layout defaults: sentinel
// date 01/01/1900, critical marker "Critical", comma-joined codes.
func NewAggregator(opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		columns:   DefaultColumns(),
		sentinel:  time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC),
		critical:  "Critical",
		separator: ",",
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = log.GetLoggerWithName("inspection").With(
			log.ComponentKey, "aggregator",
		)
	}
	return a
}

// group accumulates one inspection event. Codes keep encounter order.
type group struct {
	entityID string
	borough  string
	date     string
	instype  string
	score    float64
	codes    []string
	critical int
	total    int
}

// partitionResult holds one partition's groups in first-seen order plus its
// filter counts. Partitions cover contiguous row ranges, so merging them in
// partition order preserves global encounter order.
type partitionResult struct {
	groups  map[string]*group
	order   []string
	summary Summary
}

// Aggregate implements the group-aggregate-derive reshaping. The input is
// the raw source frame; the output follows DatasetSchema, sorted by entity
// id (then date, inspection type and score) so the result is deterministic
// regardless of partition count.
func (a *Aggregator) Aggregate(f *frame.Frame) (_ *frame.Frame, _ *Summary, err error) {
	defer errors.Recover(&err, "Aggregator.Aggregate")

	start := time.Now()
	n := f.NumRows()

	entityIDs, err := textColumn(f, a.columns.EntityID)
	if err != nil {
		return nil, nil, err
	}
	boroughs, err := textColumn(f, a.columns.Borough)
	if err != nil {
		return nil, nil, err
	}
	dates, err := textColumn(f, a.columns.Date)
	if err != nil {
		return nil, nil, err
	}
	types, err := textColumn(f, a.columns.InspectionType)
	if err != nil {
		return nil, nil, err
	}
	codes, err := textColumn(f, a.columns.ViolationCode)
	if err != nil {
		return nil, nil, err
	}
	flags, err := textColumn(f, a.columns.CriticalFlag)
	if err != nil {
		return nil, nil, err
	}
	scores, err := floatColumn(f, a.columns.Score)
	if err != nil {
		return nil, nil, err
	}

	workers := a.workers
	if workers == 0 {
		workers = defaultWorkers(n)
	}
	ranges := parallel.Partition(n, workers)
	results := make([]partitionResult, len(ranges))

	parallel.ParallelizeWorkers(n, workers, func(startRow, endRow int) {
		slot := partitionSlot(ranges, startRow)
		res := partitionResult{groups: make(map[string]*group)}

		for i := startRow; i < endRow; i++ {
			res.summary.RowsIn++

			if a.isSentinelDate(dates[i]) {
				res.summary.DroppedSentinelDate++
				continue
			}
			if math.IsNaN(scores[i]) {
				res.summary.DroppedNullScore++
				continue
			}
			if isUnknownBorough(boroughs[i]) {
				res.summary.DroppedUnknownBorough++
				continue
			}

			indicator := 0
			if flags[i] == a.critical {
				indicator = 1
			}

			key := groupKey(entityIDs[i], boroughs[i], dates[i], types[i], scores[i])
			g, ok := res.groups[key]
			if !ok {
				g = &group{
					entityID: entityIDs[i],
					borough:  boroughs[i],
					date:     dates[i],
					instype:  types[i],
					score:    scores[i],
				}
				res.groups[key] = g
				res.order = append(res.order, key)
			}
			g.codes = append(g.codes, codes[i])
			g.critical += indicator
			g.total++
		}

		results[slot] = res
	})

	// Merge partitions in partition order so codes keep row order.
	merged := make(map[string]*group)
	var order []string
	summary := &Summary{}
	for _, res := range results {
		summary.RowsIn += res.summary.RowsIn
		summary.DroppedSentinelDate += res.summary.DroppedSentinelDate
		summary.DroppedNullScore += res.summary.DroppedNullScore
		summary.DroppedUnknownBorough += res.summary.DroppedUnknownBorough

		for _, key := range res.order {
			g := res.groups[key]
			m, ok := merged[key]
			if !ok {
				merged[key] = g
				order = append(order, key)
				continue
			}
			m.codes = append(m.codes, g.codes...)
			m.critical += g.critical
			m.total += g.total
		}
	}

	groups := make([]*group, 0, len(order))
	for _, key := range order {
		groups = append(groups, merged[key])
	}
	sort.SliceStable(groups, func(i, j int) bool {
		gi, gj := groups[i], groups[j]
		if gi.entityID != gj.entityID {
			return gi.entityID < gj.entityID
		}
		if gi.date != gj.date {
			return gi.date < gj.date
		}
		if gi.instype != gj.instype {
			return gi.instype < gj.instype
		}
		return gi.score < gj.score
	})

	out := frame.New(DatasetSchema())
	for _, g := range groups {
		err := out.Append(
			g.entityID,
			g.borough,
			g.instype,
			g.score,
			strings.Join(g.codes, a.separator),
			float64(g.critical),
			float64(g.total),
		)
		if err != nil {
			return nil, nil, err
		}
	}
	summary.Groups = out.NumRows()

	a.logger.Info("Aggregation completed",
		log.OperationKey, log.OperationAggregate,
		log.PhaseKey, log.PhaseData,
		log.RowsKey, summary.RowsIn,
		log.GroupsKey, summary.Groups,
		"dropped_sentinel_date", summary.DroppedSentinelDate,
		"dropped_null_score", summary.DroppedNullScore,
		"dropped_unknown_borough", summary.DroppedUnknownBorough,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return out, summary, nil
}

// isSentinelDate reports whether the raw date cell is the epoch placeholder
// meaning "unset". Unparseable dates are treated as sentinels: they
// represent incomplete records and must not reach modeling.
func (a *Aggregator) isSentinelDate(raw string) bool {
	if raw == "" {
		return true
	}
	t, err := time.Parse("01/02/2006", raw)
	if err != nil {
		return true
	}
	return t.Equal(a.sentinel)
}

// isUnknownBorough reports whether the borough cell is the export's
// unknown marker.
func isUnknownBorough(b string) bool {
	return b == "" || b == "0" || b == "Missing"
}

func groupKey(entityID, borough, date, instype string, score float64) string {
	var sb strings.Builder
	sb.WriteString(entityID)
	sb.WriteByte(0x1f)
	sb.WriteString(borough)
	sb.WriteByte(0x1f)
	sb.WriteString(date)
	sb.WriteByte(0x1f)
	sb.WriteString(instype)
	sb.WriteByte(0x1f)
	sb.WriteString(strconv.FormatFloat(score, 'g', -1, 64))
	return sb.String()
}

func partitionSlot(ranges [][2]int, start int) int {
	for i, r := range ranges {
		if r[0] == start {
			return i
		}
	}
	return 0
}

func defaultWorkers(n int) int {
	// Small inputs are not worth fanning out.
	if n < 4096 {
		return 1
	}
	return runtime.GOMAXPROCS(0)
}

// textColumn reads any column as text, formatting numeric cells. Raw
// exports sometimes infer id-like columns as integers.
func textColumn(f *frame.Frame, name string) ([]string, error) {
	idx := f.Schema().Index(name)
	if idx < 0 {
		return nil, errors.NewMissingColumnError("Aggregator.Aggregate", name)
	}

	switch f.Schema()[idx].Type {
	case frame.String:
		return f.Strings(name)
	case frame.Int:
		ints, err := f.Ints(name)
		if err != nil {
			return nil, err
		}
		out := make([]string, len(ints))
		for i, v := range ints {
			out[i] = strconv.FormatInt(v, 10)
		}
		return out, nil
	default:
		floats, err := f.Floats(name)
		if err != nil {
			return nil, err
		}
		out := make([]string, len(floats))
		for i, v := range floats {
			if math.IsNaN(v) {
				out[i] = ""
				continue
			}
			out[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		return out, nil
	}
}

// floatColumn reads any column as floats; non-numeric or empty text cells
// become NaN.
func floatColumn(f *frame.Frame, name string) ([]float64, error) {
	idx := f.Schema().Index(name)
	if idx < 0 {
		return nil, errors.NewMissingColumnError("Aggregator.Aggregate", name)
	}

	switch f.Schema()[idx].Type {
	case frame.Float:
		return f.Floats(name)
	case frame.Int:
		ints, err := f.Ints(name)
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(ints))
		for i, v := range ints {
			out[i] = float64(v)
		}
		return out, nil
	default:
		strs, err := f.Strings(name)
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(strs))
		for i, s := range strs {
			v, err := cast.ToFloat64E(s)
			if err != nil || s == "" {
				out[i] = math.NaN()
				continue
			}
			out[i] = v
		}
		return out, nil
	}
}
