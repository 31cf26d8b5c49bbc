package analysis

import (
	"fmt"
	"testing"

	"github.com/ginjaninja78/tax-hall-analytics/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(subject, business, operator string, success types.YesNo, duration float64) types.Record {
	return types.Record{
		SubjectType:   subject,
		TaxAuthority:  "第一税务所",
		BusinessType:  business,
		Operator:      operator,
		SuccessStatus: success,
		Duration:      duration,
		VisitReason:   types.RoutineVisit,
		Guided:        types.No,
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)

	assert.Equal(t, 0, s.TotalRecords)
	assert.Equal(t, 0.0, s.SuccessRate)
	assert.Equal(t, 0.0, s.GuidanceRate)
	assert.Equal(t, 0.0, s.AvgDurationLong)
	assert.NotNil(t, s.TopBusinessTypes)
	assert.NotNil(t, s.OperatorStats)
	assert.NotNil(t, s.BusinessBySubject)
	assert.Empty(t, s.SubjectTypeDist)
}

func TestSummarizeScalars(t *testing.T) {
	records := []types.Record{
		record("个人", "社保费缴纳", "张三", types.Yes, 25),
		record("个人", "社保费缴纳", "张三", types.Yes, 0),
		record("单位", "发票领用", "李四", types.No, 35),
		record("单位", "发票领用", "李四", types.Yes, 0),
	}
	records[0].Guided = types.Yes

	s := Summarize(records)
	assert.Equal(t, 4, s.TotalRecords)
	assert.Equal(t, 75.0, s.SuccessRate)
	assert.Equal(t, 25.0, s.GuidanceRate)
	// Zero durations are excluded from the denominator.
	assert.Equal(t, 30.0, s.AvgDurationLong)
}

func TestSummarizeNoPositiveDuration(t *testing.T) {
	s := Summarize([]types.Record{record("个人", "社保费缴纳", "张三", types.Yes, 0)})
	assert.Equal(t, 0.0, s.AvgDurationLong)
}

func TestFrequencyTieBreak(t *testing.T) {
	records := []types.Record{
		record("个人", "B", "张三", types.Yes, 0),
		record("个人", "A", "张三", types.Yes, 0),
		record("个人", "C", "张三", types.Yes, 0),
		record("个人", "A", "张三", types.Yes, 0),
		record("个人", "C", "张三", types.Yes, 0),
	}

	got := Frequency(records, BusinessType)
	assert.Equal(t, []types.NameCount{
		{Name: "A", Count: 2},
		{Name: "C", Count: 2},
		{Name: "B", Count: 1},
	}, got)
}

func TestFrequencyTrimsAndSkipsBlank(t *testing.T) {
	records := []types.Record{
		record("个人", " 社保费缴纳 ", "张三", types.Yes, 0),
		record("个人", "社保费缴纳", "张三", types.Yes, 0),
		record("个人", "  ", "张三", types.Yes, 0),
	}

	got := Frequency(records, BusinessType)
	assert.Equal(t, []types.NameCount{{Name: "社保费缴纳", Count: 2}}, got)
}

func TestDistributionsSumToTotal(t *testing.T) {
	var records []types.Record
	subjects := []string{"个人", "单位", "个体工商户", "其他组织", "未知"}
	for i := 0; i < 37; i++ {
		records = append(records, record(
			subjects[i%len(subjects)],
			fmt.Sprintf("业务%d", i%7),
			fmt.Sprintf("受理人%d", i%4),
			types.ParseYesNo([]string{"是", "否", "是"}[i%3]),
			float64(i%6)*5,
		))
	}

	s := Summarize(records)

	sum := func(items []types.NameCount) int {
		n := 0
		for _, it := range items {
			n += it.Count
		}
		return n
	}
	sumValues := func(items []types.NameValue) int {
		n := 0
		for _, it := range items {
			n += it.Value
		}
		return n
	}

	assert.Equal(t, s.TotalRecords, sum(s.TopBusinessTypes))
	assert.Equal(t, s.TotalRecords, sum(s.TopReasons))
	assert.Equal(t, s.TotalRecords, sumValues(s.SubjectTypeDist))
	assert.Equal(t, s.TotalRecords, sumValues(s.TaxAuthorityDist))

	opTotal := 0
	for _, op := range s.OperatorStats {
		opTotal += op.Count
		assert.GreaterOrEqual(t, op.SuccessRate, 0.0)
		assert.LessOrEqual(t, op.SuccessRate, 100.0)
	}
	assert.Equal(t, s.TotalRecords, opTotal)

	assert.GreaterOrEqual(t, s.SuccessRate, 0.0)
	assert.LessOrEqual(t, s.SuccessRate, 100.0)
	assert.Len(t, s.BusinessBySubject, TopSubjects)
	for _, sb := range s.BusinessBySubject {
		assert.LessOrEqual(t, len(sb.Data), TopBusinessPerSubject)
	}
}

func TestOperatorStats(t *testing.T) {
	records := []types.Record{
		record("个人", "A", "李四", types.No, 0),
		record("个人", "A", "张三", types.Yes, 0),
		record("个人", "A", "张三", types.Yes, 0),
		record("个人", "A", "张三", types.No, 0),
		record("个人", "A", "李四", types.Yes, 0),
		record("个人", "A", "王五", types.Yes, 0),
	}

	stats := OperatorStats(records)
	require.Len(t, stats, 3)

	assert.Equal(t, "张三", stats[0].Name)
	assert.Equal(t, 3, stats[0].Count)
	assert.InDelta(t, 200.0/3, stats[0].SuccessRate, 1e-9)

	assert.Equal(t, types.OperatorStat{Name: "李四", Count: 2, SuccessRate: 50}, stats[1])
	assert.Equal(t, types.OperatorStat{Name: "王五", Count: 1, SuccessRate: 100}, stats[2])
}

func TestOperatorStatsFollowsOperatorRanking(t *testing.T) {
	records := []types.Record{
		record("个人", "A", "王五", types.Yes, 0),
		record("个人", "A", "", types.No, 0),
		record("个人", "A", "张三", types.Yes, 0),
		record("个人", "A", "张三", types.No, 0),
		record("个人", "A", "王五", types.No, 0),
	}

	stats := OperatorStats(records)
	ranking := Frequency(records, Operator)
	require.Len(t, stats, len(ranking)+1)

	for i, entry := range ranking {
		assert.Equal(t, entry.Name, stats[i].Name)
		assert.Equal(t, entry.Count, stats[i].Count)
	}
	assert.Equal(t, types.OperatorStat{Name: types.Unknown, Count: 1, SuccessRate: 0}, stats[2])
}

func TestBusinessBySubject(t *testing.T) {
	var records []types.Record
	for i := 0; i < 6; i++ {
		records = append(records, record("个人", "X", "张三", types.Yes, 0))
	}
	for i := 0; i < 4; i++ {
		records = append(records, record("个人", "Y", "张三", types.Yes, 0))
	}
	records = append(records, record("单位", "Z", "李四", types.Yes, 0))

	s := Summarize(records)
	require.Len(t, s.BusinessBySubject, 2)

	assert.Equal(t, types.SubjectBusiness{
		Subject: "个人",
		Data:    []types.NameCount{{Name: "X", Count: 6}, {Name: "Y", Count: 4}},
	}, s.BusinessBySubject[0])
	assert.Equal(t, "单位", s.BusinessBySubject[1].Subject)
}

func TestBusinessBySubjectLimits(t *testing.T) {
	var records []types.Record
	subjects := []string{"S1", "S2", "S3", "S4", "S5", "S6"}
	for si, subject := range subjects {
		// Earlier subjects get more records so the ranking is unambiguous.
		for b := 0; b < 8; b++ {
			for n := 0; n <= len(subjects)-si; n++ {
				records = append(records, record(subject, fmt.Sprintf("B%d", b), "张三", types.Yes, 0))
			}
		}
	}

	s := Summarize(records)
	require.Len(t, s.BusinessBySubject, TopSubjects)
	for i, sb := range s.BusinessBySubject {
		assert.Equal(t, subjects[i], sb.Subject)
		assert.Len(t, sb.Data, TopBusinessPerSubject)
	}
}

func TestBusinessBySubjectTrimsSubject(t *testing.T) {
	records := []types.Record{
		record(" 个人", "X", "张三", types.Yes, 0),
		record("个人", "Y", "张三", types.Yes, 0),
	}

	s := Summarize(records)
	require.Len(t, s.BusinessBySubject, 1)
	assert.Len(t, s.BusinessBySubject[0].Data, 2)
}

func TestSummarizeIsPure(t *testing.T) {
	records := []types.Record{
		record("个人", "A", "张三", types.Yes, 10),
		record("单位", "B", "李四", types.No, 30),
	}
	snapshot := append([]types.Record(nil), records...)

	first := Summarize(records)
	second := Summarize(records)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, records)
}
