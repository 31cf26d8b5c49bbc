package xmlwriter

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/ginjaninja78/tax-hall-analytics/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parsed mirrors the rendered document for decoding in tests.
type parsed struct {
	XMLName xml.Name `xml:"summary"`
	Top     struct {
		Items []parsedItem `xml:"item"`
	} `xml:"topBusinessTypes"`
	Operators struct {
		Items []parsedItem `xml:"operator"`
	} `xml:"operatorStats"`
}

type parsedItem struct {
	Name  string `xml:"name,attr"`
	Count int    `xml:"count,attr"`
}

func TestGenerateEmptySummary(t *testing.T) {
	out := string(Generate(types.EmptySummary(), DefaultGenerateOptions()))

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, `<summary totalRecords="0" successRate="0.00" guidanceRate="0.00" avgDurationLong="0.00">`)
	for _, tag := range []string{
		"<topBusinessTypes/>", "<topReasons/>", "<operatorStats/>",
		"<subjectTypeDist/>", "<taxAuthorityDist/>", "<businessBySubject/>",
	} {
		assert.Contains(t, out, tag)
	}
}

func TestGenerateEscapesNames(t *testing.T) {
	s := types.EmptySummary()
	s.TotalRecords = 1
	s.TopBusinessTypes = []types.NameCount{{Name: `A&B <"x">`, Count: 1}}

	out := string(Generate(s, DefaultGenerateOptions()))
	assert.Contains(t, out, `<item name="A&amp;B &lt;&quot;x&quot;&gt;" count="1"/>`)

	// The document must stay well-formed.
	var doc parsed
	require.NoError(t, xml.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Top.Items, 1)
	assert.Equal(t, `A&B <"x">`, doc.Top.Items[0].Name)
}

func TestGenerateDropsControlCharacters(t *testing.T) {
	s := types.EmptySummary()
	s.TotalRecords = 2
	s.TopBusinessTypes = []types.NameCount{
		{Name: "社保\x0b缴纳", Count: 1},
		{Name: "发票\x00领用\x1f", Count: 1},
	}
	s.OperatorStats = []types.OperatorStat{{Name: "张\t三\n", Count: 2, SuccessRate: 50}}

	out := Generate(s, DefaultGenerateOptions())

	var doc parsed
	require.NoError(t, xml.Unmarshal(out, &doc))
	require.Len(t, doc.Top.Items, 2)
	assert.Equal(t, "社保缴纳", doc.Top.Items[0].Name)
	assert.Equal(t, "发票领用", doc.Top.Items[1].Name)
	require.Len(t, doc.Operators.Items, 1)
	assert.Equal(t, "张\t三\n", doc.Operators.Items[0].Name)
}

func TestGenerateNestedSubjects(t *testing.T) {
	s := types.EmptySummary()
	s.BusinessBySubject = []types.SubjectBusiness{
		{Subject: "个人", Data: []types.NameCount{{Name: "社保费缴纳", Count: 20}, {Name: "发票领用", Count: 3}}},
	}

	opts := DefaultGenerateOptions()
	opts.IncludeXMLDeclaration = false
	out := string(Generate(s, opts))

	assert.True(t, strings.HasPrefix(out, "<summary"))
	assert.Contains(t, out, "  <businessBySubject>\n    <subject name=\"个人\">\n      <item name=\"社保费缴纳\" count=\"20\"/>\n")
}

func TestGenerateOptions(t *testing.T) {
	s := types.EmptySummary()
	s.SuccessRate = 91.66667
	s.AvgDurationLong = 32.25

	opts := DefaultGenerateOptions()
	opts.RateDecimals = 1
	opts.Indent = "\t"
	opts.RootAttributes = []Attr{{Name: "source", Value: "台账.xlsx"}}

	out := string(Generate(s, opts))
	assert.Contains(t, out, `<summary source="台账.xlsx" totalRecords="0" successRate="91.7"`)
	assert.Contains(t, out, "\n\t<topReasons/>\n")
}

func TestBuildDocumentOrder(t *testing.T) {
	root := BuildDocument(types.EmptySummary(), DefaultGenerateOptions())

	var names []string
	for _, child := range root.Children {
		names = append(names, child.Name)
	}
	assert.Equal(t, []string{
		"topBusinessTypes", "topReasons", "operatorStats",
		"subjectTypeDist", "taxAuthorityDist", "businessBySubject",
	}, names)
}
