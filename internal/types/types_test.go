package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYesNo(t *testing.T) {
	assert.Equal(t, Yes, ParseYesNo("是"))
	assert.Equal(t, Yes, ParseYesNo("  是\t"))
	assert.Equal(t, No, ParseYesNo("否"))
	assert.Equal(t, No, ParseYesNo(""))
	assert.Equal(t, No, ParseYesNo("是的"))
	assert.Equal(t, No, ParseYesNo("yes"))

	assert.True(t, Yes.Bool())
	assert.False(t, No.Bool())
	assert.Equal(t, "否", No.String())
}

func TestGridCell(t *testing.T) {
	g := Grid{
		{"a", "b"},
		{},
		{"c"},
	}

	assert.Equal(t, "b", g.Cell(0, 1))
	assert.Equal(t, "c", g.Cell(2, 0))
	assert.Equal(t, "", g.Cell(1, 0))
	assert.Equal(t, "", g.Cell(2, 5))
	assert.Equal(t, "", g.Cell(3, 0))
	assert.Equal(t, "", g.Cell(-1, 0))
	assert.Equal(t, "", g.Cell(0, -1))
}

func TestEmptySummarySerialisesLists(t *testing.T) {
	data, err := json.Marshal(EmptySummary())
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, `"topBusinessTypes":[]`)
	assert.Contains(t, out, `"businessBySubject":[]`)
	assert.NotContains(t, out, "null")
}
