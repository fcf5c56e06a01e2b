package output

import (
	"bytes"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type sample struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

type sampleTable []sample

func (s sampleTable) Headers() []string { return []string{"Name", "Count"} }

func (s sampleTable) Rows() [][]string {
	rows := make([][]string, 0, len(s))
	for _, r := range s {
		rows = append(rows, []string{r.Name, strconv.Itoa(r.Count)})
	}
	return rows
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrint_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, FormatTable, sampleTable{{"alpha", 1}, {"beta", 2}}))

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "COUNT")
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "beta")
}

func TestPrint_TableFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, FormatTable, sample{Name: "x", Count: 1}))

	var got sample
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "x", got.Name)
}

func TestPrint_JSONAndYAML(t *testing.T) {
	in := sample{Name: "streams", Count: 3}

	var jbuf bytes.Buffer
	require.NoError(t, Print(&jbuf, FormatJSON, in))
	assert.Contains(t, jbuf.String(), "  \"name\": \"streams\"")

	var ybuf bytes.Buffer
	require.NoError(t, Print(&ybuf, FormatYAML, in))
	var got sample
	require.NoError(t, yaml.Unmarshal(ybuf.Bytes(), &got))
	assert.Equal(t, in, got)
}

func TestPrint_UnknownFormat(t *testing.T) {
	assert.Error(t, Print(&bytes.Buffer{}, Format("xml"), sample{}))
}

func TestPrintKeyValues(t *testing.T) {
	var kv KeyValues
	kv.Add("Status", "healthy")
	kv.Add("Sessions", "12")

	var buf bytes.Buffer
	require.NoError(t, PrintKeyValues(&buf, kv))

	out := buf.String()
	assert.Contains(t, out, "Status")
	assert.Contains(t, out, "healthy")
	assert.Contains(t, out, "Sessions")
	assert.Contains(t, out, "12")
}
