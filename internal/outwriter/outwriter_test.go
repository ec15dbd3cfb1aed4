package outwriter

import (
	"bytes"
	"encoding/csv"
	"os"
	"strings"
	"testing"

	"github.com/dmarten/relval/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readLines loads a file and splits it into non-empty lines.
func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	err := writeJSON(&buf, map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestWriteCSVWithHeader(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSVWithHeader(&buf, []string{"k", "v"}, func(cw *csv.Writer) error {
		return cw.Write([]string{"a", "1"})
	})
	require.NoError(t, err)
	assert.Equal(t, "k,v\na,1\n", buf.String())
}

func TestCreateFormatters(t *testing.T) {
	fmtFloat := createFormatters(2)
	assert.Equal(t, "3.14", fmtFloat(3.14159))
	assert.Equal(t, "0.00", fmtFloat(0))
}

func TestGetMaxTablePathWidth(t *testing.T) {
	// Explicit width overrides terminal detection.
	assert.Equal(t, 70, getMaxTablePathWidth(&contract.Config{Width: 200}))
	assert.Equal(t, 15, getMaxTablePathWidth(&contract.Config{Width: 20}))
	assert.Equal(t, 60, getMaxTablePathWidth(&contract.Config{Width: 100}))
}
