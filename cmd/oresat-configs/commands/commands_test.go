package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oresat/oresat-configs/pkg/edl"
)

// Every test passes -no-cache so runs never touch the user's cache dir and
// never depend on stale cached ODs.

func TestRunCards(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := RunCards([]string{"-mission", "0.5", "-no-cache"}, &stdout, &stderr)
	require.Equal(t, exitSuccess, code, stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "battery_1")
	assert.Contains(t, out, "gps")
	assert.Contains(t, out, "0x01") // c3 node id
	assert.Contains(t, out, "GPS")
}

func TestRunCards_UnknownMission(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := RunCards([]string{"-mission", "bogus"}, &stdout, &stderr)
	assert.Equal(t, exitCommandError, code)
	assert.Contains(t, stderr.String(), "Error:")
}

func TestRunPrintOD(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := RunPrintOD([]string{"-mission", "0", "-no-cache", "battery_1"}, &stdout, &stderr)
	require.Equal(t, exitSuccess, code, stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "battery")
	assert.Contains(t, out, "vbatt")
	assert.Contains(t, out, "satellite_id")
}

func TestRunPrintOD_JSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := RunPrintOD([]string{"-mission", "0", "-no-cache", "-format", "json", "battery_1"}, &stdout, &stderr)
	require.Equal(t, exitSuccess, code, stderr.String())

	var doc map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &doc))
	assert.Equal(t, "Battery 1", doc["product_name"])
	assert.Equal(t, float64(0x04), doc["node_id"])
}

func TestRunPrintOD_UnknownCard(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := RunPrintOD([]string{"-mission", "0", "-no-cache", "imager"}, &stdout, &stderr)
	assert.Equal(t, exitCommandError, code)
	assert.Contains(t, stderr.String(), "imager")
}

func TestRunPrintOD_NoCard(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := RunPrintOD([]string{"-mission", "0", "-no-cache"}, &stdout, &stderr)
	assert.Equal(t, exitCommandError, code)
}

func TestRunPDO(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := RunPDO([]string{"-mission", "0.5", "-no-cache", "gps"}, &stdout, &stderr)
	require.Equal(t, exitSuccess, code, stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "tpdo 16")
	// The GPS time sync TPDO aliases the bus master's wire id.
	assert.Contains(t, out, "0x181")
}

func TestRunEDL_List(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := RunEDL(nil, &stdout, &stderr)
	require.Equal(t, exitSuccess, code, stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "ping")
	assert.Contains(t, out, "0x12")
	assert.Contains(t, out, "fwrite")
}

func TestRunEDL_Describe(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := RunEDL([]string{"-command", "fwrite"}, &stdout, &stderr)
	require.Equal(t, exitSuccess, code, stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "uid 0x20")
	assert.Contains(t, out, "file_name")
	assert.Contains(t, out, "uint32 size prefix")
}

func TestRunEDL_DescribeUnknown(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := RunEDL([]string{"-command", "warp_drive"}, &stdout, &stderr)
	assert.Equal(t, exitCommandError, code)
	assert.Contains(t, stderr.String(), "warp_drive")
}

func TestRunEDL_EncodeDecode(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := RunEDL([]string{"-encode", "ping", "-data", "42"}, &stdout, &stderr)
	require.Equal(t, exitSuccess, code, stderr.String())
	assert.Equal(t, "2a000000\n", stdout.String())

	stdout.Reset()
	code = RunEDL([]string{"-decode", "ping", "-hex", "2a000000"}, &stdout, &stderr)
	require.Equal(t, exitSuccess, code, stderr.String())
	assert.Equal(t, "value = 42\n", stdout.String())
}

func TestRunEDL_EncodeWrongArity(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := RunEDL([]string{"-encode", "ping", "-data", "1,2"}, &stdout, &stderr)
	assert.Equal(t, exitCommandError, code)
	assert.Contains(t, stderr.String(), "takes 1 values")
}

func TestRunCache(t *testing.T) {
	tmp := t.TempDir()

	var stdout, stderr bytes.Buffer
	code := RunCache([]string{"-mission", "0.5", "-cache-dir", tmp, "info"}, &stdout, &stderr)
	require.Equal(t, exitSuccess, code, stderr.String())
	assert.Contains(t, stdout.String(), "not cached")

	stdout.Reset()
	code = RunCache([]string{"-mission", "0.5", "-no-cache", "-cache-dir", tmp, "export"}, &stdout, &stderr)
	require.Equal(t, exitSuccess, code, stderr.String())
	assert.Contains(t, stdout.String(), "Exported")

	entries, err := os.ReadDir(filepath.Join(tmp, "oresat0_5"))
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "c3.json")
	assert.Contains(t, names, "battery_1.json")

	stdout.Reset()
	code = RunCache([]string{"-mission", "0.5", "-cache-dir", tmp, "clear"}, &stdout, &stderr)
	require.Equal(t, exitSuccess, code, stderr.String())
	_, err = os.Stat(filepath.Join(tmp, "oresat0_5"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunCache_UnknownSubcommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := RunCache([]string{"-mission", "0.5", "purge"}, &stdout, &stderr)
	assert.Equal(t, exitCommandError, code)
	assert.Contains(t, stderr.String(), "purge")
}

func testField(dataType string) *edl.Field {
	return &edl.Field{Name: "field", DataType: dataType}
}

func TestParseFieldValue(t *testing.T) {
	tests := []struct {
		dataType string
		input    string
		want     any
	}{
		{"bool", "true", true},
		{"uint32", "42", uint64(42)},
		{"uint32", "0x2A", uint64(42)},
		{"int8", "-5", int64(-5)},
		{"float32", "1.5", 1.5},
		{"str", "hello", "hello"},
		{"bytes", "deadbeef", []byte{0xDE, 0xAD, 0xBE, 0xEF}},
	}
	for _, tt := range tests {
		t.Run(tt.dataType+"/"+tt.input, func(t *testing.T) {
			f := testField(tt.dataType)
			got, err := parseFieldValue(f, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFieldValue_Invalid(t *testing.T) {
	f := testField("uint32")
	_, err := parseFieldValue(f, "not-a-number")
	assert.Error(t, err)

	f = testField("matrix")
	_, err = parseFieldValue(f, "1")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unsupported"))
}
