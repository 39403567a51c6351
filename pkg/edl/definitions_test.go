package edl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commandsYAML = `
commands:
  - uid: 0x01
    name: tx_control
    description: |
      Enable or disable
      the radio transmitter.
    request:
      - name: enable
        data_type: bool
    response:
      - name: status
        data_type: uint8
        enums:
          failed: 0
          ok: 1
  - uid: 0x09
    name: fwrite
    request:
      - name: path
        data_type: str
        max_size: 64
      - name: payload
        data_type: bytes
        size_prefix: uint32
`

func TestParseDefinitions(t *testing.T) {
	defs, err := ParseDefinitions([]byte(commandsYAML))
	require.NoError(t, err)
	assert.Equal(t, 2, defs.Len())
	assert.Equal(t, []string{"tx_control", "fwrite"}, defs.Names())

	byUID, ok := defs.ByUID(0x09)
	require.True(t, ok)
	byName, ok := defs.ByName("fwrite")
	require.True(t, ok)
	assert.Same(t, byUID, byName)

	tx, _ := defs.ByName("tx_control")
	assert.Equal(t, "Enable or disable the radio transmitter.", tx.Description)

	v, ok := tx.Response[0].EnumValue("ok")
	require.True(t, ok)
	assert.Equal(t, int64(1), v)
	name, ok := tx.Response[0].EnumName(0)
	require.True(t, ok)
	assert.Equal(t, "failed", name)

	_, ok = defs.ByUID(0x7F)
	assert.False(t, ok)
}

func TestParseDefinitions_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "commands:\n  - uid: 1\n    name: a\n    bogus: 1\n"},
		{"duplicate uid", "commands:\n  - uid: 1\n    name: a\n  - uid: 1\n    name: b\n"},
		{"duplicate name", "commands:\n  - uid: 1\n    name: a\n  - uid: 2\n    name: a\n"},
		{"not snake_case", "commands:\n  - uid: 1\n    name: TxControl\n"},
		{"bytes with both sizes", `
commands:
  - uid: 1
    name: a
    request:
      - name: payload
        data_type: bytes
        fixed_size: 4
        size_prefix: uint8
`},
		{"str with no size", `
commands:
  - uid: 1
    name: a
    request:
      - name: path
        data_type: str
`},
		{"bad size prefix type", `
commands:
  - uid: 1
    name: a
    request:
      - name: payload
        data_type: bytes
        size_prefix: uint64
`},
		{"scalar with sizing", `
commands:
  - uid: 1
    name: a
    request:
      - name: v
        data_type: uint8
        fixed_size: 1
`},
		{"unknown field type", `
commands:
  - uid: 1
    name: a
    request:
      - name: v
        data_type: quaternion
`},
		{"duplicate field name", `
commands:
  - uid: 1
    name: a
    request:
      - name: v
        data_type: uint8
      - name: v
        data_type: uint8
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDefinitions([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestApplyEnums(t *testing.T) {
	defs, err := ParseDefinitions([]byte(commandsYAML))
	require.NoError(t, err)

	defs.ApplyEnums(map[string]map[string]int64{
		"status": {"failed": 0, "ok": 1, "busy": 2},
	})

	tx, _ := defs.ByName("tx_control")
	v, ok := tx.Response[0].EnumValue("busy")
	require.True(t, ok)
	assert.Equal(t, int64(2), v)
}

func TestParseDefinitions_Empty(t *testing.T) {
	defs, err := ParseDefinitions(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, defs.Len())
}
