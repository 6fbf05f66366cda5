package jfxrig

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaban/jfxrig/config"
	_ "github.com/shaban/jfxrig/effects"
	"github.com/shaban/jfxrig/rig"
)

func writeTestRig(t *testing.T) string {
	t.Helper()
	d := &rig.Description{
		ChannelMode: "MONO",
		Nodes: []rig.NodeDescriptor{
			{ID: "in", Type: "source"},
			{ID: "g", Type: "gain"},
			{ID: "out", Type: "sink"},
		},
		Connections: []rig.ConnectionDescriptor{
			{FromNode: "in", FromPort: "out", ToNode: "g", ToPort: "in"},
			{FromNode: "g", FromPort: "out", ToNode: "out", ToPort: "in"},
		},
	}
	path := filepath.Join(t.TempDir(), "rig.json")
	require.NoError(t, rig.SaveFile(path, d))
	return path
}

func testConfig() **config.EngineConfig {
	cfg := &config.EngineConfig{SampleRate: 48000, BlockSize: 256, ChannelMode: "MONO", ControlQueueDepth: 256}
	return &cfg
}

func TestValidateCommandReportsSuccessForCompilableRig(t *testing.T) {
	path := writeTestRig(t)
	cmd := ValidateCommand(testConfig())
	cmd.SetArgs([]string{path})

	var out bytes.Buffer
	cmd.SetOut(&out)
	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, out.String(), "ok: 3 nodes, 1 sources, 1 sinks")
}

func TestValidateCommandFailsForMissingRigFile(t *testing.T) {
	cmd := ValidateCommand(testConfig())
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "absent.json")})
	cmd.SilenceErrors = true
	err := cmd.Execute()
	assert.Error(t, err)
}

func TestValidateCommandFailsForUncompilableRig(t *testing.T) {
	d := &rig.Description{
		Nodes: []rig.NodeDescriptor{{ID: "x", Type: "doesNotExist"}},
	}
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, rig.SaveFile(path, d))

	cmd := ValidateCommand(testConfig())
	cmd.SetArgs([]string{path})
	cmd.SilenceErrors = true
	err := cmd.Execute()
	assert.Error(t, err)
}
