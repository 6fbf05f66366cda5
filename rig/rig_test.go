package rig

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDescription() *Description {
	return &Description{
		Metadata: Metadata{Name: "Lead Tone"},
		Nodes: []NodeDescriptor{
			{ID: "in", Type: "source"},
			{ID: "gain1", Type: "gain", Parameters: map[string]float32{"gain": 0.5}},
			{ID: "out", Type: "sink"},
		},
		Connections: []ConnectionDescriptor{
			{FromNode: "in", FromPort: "out", ToNode: "gain1", ToPort: "in"},
			{FromNode: "gain1", FromPort: "out", ToNode: "out", ToPort: "in"},
		},
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	body := `{"metadata":{"name":"Clean"},"nodes":[{"id":"s","type":"source"}],"connections":[]}`
	d, err := Load(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "User", d.Metadata.Author)
	assert.Equal(t, "1.0", d.Metadata.Version)
	assert.Equal(t, "MONO", d.ChannelMode)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	d := sampleDescription()
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, d))

	got, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, d.Metadata.Name, got.Metadata.Name)
	require.Len(t, got.Nodes, 3)
	assert.Equal(t, "gain1", got.Nodes[1].ID)
	require.Len(t, got.Connections, 2)
	assert.Equal(t, "gain1", got.Connections[0].ToNode)
}

func TestConnectionDescriptorWireTags(t *testing.T) {
	d := sampleDescription()
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, d))
	body := buf.String()
	assert.Contains(t, body, `"sourceNode"`)
	assert.Contains(t, body, `"sourcePort"`)
	assert.Contains(t, body, `"targetNode"`)
	assert.Contains(t, body, `"targetPort"`)
}

func TestHashIsStableAcrossEquivalentValues(t *testing.T) {
	a := sampleDescription()
	b := sampleDescription()
	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)

	b.Nodes[1].Parameters["gain"] = 0.9
	hc, err := Hash(b)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)
}

func TestStructureCheckRejectsDuplicateAndBlankIDs(t *testing.T) {
	d := sampleDescription()
	d.Nodes = append(d.Nodes, NodeDescriptor{ID: "gain1", Type: "gain"})
	assert.Error(t, StructureCheck(d))

	d2 := sampleDescription()
	d2.Nodes[0].ID = ""
	assert.Error(t, StructureCheck(d2))

	d3 := sampleDescription()
	d3.Nodes[0].Type = ""
	assert.Error(t, StructureCheck(d3))
}
