package preset

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWriteRoundTrip(t *testing.T) {
	p := &Preset{
		Name:       "Crunch",
		EffectID:   "gain",
		Author:     "shaban",
		Parameters: map[string]float32{"gainDb": 6, "mix": 0.5},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, p))

	got, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.EffectID, got.EffectID)
	assert.Equal(t, p.Author, got.Author)
	assert.Equal(t, p.Parameters, got.Parameters)
}

func TestWriteIsDeterministicallySortedByParamID(t *testing.T) {
	p := &Preset{EffectID: "gain", Parameters: map[string]float32{"z": 1, "a": 2, "m": 3}}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, p))
	body := buf.String()
	assert.True(t, strings.Index(body, "param.a=") < strings.Index(body, "param.m="))
	assert.True(t, strings.Index(body, "param.m=") < strings.Index(body, "param.z="))
}

func TestParseSkipsCommentsAndBlankLines(t *testing.T) {
	body := "# a comment\n\neffectId=gain\nparam.gainDb=1\n"
	p, err := Parse(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "gain", p.EffectID)
	assert.Equal(t, float32(1), p.Parameters["gainDb"])
}

func TestParseRequiresEffectID(t *testing.T) {
	_, err := Parse(strings.NewReader("name=Foo\n"))
	require.Error(t, err)
}

func TestParseRejectsUnknownKey(t *testing.T) {
	_, err := Parse(strings.NewReader("effectId=gain\nbogus=1\n"))
	require.Error(t, err)
}

func TestEscapeRoundTripsNewlines(t *testing.T) {
	p := &Preset{EffectID: "gain", Description: "line one\nline two", Parameters: map[string]float32{}}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, p))
	got, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, p.Description, got.Description)
}
