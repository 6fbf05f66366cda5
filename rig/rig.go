// Package rig holds the control-thread data model for a rig description —
// the JSON document a player edits — plus its load/save and stable-hash
// helpers. It knows nothing about real-time constraints or DSP; that is
// the graph package's job once a Description is handed to the compiler.
//
// Grounded on the teacher's serializer.go EngineState (versioned envelope,
// indent-2 JSON, Save/Load through io.Reader/Writer) and its cache_store.go
// checksumQuick (stable sha256 over a canonical field projection).
package rig

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// CurrentVersion is filled in by Load when a description's version is
// empty. Load does not check a version that is present; any value is
// accepted as-is.
const CurrentVersion = "1.0"

// Metadata is the rig's free-text identification block.
type Metadata struct {
	Name        string `json:"name"`
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Tags        string `json:"tags,omitempty"` // comma-joined
	Version     string `json:"version"`
	CreatedAt   string `json:"createdAt,omitempty"`  // ISO-8601
	ModifiedAt  string `json:"modifiedAt,omitempty"` // ISO-8601
}

// NodeConfig carries the type-specific configuration a structural node's
// factory needs beyond its parameter map: splitter fan-out, mixer fan-in,
// per-input level/pan, master level, and stereo/mono mode.
type NodeConfig struct {
	NumOutputs  int       `json:"numOutputs,omitempty"`
	NumInputs   int       `json:"numInputs,omitempty"`
	StereoMode  string    `json:"stereoMode,omitempty"` // "MONO" | "STEREO"
	Levels      []float32 `json:"levels,omitempty"`
	Pans        []float32 `json:"pans,omitempty"`
	MasterLevel float32   `json:"masterLevel,omitempty"`
}

// NodeDescriptor is one node in the rig's graph.
type NodeDescriptor struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Name       string             `json:"name,omitempty"`
	Bypassed   bool               `json:"bypassed"`
	X          float32            `json:"x,omitempty"`
	Y          float32            `json:"y,omitempty"`
	Parameters map[string]float32 `json:"parameters,omitempty"`
	Config     *NodeConfig        `json:"config,omitempty"`
}

// ConnectionDescriptor wires one node's output port to another's input
// port. Per §4.2 every input port accepts at most one connection. Field
// names follow the wire schema's sourceNode/sourcePort/targetNode/
// targetPort; the Go identifiers read as From/To since that is what the
// compiler actually does with them (walks from source to target).
type ConnectionDescriptor struct {
	FromNode string `json:"sourceNode"`
	FromPort string `json:"sourcePort"`
	ToNode   string `json:"targetNode"`
	ToPort   string `json:"targetPort"`
}

// Description is the complete, control-thread rig document: what the
// graph compiler consumes to produce an execution plan.
type Description struct {
	Version     string                 `json:"version"`
	Metadata    Metadata               `json:"metadata"`
	ChannelMode string                 `json:"channelMode,omitempty"` // "MONO" | "STEREO"
	Nodes       []NodeDescriptor       `json:"nodes"`
	Connections []ConnectionDescriptor `json:"connections"`
}

// New returns an empty description with defaults already filled in.
func New(name string) *Description {
	d := &Description{Metadata: Metadata{Name: name}}
	applyDefaults(d)
	return d
}

func applyDefaults(d *Description) {
	if d.Version == "" {
		d.Version = CurrentVersion
	}
	if d.Metadata.Author == "" {
		d.Metadata.Author = "User"
	}
	if d.Metadata.Version == "" {
		d.Metadata.Version = "1.0"
	}
	if d.ChannelMode == "" {
		d.ChannelMode = "MONO"
	}
}

// Load decodes a rig description from r, filling in any omitted defaults
// (author "User", version "1.0") the way a hand-edited JSON file would
// leave them out.
func Load(r io.Reader) (*Description, error) {
	var d Description
	dec := json.NewDecoder(r)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("rig: decode: %w", err)
	}
	applyDefaults(&d)
	if err := StructureCheck(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadFile opens path and decodes a rig description from it.
func LoadFile(path string) (*Description, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rig: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Save encodes d to w as indented JSON.
func Save(w io.Writer, d *Description) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("rig: encode: %w", err)
	}
	return nil
}

// SaveFile writes d to path, creating or truncating it.
func SaveFile(path string, d *Description) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("rig: create %s: %w", path, err)
	}
	defer f.Close()
	return Save(f, d)
}

// Hash returns a stable sha256 hex digest of d's structural content.
// encoding/json sorts map keys when marshaling, so two descriptions with
// the same nodes, connections, and parameters in the same slice order
// hash identically regardless of which process produced them — this is
// what lets the compiler skip recompilation on a no-op edit (§4.4).
func Hash(d *Description) (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("rig: hash marshal: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// StructureCheck catches malformed documents before they ever reach the
// graph compiler: duplicate node ids and blank ids/types. Anything
// requiring knowledge of registered node types or port topology is the
// compiler's job, not this package's.
func StructureCheck(d *Description) error {
	seen := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if n.ID == "" {
			return fmt.Errorf("rig: node with empty id")
		}
		if n.Type == "" {
			return fmt.Errorf("rig: node %q has empty type", n.ID)
		}
		if seen[n.ID] {
			return fmt.Errorf("rig: duplicate node id %q", n.ID)
		}
		seen[n.ID] = true
	}
	return nil
}
