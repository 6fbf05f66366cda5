// Package graph compiles a rig description into an immutable execution
// plan: resolve node types, validate port wiring, check for cycles, sort
// topologically, allocate buffer slots, and prepare every node — all on
// the control thread, none of it on the audio thread (§4.4).
package graph

import (
	"github.com/shaban/jfxrig/node"
	"github.com/shaban/jfxrig/rig"
)

type portInfo struct {
	index int // position within the in or out subsequence
	kind  node.PortKind
}

type instance struct {
	id          string
	desc        rig.NodeDescriptor
	insertIndex int
	n           node.Node
	multi       node.MultiPort
	ports       map[string]portInfo
	numIn       int
	numOut      int

	outL [][]float32 // one buffer per output port
	outR [][]float32
}

// Compile turns a rig description into a ready-to-render plan. sampleRate
// and maxFrames bound every node's Prepare call; maxFrames is the largest
// block size the host will ever request of this plan.
func Compile(d *rig.Description, sampleRate float64, maxFrames int) (*ExecutionPlan, error) {
	instances, order, err := resolveAndOrder(d)
	if err != nil {
		return nil, err
	}

	stereo := d.ChannelMode == "STEREO"

	steps := make([]*Step, 0, len(order))
	byID := make(map[string]*Step, len(order))
	var sources []*node.Source
	var sinks []*node.Sink

	for _, inst := range instances {
		if err := inst.n.Prepare(sampleRate, maxFrames); err != nil {
			return nil, errPrepareFailed(inst.id, err)
		}
		inst.outL = make([][]float32, inst.numOut)
		inst.outR = make([][]float32, inst.numOut)
		for i := range inst.outL {
			inst.outL[i] = make([]float32, maxFrames)
			if stereo {
				inst.outR[i] = make([]float32, maxFrames)
			}
		}
	}

	silenceL := make([]float32, maxFrames)
	silenceR := make([]float32, maxFrames)

	// index connections by (toNode, toPort) for input wiring and collect
	// per-node outgoing connections for fan-out bookkeeping (splitters
	// fan out structurally via NumOutputs, not via multiple connections
	// off one "out" port id, but ordinary effect nodes may still feed
	// several downstream inputs off their single output port).
	incoming := make(map[string]rig.ConnectionDescriptor, len(d.Connections))
	for _, c := range d.Connections {
		incoming[c.ToNode+"\x00"+c.ToPort] = c
	}

	for _, id := range order {
		inst := instances[id]

		st := &Step{
			NodeID:   inst.id,
			Node:     inst.n,
			Stereo:   stereo,
			Bypassed: inst.desc.Bypassed,
			multi:    inst.multi,
		}

		if inst.multi != nil {
			st.InsL = make([][]float32, inst.numIn)
			st.InsR = make([][]float32, inst.numIn)
			for pid, pi := range inst.ports {
				if pi.kind != node.PortInput {
					continue
				}
				l, r := resolveSource(pid, inst, instances, incoming, silenceL, silenceR)
				st.InsL[pi.index] = l
				st.InsR[pi.index] = r
			}
			st.OutsL = inst.outL
			st.OutsR = inst.outR
		} else {
			if inst.numIn > 0 {
				l, r := resolveSource(node.PortIn, inst, instances, incoming, silenceL, silenceR)
				st.InL, st.InR = l, r
			} else {
				st.InL, st.InR = silenceL, silenceR
			}
			if inst.numOut > 0 {
				st.OutL, st.OutR = inst.outL[0], inst.outR[0]
			}
		}

		steps = append(steps, st)
		byID[inst.id] = st

		if src, ok := inst.n.(*node.Source); ok {
			sources = append(sources, src)
		}
		if snk, ok := inst.n.(*node.Sink); ok {
			sinks = append(sinks, snk)
		}
	}

	hash, err := rig.Hash(d)
	if err != nil {
		return nil, err
	}

	return &ExecutionPlan{
		Hash:        hash,
		SampleRate:  sampleRate,
		MaxFrames:   maxFrames,
		ChannelMode: d.ChannelMode,
		Steps:       steps,
		ByID:        byID,
		Sources:     sources,
		Sinks:       sinks,
	}, nil
}

// resolveSource finds the buffer pair feeding portID on inst: either the
// upstream node's output buffer, or the shared silence buffer when the
// input port has no incoming connection (§4.2 edge case: unconnected
// inputs read silence, never garbage or a reused stale buffer).
func resolveSource(portID string, inst *instance, instances map[string]*instance, incoming map[string]rig.ConnectionDescriptor, silenceL, silenceR []float32) ([]float32, []float32) {
	c, ok := incoming[inst.id+"\x00"+portID]
	if !ok {
		return silenceL, silenceR
	}
	upstream := instances[c.FromNode]
	pi := upstream.ports[c.FromPort]
	return upstream.outL[pi.index], upstream.outR[pi.index]
}

// resolveAndOrder instantiates every node, validates every connection,
// and returns instances keyed by id plus a topologically sorted id list.
func resolveAndOrder(d *rig.Description) (map[string]*instance, []string, error) {
	instances := make(map[string]*instance, len(d.Nodes))

	for i, nd := range d.Nodes {
		factory, ok := node.Lookup(node.TypeTag(nd.Type))
		if !ok {
			return nil, nil, errUnknownEffectType(nd.ID, nd.Type)
		}
		cfg := node.Config{Parameters: nd.Parameters}
		if nd.Config != nil {
			cfg.NumOutputs = nd.Config.NumOutputs
			cfg.NumInputs = nd.Config.NumInputs
			cfg.StereoMode = nd.Config.StereoMode
			cfg.Levels = nd.Config.Levels
			cfg.Pans = nd.Config.Pans
			cfg.MasterLevel = nd.Config.MasterLevel
		}
		n, err := factory(nd.ID, cfg)
		if err != nil {
			return nil, nil, &CompileError{Kind: ErrInvalidConfig, NodeID: nd.ID, Detail: err.Error()}
		}
		inst := &instance{id: nd.ID, desc: nd, insertIndex: i, n: n, ports: map[string]portInfo{}}
		if m, ok := n.(node.MultiPort); ok {
			inst.multi = m
		}
		inIdx, outIdx := 0, 0
		for _, p := range n.Ports() {
			if p.Kind == node.PortInput {
				inst.ports[p.ID] = portInfo{index: inIdx, kind: node.PortInput}
				inIdx++
			} else {
				inst.ports[p.ID] = portInfo{index: outIdx, kind: node.PortOutput}
				outIdx++
			}
		}
		inst.numIn = inIdx
		inst.numOut = outIdx
		instances[nd.ID] = inst
	}

	// Validate connections and count input fan-in.
	inputUse := make(map[string]int, len(d.Connections))
	outgoing := make(map[string][]rig.ConnectionDescriptor, len(instances))
	indegree := make(map[string]int, len(instances))

	for _, c := range d.Connections {
		from, ok := instances[c.FromNode]
		if !ok {
			return nil, nil, errUnknownNode(c.FromNode)
		}
		to, ok := instances[c.ToNode]
		if !ok {
			return nil, nil, errUnknownNode(c.ToNode)
		}
		if pi, ok := from.ports[c.FromPort]; !ok || pi.kind != node.PortOutput {
			return nil, nil, errUnknownPort(c.FromNode, c.FromPort)
		}
		if pi, ok := to.ports[c.ToPort]; !ok || pi.kind != node.PortInput {
			return nil, nil, errUnknownPort(c.ToNode, c.ToPort)
		}
		key := c.ToNode + "\x00" + c.ToPort
		inputUse[key]++
		if inputUse[key] > 1 {
			return nil, nil, errInputAlreadyConnected(c.ToNode, c.ToPort)
		}
		outgoing[c.FromNode] = append(outgoing[c.FromNode], c)
		indegree[c.ToNode]++
	}

	order, err := kahnSort(d, instances, outgoing, indegree)
	if err != nil {
		return nil, nil, err
	}
	return instances, order, nil
}

// kahnSort performs Kahn's algorithm with a deterministic tie-break: among
// all currently-ready nodes, the one declared earliest in the rig's node
// list goes next (§4.4: "deterministic insertion-index tie-break").
func kahnSort(d *rig.Description, instances map[string]*instance, outgoing map[string][]rig.ConnectionDescriptor, indegree map[string]int) ([]string, error) {
	remaining := make(map[string]int, len(instances))
	for id := range instances {
		remaining[id] = indegree[id]
	}

	order := make([]string, 0, len(instances))
	ready := make(map[string]bool, len(instances))
	for id, deg := range remaining {
		if deg == 0 {
			ready[id] = true
		}
	}

	for len(order) < len(instances) {
		next := ""
		nextIdx := -1
		for id := range ready {
			idx := instances[id].insertIndex
			if nextIdx == -1 || idx < nextIdx {
				nextIdx = idx
				next = id
			}
		}
		if next == "" {
			// No ready node but nodes remain: a cycle. Report the
			// earliest-declared node still stuck, for determinism.
			stuckIdx := -1
			stuck := ""
			for id, deg := range remaining {
				if deg <= 0 {
					continue
				}
				idx := instances[id].insertIndex
				if stuckIdx == -1 || idx < stuckIdx {
					stuckIdx = idx
					stuck = id
				}
			}
			return nil, errCycle(stuck)
		}
		delete(ready, next)
		order = append(order, next)
		for _, c := range outgoing[next] {
			remaining[c.ToNode]--
			if remaining[c.ToNode] == 0 {
				ready[c.ToNode] = true
			}
		}
	}
	return order, nil
}
