package gpu

// TrackedPass forwards to a RenderPass and remembers what is currently bound,
// since WebGPU passes cannot be queried. Hosts that share a pass with guest
// renderers draw through a TrackedPass so guests can hand the bindings back.
type TrackedPass struct {
	pass          RenderPass
	pipeline      Pipeline
	bindGroups    map[uint32]BindGroup
	vertexBuffers map[uint32]Buffer
}

func Track(pass RenderPass) *TrackedPass {
	return &TrackedPass{
		pass:          pass,
		bindGroups:    make(map[uint32]BindGroup),
		vertexBuffers: make(map[uint32]Buffer),
	}
}

func (t *TrackedPass) SetPipeline(p Pipeline) {
	t.pipeline = p
	t.pass.SetPipeline(p)
}

func (t *TrackedPass) SetBindGroup(index uint32, bg BindGroup) {
	t.bindGroups[index] = bg
	t.pass.SetBindGroup(index, bg)
}

func (t *TrackedPass) SetVertexBuffer(slot uint32, buf Buffer) {
	t.vertexBuffers[slot] = buf
	t.pass.SetVertexBuffer(slot, buf)
}

func (t *TrackedPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	t.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (t *TrackedPass) Pipeline() Pipeline               { return t.pipeline }
func (t *TrackedPass) BindGroup(index uint32) BindGroup { return t.bindGroups[index] }
func (t *TrackedPass) VertexBuffer(slot uint32) Buffer  { return t.vertexBuffers[slot] }

type bindingKind int

const (
	bindPipeline bindingKind = iota
	bindGroup
	bindVertexBuffer
)

type binding struct {
	kind     bindingKind
	index    uint32
	pipeline Pipeline
	group    BindGroup
	buffer   Buffer
}

// AmbientState is a snapshot of the host's bindings taken before a guest draw.
type AmbientState struct {
	pass     *TrackedPass
	captured []binding
}

// Capture snapshots the pipeline, the listed bind group indices and the listed
// vertex buffer slots. Unbound entries are not recorded and are left as the
// guest binds them.
func (t *TrackedPass) Capture(groups, slots []uint32) *AmbientState {
	s := &AmbientState{pass: t}
	if t.pipeline != nil {
		s.captured = append(s.captured, binding{kind: bindPipeline, pipeline: t.pipeline})
	}
	for _, g := range groups {
		if bg := t.bindGroups[g]; bg != nil {
			s.captured = append(s.captured, binding{kind: bindGroup, index: g, group: bg})
		}
	}
	for _, slot := range slots {
		if buf := t.vertexBuffers[slot]; buf != nil {
			s.captured = append(s.captured, binding{kind: bindVertexBuffer, index: slot, buffer: buf})
		}
	}
	return s
}

// Len reports how many bindings are held for restoration.
func (s *AmbientState) Len() int {
	if s == nil {
		return 0
	}
	return len(s.captured)
}

// Restore rebinds the captured state in reverse capture order and drops the
// held references. Calling it again is a no-op.
func (s *AmbientState) Restore() {
	if s == nil || s.pass == nil {
		return
	}
	for i := len(s.captured) - 1; i >= 0; i-- {
		b := s.captured[i]
		switch b.kind {
		case bindPipeline:
			s.pass.SetPipeline(b.pipeline)
		case bindGroup:
			s.pass.SetBindGroup(b.index, b.group)
		case bindVertexBuffer:
			s.pass.SetVertexBuffer(b.index, b.buffer)
		}
	}
	s.captured = nil
	s.pass = nil
}
