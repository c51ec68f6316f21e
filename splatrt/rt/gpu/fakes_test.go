package gpu

import (
	"errors"
	"fmt"
	"strings"
)

var errInjected = errors.New("injected failure")

type fakeResource struct {
	dev      *fakeDevice
	kind     string
	label    string
	size     uint64
	contents []byte
	released int
}

func (r *fakeResource) Release() {
	r.released++
	r.dev.releases = append(r.dev.releases, r.label)
}

func (r *fakeResource) Size() uint64 { return r.size }

// fakeDevice records every object it hands out. fail lists label substrings
// whose creation should fail.
type fakeDevice struct {
	fail      []string
	created   []*fakeResource
	releases  []string
	pipelines []*PipelineDescriptor
	writes    map[string][]byte
}

func newFakeDevice(fail ...string) *fakeDevice {
	return &fakeDevice{fail: fail, writes: make(map[string][]byte)}
}

func (d *fakeDevice) shouldFail(label string) bool {
	for _, f := range d.fail {
		if strings.Contains(label, f) {
			return true
		}
	}
	return false
}

func (d *fakeDevice) newResource(kind, label string, size uint64) (*fakeResource, error) {
	if d.shouldFail(label) {
		return nil, fmt.Errorf("%s %q: %w", kind, label, errInjected)
	}
	r := &fakeResource{dev: d, kind: kind, label: label, size: size}
	d.created = append(d.created, r)
	return r, nil
}

func (d *fakeDevice) CreateShaderModule(label, wgsl string) (ShaderModule, error) {
	r, err := d.newResource("module", label, uint64(len(wgsl)))
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (d *fakeDevice) CreateRenderPipeline(desc *PipelineDescriptor) (Pipeline, error) {
	r, err := d.newResource("pipeline", desc.Label, 0)
	if err != nil {
		return nil, err
	}
	d.pipelines = append(d.pipelines, desc)
	return r, nil
}

func (d *fakeDevice) CreateBuffer(desc *BufferDescriptor) (Buffer, error) {
	size := desc.Size
	if desc.Contents != nil {
		size = uint64(len(desc.Contents))
	}
	r, err := d.newResource("buffer", desc.Label, size)
	if err != nil {
		return nil, err
	}
	r.contents = append([]byte(nil), desc.Contents...)
	return r, nil
}

func (d *fakeDevice) CreateUniformBindGroup(label string, pipeline Pipeline, uniform Buffer) (BindGroup, error) {
	r, err := d.newResource("bindgroup", label, 0)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (d *fakeDevice) WriteBuffer(buf Buffer, offset uint64, data []byte) error {
	r := buf.(*fakeResource)
	d.writes[r.label] = append([]byte(nil), data...)
	return nil
}

// live returns the labels of created objects not yet released.
func (d *fakeDevice) live() []string {
	var out []string
	for _, r := range d.created {
		if r.released == 0 {
			out = append(out, r.label)
		}
	}
	return out
}

func (d *fakeDevice) find(label string) []*fakeResource {
	var out []*fakeResource
	for _, r := range d.created {
		if strings.Contains(r.label, label) {
			out = append(out, r)
		}
	}
	return out
}

func labelOf(r any) string {
	if f, ok := r.(*fakeResource); ok {
		return f.label
	}
	return "<nil>"
}

// recordingPass logs every command as a short string.
type recordingPass struct {
	calls []string
}

func (p *recordingPass) SetPipeline(pl Pipeline) {
	p.calls = append(p.calls, "pipeline "+labelOf(pl))
}

func (p *recordingPass) SetBindGroup(index uint32, bg BindGroup) {
	p.calls = append(p.calls, fmt.Sprintf("group%d %s", index, labelOf(bg)))
}

func (p *recordingPass) SetVertexBuffer(slot uint32, buf Buffer) {
	p.calls = append(p.calls, fmt.Sprintf("vb%d %s", slot, labelOf(buf)))
}

func (p *recordingPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.calls = append(p.calls, fmt.Sprintf("draw %d %d %d %d", vertexCount, instanceCount, firstVertex, firstInstance))
}

type recordingLog struct {
	info, warn, err []string
}

func (l *recordingLog) Infof(format string, args ...any) {
	l.info = append(l.info, fmt.Sprintf(format, args...))
}

func (l *recordingLog) Warnf(format string, args ...any) {
	l.warn = append(l.warn, fmt.Sprintf(format, args...))
}

func (l *recordingLog) Errorf(format string, args ...any) {
	l.err = append(l.err, fmt.Sprintf(format, args...))
}
