package gpu

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/gekko3d/gsplat/splatrt/rt/core"
	"github.com/gekko3d/gsplat/splatrt/rt/ply"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingReader serves in-memory datasets by path and counts reads.
type countingReader struct {
	sets  map[string]int // path -> record count; missing paths fail
	reads map[string]int
}

func newCountingReader(sets map[string]int) *countingReader {
	return &countingReader{sets: sets, reads: make(map[string]int)}
}

func (c *countingReader) read(path string) (*core.Dataset, *ply.Header, error) {
	c.reads[path]++
	n, ok := c.sets[path]
	if !ok {
		return nil, nil, &ply.ParseError{Path: path, Row: -1, Err: ply.ErrFileNotFound}
	}
	records := make([]core.SplatRecord, n)
	for i := range records {
		records[i].Position = [3]float32{float32(i), 0, 0}
	}
	return core.NewDataset(records), &ply.Header{VertexCount: n}, nil
}

func newTestRenderer(reader *countingReader, log Diagnostics) *FrameRenderer {
	return NewFrameRenderer(
		WithReader(reader.read),
		WithLogger(log),
		WithShaderValidator(nil),
	)
}

func inputs(path string) FrameInputs {
	return FrameInputs{
		FilePath:       path,
		PointSize:      4,
		World:          mgl32.Ident4(),
		ViewProj:       mgl32.Ident4(),
		ViewportWidth:  640,
		ViewportHeight: 480,
	}
}

func TestPrepare_LoadsOncePerPath(t *testing.T) {
	reader := newCountingReader(map[string]int{"a.ply": 3})
	log := &recordingLog{}
	r := newTestRenderer(reader, log)
	dev := newFakeDevice()

	st := r.Prepare(dev, inputs("a.ply"))
	assert.Equal(t, 3, st.VertexCount)
	assert.True(t, r.HasGeometry())
	assert.Equal(t, Ready, r.ShaderState())
	assert.Equal(t, []string{"Loaded 3 splats from: a.ply"}, log.info)

	r.Prepare(dev, inputs("a.ply"))
	r.Prepare(dev, inputs("a.ply"))
	assert.Equal(t, 1, reader.reads["a.ply"])
	assert.Len(t, dev.find("Positions"), 1, "unchanged path must not re-upload")
}

func TestPrepare_CountChangeRecreatesBuffers(t *testing.T) {
	reader := newCountingReader(map[string]int{"a.ply": 3, "b.ply": 7})
	r := newTestRenderer(reader, nil)
	dev := newFakeDevice()

	r.Prepare(dev, inputs("a.ply"))
	st := r.Prepare(dev, inputs("b.ply"))
	assert.Equal(t, 7, st.VertexCount)

	pos := dev.find("Positions")
	col := dev.find("Colors")
	require.Len(t, pos, 2)
	require.Len(t, col, 2)
	assert.Equal(t, 1, pos[0].released)
	assert.Equal(t, 1, col[0].released)
	assert.Equal(t, 0, pos[1].released)
	assert.Equal(t, uint64(7*12), pos[1].size)
	assert.Equal(t, uint64(7*16), col[1].size)

	r.Release()
	for _, b := range append(pos, col...) {
		assert.Equal(t, 1, b.released, b.label)
	}
	assert.Empty(t, dev.live())
}

func TestPrepare_ParseFailureLeavesEmptyDataset(t *testing.T) {
	reader := newCountingReader(map[string]int{"a.ply": 2})
	log := &recordingLog{}
	r := newTestRenderer(reader, log)
	dev := newFakeDevice()

	r.Prepare(dev, inputs("a.ply"))
	require.True(t, r.HasGeometry())

	st := r.Prepare(dev, inputs("missing.ply"))
	assert.False(t, r.HasGeometry())
	assert.Equal(t, 0, st.VertexCount)
	assert.Equal(t, 0, r.Dataset().Len())
	require.Len(t, log.err, 1)
	assert.Contains(t, log.err[0], "missing.ply")
	assert.Equal(t, 1, dev.find("Positions")[0].released)

	pass := &recordingPass{}
	r.Draw(Track(pass), st)
	assert.Empty(t, pass.calls)
}

func TestPrepare_WithoutDeviceDefersUpload(t *testing.T) {
	reader := newCountingReader(map[string]int{"a.ply": 4})
	r := newTestRenderer(reader, nil)

	st := r.Prepare(nil, inputs("a.ply"))
	assert.Equal(t, 0, st.VertexCount)
	assert.True(t, r.HasGeometry())
	assert.Equal(t, Uninitialized, r.ShaderState())

	dev := newFakeDevice()
	st = r.Prepare(dev, inputs("a.ply"))
	assert.Equal(t, 4, st.VertexCount)
	assert.Equal(t, 1, reader.reads["a.ply"])
}

func TestPrepare_UploadRetriedAfterFailure(t *testing.T) {
	reader := newCountingReader(map[string]int{"a.ply": 4})
	r := newTestRenderer(reader, &recordingLog{})

	st := r.Prepare(newFakeDevice("Colors"), inputs("a.ply"))
	assert.Equal(t, 0, st.VertexCount)

	st = r.Prepare(newFakeDevice(), inputs("a.ply"))
	assert.Equal(t, 4, st.VertexCount)
}

func TestPrepare_ComposesRenderState(t *testing.T) {
	reader := newCountingReader(map[string]int{"a.ply": 1})
	r := newTestRenderer(reader, nil)

	in := inputs("a.ply")
	in.World = mgl32.Translate3D(1, 0, 0)
	in.ViewProj = mgl32.Scale3D(2, 2, 2)
	in.PointSize = 6.5

	st := r.Prepare(newFakeDevice(), in)
	assert.Equal(t, in.ViewProj.Mul4(in.World), st.WVP)
	assert.Equal(t, float32(6.5), st.PointSize)
	assert.Equal(t, 640, st.ViewportWidth)
	assert.Equal(t, 480, st.ViewportHeight)
}

func TestDraw_RestoresHostState(t *testing.T) {
	reader := newCountingReader(map[string]int{"a.ply": 5})
	r := newTestRenderer(reader, nil)
	dev := newFakeDevice()
	st := r.Prepare(dev, inputs("a.ply"))

	hostPipe, _ := dev.CreateRenderPipeline(&PipelineDescriptor{Label: "Grid"})
	hostGroup, _ := dev.CreateUniformBindGroup("GridBG", hostPipe, nil)
	hostVB, _ := dev.CreateBuffer(&BufferDescriptor{Label: "GridVB", Size: 64})

	rec := &recordingPass{}
	pass := Track(rec)
	pass.SetPipeline(hostPipe)
	pass.SetBindGroup(0, hostGroup)
	pass.SetVertexBuffer(0, hostVB)
	rec.calls = nil

	r.Draw(pass, st)

	assert.Equal(t, []string{
		"pipeline Splat Pipeline",
		"group0 Splat BG",
		"vb0 Splat Positions",
		"vb1 Splat Colors",
		"draw 4 5 0 0",
		"vb0 GridVB",
		"group0 GridBG",
		"pipeline Grid",
	}, rec.calls)
	assert.Equal(t, hostPipe, pass.Pipeline())

	u := dev.writes["Splat Uniforms"]
	require.Len(t, u, UniformSize)
	assert.Equal(t, float32(4), readF32(u, 64))
	assert.Equal(t, float32(640), readF32(u, 68))
	assert.Equal(t, float32(480), readF32(u, 72))
}

func TestDraw_NoOpUntilReady(t *testing.T) {
	reader := newCountingReader(map[string]int{"a.ply": 5})
	r := newTestRenderer(reader, &recordingLog{})

	st := r.Prepare(newFakeDevice("Pipeline"), inputs("a.ply"))
	assert.Equal(t, Failed, r.ShaderState())

	rec := &recordingPass{}
	r.Draw(Track(rec), st)
	assert.Empty(t, rec.calls)
}

func TestReload(t *testing.T) {
	reader := newCountingReader(map[string]int{"a.ply": 2})
	r := newTestRenderer(reader, nil)
	dev := newFakeDevice()

	r.Prepare(dev, inputs("a.ply"))
	r.Reload()
	r.Prepare(dev, inputs("a.ply"))
	assert.Equal(t, 2, reader.reads["a.ply"])
}

func TestPrepare_ReadsRealFile(t *testing.T) {
	records := make([]core.SplatRecord, 12)
	for i := range records {
		records[i].Position = [3]float32{float32(i), 1, 2}
	}
	var buf bytes.Buffer
	require.NoError(t, ply.Write(&buf, ply.FormatBinaryLittleEndian, records))
	path := filepath.Join(t.TempDir(), "scene.ply")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	log := &recordingLog{}
	r := NewFrameRenderer(WithLogger(log), WithShaderValidator(nil), WithLabel("Scene"))
	dev := newFakeDevice()
	st := r.Prepare(dev, inputs(path))

	assert.Equal(t, 12, st.VertexCount)
	assert.Equal(t, []string{fmt.Sprintf("Loaded 12 splats from: %s", path)}, log.info)
	assert.Len(t, dev.find("Scene Positions"), 1)

	pos := dev.find("Scene Positions")[0]
	assert.Equal(t, float32(11), readF32(pos.contents, 11*12))
}
