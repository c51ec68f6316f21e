package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackedPass_CaptureRestore(t *testing.T) {
	dev := newFakeDevice()
	hostPipe, _ := dev.CreateRenderPipeline(&PipelineDescriptor{Label: "host"})
	hostGroup, _ := dev.CreateUniformBindGroup("hostBG", hostPipe, nil)
	hostVB, _ := dev.CreateBuffer(&BufferDescriptor{Label: "hostVB", Size: 8})
	guestPipe, _ := dev.CreateRenderPipeline(&PipelineDescriptor{Label: "guest"})

	rec := &recordingPass{}
	pass := Track(rec)
	pass.SetPipeline(hostPipe)
	pass.SetBindGroup(0, hostGroup)
	pass.SetVertexBuffer(0, hostVB)

	state := pass.Capture([]uint32{0, 2}, []uint32{0, 1})
	assert.Equal(t, 3, state.Len(), "unbound group 2 and slot 1 are not held")

	rec.calls = nil
	pass.SetPipeline(guestPipe)
	pass.Draw(4, 1, 0, 0)
	state.Restore()

	assert.Equal(t, []string{
		"pipeline guest",
		"draw 4 1 0 0",
		"vb0 hostVB",
		"group0 hostBG",
		"pipeline host",
	}, rec.calls)
	assert.Equal(t, hostPipe, pass.Pipeline())
	assert.Equal(t, 0, state.Len())

	rec.calls = nil
	state.Restore()
	assert.Empty(t, rec.calls, "second restore is a no-op")
}

func TestTrackedPass_EmptyCapture(t *testing.T) {
	rec := &recordingPass{}
	pass := Track(rec)
	state := pass.Capture([]uint32{0}, []uint32{0})
	require.Equal(t, 0, state.Len())
	state.Restore()
	assert.Empty(t, rec.calls)

	var nilState *AmbientState
	nilState.Restore()
}
