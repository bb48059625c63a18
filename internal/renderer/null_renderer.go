package renderer

// NullRenderer is a no-op Renderer that records the size of every upload
// instead of talking to a GPU. cmd/voxelstream uses it for headless and
// profile-log runs; tests use it to assert on call counts without a
// graphics context.
type NullRenderer struct {
	PipelineCreated bool
	VertexStride    int

	TextureSets int
	LastTexture struct {
		Width, Height, RowBytes int
	}

	MeshSets    int
	LastVertexBytes int
	LastIndexCount  int

	LineMeshSets int
	UIMeshSets   int
	UniformSets  int

	DrawCalls    int
	LastClear    [4]float32
}

// NewNullRenderer returns a ready-to-use NullRenderer.
func NewNullRenderer() *NullRenderer {
	return &NullRenderer{}
}

func (n *NullRenderer) CreatePipeline(shaderSource, vertexEntry, fragmentEntry string, vertexStride int) error {
	n.PipelineCreated = true
	n.VertexStride = vertexStride
	return nil
}

func (n *NullRenderer) SetTexture(data []byte, width, height, rowBytes int) error {
	n.TextureSets++
	n.LastTexture.Width = width
	n.LastTexture.Height = height
	n.LastTexture.RowBytes = rowBytes
	return nil
}

func (n *NullRenderer) SetMesh(vertexBytes []byte, stride int, indices []uint32) error {
	n.MeshSets++
	n.LastVertexBytes = len(vertexBytes)
	n.LastIndexCount = len(indices)
	return nil
}

func (n *NullRenderer) SetLineMesh(bytes []byte, stride int) error {
	n.LineMeshSets++
	return nil
}

func (n *NullRenderer) SetUIMesh(bytes []byte, stride int) error {
	n.UIMeshSets++
	return nil
}

func (n *NullRenderer) SetUniforms(bytes []byte) error {
	n.UniformSets++
	return nil
}

func (n *NullRenderer) Draw(clearColor [4]float32) error {
	n.DrawCalls++
	n.LastClear = clearColor
	return nil
}

var _ Renderer = (*NullRenderer)(nil)
