package renderer

import "testing"

func TestNullRendererRecordsUploadsAndDraws(t *testing.T) {
	r := NewNullRenderer()

	if err := r.CreatePipeline("src", "vs_main", "fs_main", 48); err != nil {
		t.Fatalf("CreatePipeline: %v", err)
	}
	if !r.PipelineCreated || r.VertexStride != 48 {
		t.Fatalf("expected pipeline recorded with stride 48, got %+v", r)
	}

	if err := r.SetTexture(make([]byte, 64), 4, 4, 16); err != nil {
		t.Fatalf("SetTexture: %v", err)
	}
	if r.TextureSets != 1 || r.LastTexture.Width != 4 {
		t.Fatalf("expected 1 texture set with width 4, got %+v", r.LastTexture)
	}

	vertexBytes := make([]byte, 96)
	indices := []uint32{0, 1, 2, 2, 1, 3}
	if err := r.SetMesh(vertexBytes, 48, indices); err != nil {
		t.Fatalf("SetMesh: %v", err)
	}
	if r.MeshSets != 1 || r.LastVertexBytes != 96 || r.LastIndexCount != 6 {
		t.Fatalf("unexpected mesh recording: %+v", r)
	}

	if err := r.SetLineMesh(make([]byte, 12), 12); err != nil {
		t.Fatalf("SetLineMesh: %v", err)
	}
	if err := r.SetUIMesh(make([]byte, 12), 12); err != nil {
		t.Fatalf("SetUIMesh: %v", err)
	}
	if err := r.SetUniforms(make([]byte, 128)); err != nil {
		t.Fatalf("SetUniforms: %v", err)
	}
	if r.LineMeshSets != 1 || r.UIMeshSets != 1 || r.UniformSets != 1 {
		t.Fatalf("expected one of each auxiliary upload, got %+v", r)
	}

	clear := [4]float32{0.53, 0.81, 0.92, 1.0}
	if err := r.Draw(clear); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if r.DrawCalls != 1 || r.LastClear != clear {
		t.Fatalf("expected 1 draw with recorded clear color, got %+v", r)
	}
}

func TestNullRendererAccumulatesMultipleFrames(t *testing.T) {
	r := NewNullRenderer()
	for i := 0; i < 3; i++ {
		_ = r.SetMesh(nil, 48, nil)
		_ = r.Draw([4]float32{})
	}
	if r.MeshSets != 3 || r.DrawCalls != 3 {
		t.Fatalf("expected 3 mesh sets and 3 draws, got mesh=%d draw=%d", r.MeshSets, r.DrawCalls)
	}
}
