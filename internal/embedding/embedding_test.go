package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Vector
		want  float64
		delta float64
	}{
		{"identical", Vector{1, 0, 0}, Vector{1, 0, 0}, 1.0, 0.001},
		{"orthogonal", Vector{1, 0, 0}, Vector{0, 1, 0}, 0.0, 0.001},
		{"opposite", Vector{1, 0, 0}, Vector{-1, 0, 0}, -1.0, 0.001},
		{"partial overlap", Vector{1, 1, 0}, Vector{1, 0, 0}, 0.707, 0.01},
		{"empty", Vector{}, Vector{}, 0.0, 0.001},
		{"mismatched lengths", Vector{1, 0}, Vector{1, 0, 0}, 0.0, 0.001},
		{"zero vector", Vector{0, 0, 0}, Vector{1, 0, 0}, 0.0, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.delta {
				t.Errorf("CosineSimilarity(%v, %v) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestNewFromEnv_DisabledByDefault(t *testing.T) {
	t.Setenv(EnvProvider, "")
	if e := NewFromEnv(); e != nil {
		t.Error("expected nil embedder when no provider is configured")
	}
}

func TestNewFromEnv_Ollama(t *testing.T) {
	t.Setenv(EnvProvider, "ollama")
	t.Setenv(EnvModel, "all-minilm")

	e := NewFromEnv()
	if e == nil {
		t.Fatal("expected an embedder")
	}
	if e.Dims() != 384 {
		t.Errorf("Dims() = %d, want 384 for all-minilm", e.Dims())
	}
}

func TestOllamaEmbedder_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Prompt != "hello world" {
			t.Errorf("prompt = %q", req.Prompt)
		}
		json.NewEncoder(w).Encode(ollamaResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	t.Setenv("OLLAMA_HOST", srv.URL)
	e := NewOllamaEmbedder("nomic-embed-text")

	vec, err := e.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 3 || vec[1] != 0.2 {
		t.Errorf("vector = %v", vec)
	}
}

func TestOllamaEmbedder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	t.Setenv("OLLAMA_HOST", srv.URL)
	e := NewOllamaEmbedder("nope")

	if _, err := e.Embed(context.Background(), "x"); err == nil {
		t.Error("expected error on non-200 response")
	}
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float32{1, 2}}},
		})
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(srv.URL, "sk-test", "", 0)
	if e.Dims() != 1536 {
		t.Errorf("Dims() = %d, want 1536 default", e.Dims())
	}

	vec, err := e.Embed(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 2 || vec[0] != 1 {
		t.Errorf("vector = %v", vec)
	}
}

func TestOpenAIEmbedder_EmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(srv.URL, "", "", 0)
	if _, err := e.Embed(context.Background(), "hi"); err == nil {
		t.Error("expected error when response carries no embedding")
	}
}
