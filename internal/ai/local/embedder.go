// Package local runs a sentence-transformer embedding model in-process with
// hugot, so the research loop can score reports without an embedding API.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/logger"
)

const (
	DefaultModel     = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultModelDir  = "./models"
	onnxFilePath     = "onnx/model.onnx"
	pipelineName     = "interview-embedder"
	providerFieldTag = "local"
)

type runFunc func(texts []string) ([][]float32, error)

// Embedder produces embeddings with a hugot feature extraction pipeline.
type Embedder struct {
	mu      sync.Mutex
	run     runFunc
	destroy func() error
	model   string
	logger  *zap.Logger
}

// Options configures the local embedder.
type Options struct {
	Model    string
	ModelDir string
}

// PrepareModel downloads the model into dir unless it is already present and
// returns the model path.
func PrepareModel(model, dir string) (string, error) {
	modelPath := filepath.Join(dir, strings.ReplaceAll(model, "/", "_"))
	if _, err := os.Stat(modelPath); err == nil {
		return modelPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("stat model path: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create model directory: %w", err)
	}

	downloadOptions := hugot.NewDownloadOptions()
	downloadOptions.OnnxFilePath = onnxFilePath
	downloaded, err := hugot.DownloadModel(model, dir, downloadOptions)
	if err != nil {
		return "", fmt.Errorf("download model %s: %w", model, err)
	}

	return downloaded, nil
}

// New prepares the model and starts a pure Go hugot session.
func New(log *zap.Logger, opts Options) (*Embedder, error) {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	dir := strings.TrimSpace(opts.ModelDir)
	if dir == "" {
		dir = DefaultModelDir
	}

	log = logger.WithCommonFields(log, providerFieldTag, model)

	modelPath, err := PrepareModel(model, dir)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("create hugot session: %w", err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      pipelineName,
	})
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("create feature extraction pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("create feature extraction pipeline: %w", err)
	}

	log.Info("local embedding model loaded", zap.String("model_path", modelPath))

	return &Embedder{
		run: func(texts []string) ([][]float32, error) {
			result, err := pipeline.RunPipeline(texts)
			if err != nil {
				return nil, err
			}
			return result.Embeddings, nil
		},
		destroy: session.Destroy,
		model:   model,
		logger:  log,
	}, nil
}

// Embed returns the sentence embedding of text. Calls are serialized because a
// hugot pipeline is not safe for concurrent use.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e == nil || e.run == nil {
		return nil, errors.New("local embedder is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	embeddings, err := e.run([]string{text})
	if err != nil {
		return nil, fmt.Errorf("generate embedding: %w", err)
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, errors.New("no embedding generated")
	}

	return embeddings[0], nil
}

// Model returns the model name.
func (e *Embedder) Model() string {
	if e == nil {
		return ""
	}
	return e.model
}

// Close releases the hugot session.
func (e *Embedder) Close() error {
	if e == nil || e.destroy == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.destroy()
	e.run = nil
	e.destroy = nil
	return err
}
