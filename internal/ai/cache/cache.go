// Package cache persists embeddings in a bbolt file so identical texts are not
// embedded twice across runs.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/ai"
	"github.com/spigell/interview-analyzer/internal/logger"
)

const openTimeout = 5 * time.Second

// Store is a bbolt database of embedding vectors.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the cache file at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("cache path is required")
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("open embedding cache: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Key returns the cache key of text.
func Key(text string) []byte {
	hash := sha256.Sum256([]byte(text))
	return []byte(hex.EncodeToString(hash[:]))
}

// Get returns the cached vector of text in namespace.
func (s *Store) Get(namespace, text string) ([]float32, bool, error) {
	var vec []float32
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(namespace))
		if bucket == nil {
			return nil
		}
		data := bucket.Get(Key(text))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &vec)
	})
	if err != nil {
		return nil, false, fmt.Errorf("read cached embedding: %w", err)
	}

	return vec, vec != nil, nil
}

// Put stores vec for text in namespace.
func (s *Store) Put(namespace, text string, vec []float32) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(namespace))
		if err != nil {
			return fmt.Errorf("create bucket %s: %w", namespace, err)
		}
		return bucket.Put(Key(text), data)
	})
}

// Len returns the number of cached vectors in namespace.
func (s *Store) Len(namespace string) (int, error) {
	count := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		if bucket := tx.Bucket([]byte(namespace)); bucket != nil {
			count = bucket.Stats().KeyN
		}
		return nil
	})
	return count, err
}

// Embedder decorates an embedder with the cache.
type Embedder struct {
	next      ai.Embedder
	store     *Store
	namespace string
	logger    *zap.Logger
}

// Wrap returns an embedder that reads through store. Namespace separates
// vectors of different providers and models.
func Wrap(next ai.Embedder, store *Store, namespace string, log *zap.Logger) *Embedder {
	return &Embedder{
		next:      next,
		store:     store,
		namespace: namespace,
		logger:    logger.OrNop(log).With(zap.String("cache_namespace", namespace)),
	}
}

// Embed returns the cached vector or delegates and stores the result. Cache
// failures are logged and do not fail the call.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, ok, err := e.store.Get(e.namespace, text)
	if err != nil {
		e.logger.Warn("embedding cache read failed", zap.Error(err))
	}
	if ok {
		e.logger.Debug("embedding cache hit")
		return vec, nil
	}

	vec, err = e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if isZero(vec) {
		return vec, nil
	}

	if err := e.store.Put(e.namespace, text, vec); err != nil {
		e.logger.Warn("embedding cache write failed", zap.Error(err))
	}

	return vec, nil
}

// Namespace builds a bucket name from provider and model.
func Namespace(provider, model string) string {
	return strings.ToLower(strings.TrimSpace(provider)) + ":" + strings.TrimSpace(model)
}

// isZero reports fallback vectors, which must not be cached.
func isZero(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
