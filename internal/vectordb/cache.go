// Package vectordb maintains the content-addressed vector index cache.
//
// Each indexed document gets its own collection keyed by the SHA-256
// digest of its text. Editing a document changes the digest, so stale
// indexes are never looked up again; rebuilding the same content is a
// cache hit that costs no embedding calls. Indexes persist on disk when
// an index directory is configured and degrade to memory when the disk
// store cannot be used.
package vectordb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/firebase/genkit/go/ai"
	"github.com/gofrs/flock"
	chromem "github.com/philippgille/chromem-go"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/quillnote/quill/internal/log"
)

// Cache is the content-hash-keyed index store. Safe for concurrent use;
// concurrent builds of the same content are coalesced into one.
type Cache struct {
	db        *chromem.DB
	embedFunc chromem.EmbeddingFunc
	splitter  *Splitter
	logger    log.Logger

	lock       *flock.Flock // nil when running in memory
	persistErr *PersistenceError

	group singleflight.Group
}

// Entry is one built index, bound to the content hash it was built from.
type Entry struct {
	Hash       string
	collection *chromem.Collection
}

// Result is one retrieved chunk with its cosine similarity to the query.
type Result struct {
	ID         string
	Content    string
	Similarity float32
}

// NewCache opens the index store. dir selects the on-disk location; an
// empty dir means memory only. Disk failures (unwritable directory,
// lock held by another process, corrupt store) never fail construction:
// the cache falls back to memory and records the cause, retrievable via
// PersistenceIssue.
// embedRatePerSec caps embedding calls so a large build does not trip
// provider rate limits. Bursts up to the same size pass untouched.
const embedRatePerSec = 20

func NewCache(dir string, embedder ai.Embedder, chunkSize int, logger log.Logger) *Cache {
	limiter := rate.NewLimiter(rate.Limit(embedRatePerSec), embedRatePerSec)
	c := &Cache{
		embedFunc: rateLimited(NewEmbeddingFunc(embedder), limiter),
		splitter:  NewSplitter(chunkSize),
		logger:    logger,
	}

	if dir == "" {
		c.db = chromem.NewDB()
		return c
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.fallback("create", err)
		return c
	}

	// One process owns the on-disk store at a time.
	lock := flock.New(filepath.Join(dir, ".lock"))
	ok, err := lock.TryLock()
	if err != nil || !ok {
		if err == nil {
			err = fmt.Errorf("index directory %s is locked by another process", dir)
		}
		c.fallback("lock", err)
		return c
	}

	db, err := chromem.NewPersistentDB(filepath.Join(dir, "index"), true)
	if err != nil {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			logger.Warn("releasing index lock", "error", unlockErr)
		}
		c.fallback("open", err)
		return c
	}

	c.db = db
	c.lock = lock
	logger.Debug("opened persistent index store", "dir", dir)
	return c
}

// fallback switches the cache to an in-memory store and records why.
func (c *Cache) fallback(op string, err error) {
	c.persistErr = &PersistenceError{Op: op, Err: err}
	c.db = chromem.NewDB()
	c.logger.Warn("index persistence unavailable, using in-memory store",
		"op", op, "error", err)
}

// PersistenceIssue returns the recorded disk-store failure, or nil when
// the cache is disk-backed (or was configured memory-only).
func (c *Cache) PersistenceIssue() *PersistenceError { return c.persistErr }

// Persistent reports whether indexes survive process restarts.
func (c *Cache) Persistent() bool { return c.lock != nil }

// Close releases the index directory lock.
func (c *Cache) Close() error {
	if c.lock == nil {
		return nil
	}
	return c.lock.Unlock()
}

// Lookup returns the existing index for the given content hash, if one
// was built before. It never embeds anything.
func (c *Cache) Lookup(hash string) (*Entry, bool) {
	collection := c.db.GetCollection(collectionName(hash), c.embedFunc)
	if collection == nil || collection.Count() == 0 {
		return nil, false
	}
	return &Entry{Hash: hash, collection: collection}, true
}

// Build returns the index for the given document content, building it
// only when no index for the same content exists. force discards any
// existing index first. Concurrent builds for the same content share a
// single execution.
func (c *Cache) Build(ctx context.Context, content string, force bool) (*Entry, error) {
	chunks := c.splitter.Split(content)
	if len(chunks) == 0 {
		return nil, ErrNoDocumentContent
	}

	hash := Hash(content)
	v, err, _ := c.group.Do(hash, func() (any, error) {
		if force {
			if err := c.db.DeleteCollection(collectionName(hash)); err != nil {
				return nil, fmt.Errorf("dropping stale index: %w", err)
			}
		} else if entry, ok := c.Lookup(hash); ok {
			c.logger.Debug("index cache hit", "hash", hash)
			return entry, nil
		}
		return c.build(ctx, hash, chunks)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Entry), nil
}

// build embeds chunks into a fresh collection for hash.
func (c *Cache) build(ctx context.Context, hash string, chunks []string) (*Entry, error) {
	name := collectionName(hash)

	// Drop any partial leftover from a failed earlier attempt before
	// creating the collection fresh.
	if err := c.db.DeleteCollection(name); err != nil {
		return nil, fmt.Errorf("dropping stale index: %w", err)
	}
	collection, err := c.db.GetOrCreateCollection(name, map[string]string{"hash": hash}, c.embedFunc)
	if err != nil {
		return nil, fmt.Errorf("creating index collection: %w", err)
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for i, chunk := range chunks {
		docs = append(docs, chromem.Document{
			ID:      hash[:12] + "-" + strconv.Itoa(i),
			Content: chunk,
			Metadata: map[string]string{
				"hash":  hash,
				"chunk": strconv.Itoa(i),
			},
		})
	}

	if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		// A half-built index must not satisfy later lookups.
		if delErr := c.db.DeleteCollection(name); delErr != nil {
			c.logger.Warn("removing partial index", "hash", hash, "error", delErr)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}

	c.logger.Debug("built index", "hash", hash, "chunks", len(chunks))
	return &Entry{Hash: hash, collection: collection}, nil
}

// Purge removes the index for the given content hash, if present.
func (c *Cache) Purge(hash string) error {
	return c.db.DeleteCollection(collectionName(hash))
}

// Retrieve returns up to topK chunks most similar to the query. The
// result count is clamped to the collection size.
func (e *Entry) Retrieve(ctx context.Context, query string, topK int) ([]Result, error) {
	count := e.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}
	if topK < 1 {
		topK = 1
	}

	matches, err := e.collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{
			ID:         m.ID,
			Content:    m.Content,
			Similarity: m.Similarity,
		})
	}
	return results, nil
}

// Len returns the number of chunks in the index.
func (e *Entry) Len() int { return e.collection.Count() }

// NewEmbeddingFunc bridges a Genkit embedder to the store's embedding
// callback. Vectors are normalized by the store, so none is done here.
func NewEmbeddingFunc(embedder ai.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		resp, err := embedder.Embed(ctx, &ai.EmbedRequest{
			Input: []*ai.Document{ai.DocumentFromText(text, nil)},
		})
		if err != nil {
			return nil, fmt.Errorf("embed failed: %w", err)
		}
		if len(resp.Embeddings) == 0 {
			return nil, fmt.Errorf("no embeddings returned")
		}
		return resp.Embeddings[0].Embedding, nil
	}
}

// rateLimited paces embedding calls through the limiter.
func rateLimited(fn chromem.EmbeddingFunc, limiter *rate.Limiter) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return fn(ctx, text)
	}
}

// collectionName derives the store collection name from a content hash.
// Store names are capped below the full digest length, and the digest
// is kept in collection metadata.
func collectionName(hash string) string {
	return "note-" + hash[:32]
}
