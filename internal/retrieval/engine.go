package retrieval

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"docrag/config"
	"docrag/internal/adapter/analyzer"
	"docrag/internal/adapter/cache"
	"docrag/internal/adapter/embedding"
	"docrag/internal/adapter/expand"
	"docrag/internal/adapter/index"
	"docrag/internal/adapter/llm"
	"docrag/internal/adapter/store"
	"docrag/internal/classify"
	"docrag/internal/domain"
	"docrag/internal/port"
	"docrag/internal/xref"
)

// snapshot is one immutable generation of the engine: the open store and
// everything derived from it. Readers load the pointer once and work
// against a consistent view while Reload swaps in the next generation.
type snapshot struct {
	store        port.IndexStore
	orchestrator *Orchestrator
	graph        *xref.Graph
	results      *cache.QueryCache[*Result]
}

// Engine owns the retrieval stack for one corpus directory. It opens the
// index lazily on first use and supports atomic reload after reindexing.
type Engine struct {
	dir string
	cfg *config.Config

	mu   sync.Mutex // serializes load and reload
	snap atomic.Pointer[snapshot]
}

func NewEngine(dir string, cfg *config.Config) *Engine {
	return &Engine{dir: dir, cfg: cfg}
}

// Retrieve answers one query against the current snapshot.
func (e *Engine) Retrieve(ctx context.Context, query string, topK int, filter domain.DocFilter) (*Result, error) {
	snap, err := e.current()
	if err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = e.cfg.Retrieve.TopK
	}

	key := cache.Key(query, topK, filter)
	if cached, ok := snap.results.Get(key); ok {
		// identical request shape, fresh request id
		copied := *cached
		copied.RequestID = uuid.NewString()
		return &copied, nil
	}

	result, err := snap.orchestrator.Retrieve(ctx, query, topK, filter)
	if err != nil {
		return nil, err
	}
	snap.results.Put(key, result)
	return result, nil
}

// Stats reports the indexed corpus totals.
func (e *Engine) Stats() (domain.Stats, error) {
	snap, err := e.current()
	if err != nil {
		return domain.Stats{}, err
	}
	return snap.store.GetStats()
}

// Documents lists the indexed source documents.
func (e *Engine) Documents() ([]domain.DocumentInfo, error) {
	snap, err := e.current()
	if err != nil {
		return nil, err
	}
	return snap.store.ListDocuments()
}

// Classify runs domain classification alone, without retrieval.
func (e *Engine) Classify(query string) ([]domain.DomainScore, error) {
	snap, err := e.current()
	if err != nil {
		return nil, err
	}
	return snap.orchestrator.classifier.Classify(query), nil
}

// Reload builds a fresh snapshot and swaps it in. In-flight requests
// finish against the old generation; its store closes once their
// transactions complete.
func (e *Engine) Reload() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := e.buildSnapshot()
	if err != nil {
		return err
	}
	old := e.snap.Swap(next)
	if old != nil {
		return old.store.Close()
	}
	return nil
}

// Close releases the current snapshot's store.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	old := e.snap.Swap(nil)
	if old != nil {
		return old.store.Close()
	}
	return nil
}

func (e *Engine) current() (*snapshot, error) {
	if snap := e.snap.Load(); snap != nil {
		return snap, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if snap := e.snap.Load(); snap != nil {
		return snap, nil
	}

	snap, err := e.buildSnapshot()
	if err != nil {
		return nil, err
	}
	e.snap.Store(snap)
	return snap, nil
}

func (e *Engine) buildSnapshot() (*snapshot, error) {
	dbPath := config.IndexDBPath(e.dir)
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("%w: no index at %s (run `docrag index` first)", domain.ErrEmptyIndex, dbPath)
	}

	// Read-only open takes a shared file lock, so the next generation can
	// be built while the previous one still serves requests.
	boltStore, err := store.NewBoltStoreReadOnly(dbPath)
	if err != nil {
		return nil, err
	}

	snap, err := e.assemble(boltStore)
	if err != nil {
		boltStore.Close()
		return nil, err
	}
	return snap, nil
}

func (e *Engine) assemble(st port.IndexStore) (*snapshot, error) {
	cfg := e.cfg
	tokenizer := analyzer.NewTokenizer()

	// Without a domain map the engine still serves unfiltered retrieval.
	catalog := &classify.Catalog{}
	if _, statErr := os.Stat(cfg.DomainMapPath(e.dir)); statErr == nil {
		loaded, err := classify.LoadCatalog(cfg.DomainMapPath(e.dir), cfg.GlossaryPath(e.dir))
		if err != nil {
			return nil, err
		}
		catalog = loaded
	}
	classifier := classify.NewClassifier(catalog)

	procedures, err := classify.LoadProcedures(cfg.DecisionTreesPath(e.dir))
	if err != nil {
		return nil, err
	}

	keyword := index.NewKeywordBackend(st, tokenizer, cfg.Index.K1, cfg.Index.B)

	var summary port.SearchBackend
	if n, err := st.SummaryCount(); err == nil && n > 0 {
		summary = index.NewSummaryBackend(st, tokenizer, cfg.Index.K1, cfg.Index.B)
	}

	var vector port.SearchBackend
	if cfg.Embedding.Enabled {
		embedder, err := embedding.NewOpenAIEmbedder(
			cfg.Embedding.APIKeyEnv, cfg.Embedding.Model, cfg.Embedding.BaseURL, cfg.Embedding.Dimension)
		if err == nil {
			vb, err := index.NewVectorBackend(st, embedder, cfg.Retrieve.VectorThreshold)
			if err == nil {
				vector = vb
			} else if !errors.Is(err, domain.ErrBackendUnavailable) {
				return nil, err
			}
		}
	}

	synonyms, err := expand.LoadSynonyms(cfg.SynonymsPath(e.dir))
	if err != nil {
		return nil, err
	}
	var chat port.LLM
	if cfg.Retrieve.LLMExpansion {
		chat = llm.NewOpenAIClient(os.Getenv(cfg.LLM.APIKeyEnv), cfg.LLM.Model, cfg.LLM.BaseURL)
	}
	expander := expand.NewExpander(synonyms, chat)

	var graph *xref.Graph
	if g, err := xref.Load(config.GraphPath(e.dir)); err == nil {
		graph = g
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	orch, err := NewOrchestrator(classifier, procedures, keyword, vector, summary, expander, graph, Options{
		KeywordWeight:   cfg.Retrieve.KeywordWeight,
		SynonymWeight:   cfg.Retrieve.SynonymWeight,
		VectorWeight:    cfg.Retrieve.VectorWeight,
		SummaryWeight:   cfg.Retrieve.SummaryWeight,
		LLMExpandWeight: cfg.Retrieve.LLMExpandWeight,
		CrossRefWeight:  cfg.Retrieve.CrossRefWeight,
		HopDepth:        cfg.Retrieve.HopDepth,
		CrossRefMaxDocs: cfg.Retrieve.CrossRefMaxDocs,
		LLMExpansion:    cfg.Retrieve.LLMExpansion,
		KeywordTimeout:  time.Duration(cfg.Retrieve.KeywordTimeoutMS) * time.Millisecond,
		BackendTimeout:  time.Duration(cfg.Retrieve.BackendTimeoutMS) * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}

	return &snapshot{
		store:        st,
		orchestrator: orch,
		graph:        graph,
		results:      cache.NewQueryCache[*Result](128, 5*time.Minute),
	}, nil
}
