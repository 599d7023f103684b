package retrieval

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"docrag/internal/classify"
	"docrag/internal/domain"
	"docrag/internal/port"
	"docrag/internal/xref"
)

// Options tunes the retrieval pipeline. Zero values fall back to the
// defaults below.
type Options struct {
	KeywordWeight   float64
	SynonymWeight   float64
	VectorWeight    float64
	SummaryWeight   float64
	LLMExpandWeight float64
	CrossRefWeight  float64

	HopDepth        int
	CrossRefMaxDocs int
	LLMExpansion    bool

	// KeywordTimeout bounds the mandatory method; it is stricter because
	// its failure fails the request. BackendTimeout bounds every
	// optional backend call.
	KeywordTimeout time.Duration
	BackendTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.KeywordWeight == 0 {
		o.KeywordWeight = 1.0
	}
	if o.SynonymWeight == 0 {
		o.SynonymWeight = 0.8
	}
	if o.VectorWeight == 0 {
		o.VectorWeight = 0.9
	}
	if o.SummaryWeight == 0 {
		o.SummaryWeight = 0.7
	}
	if o.LLMExpandWeight == 0 {
		o.LLMExpandWeight = 0.6
	}
	if o.CrossRefWeight == 0 {
		o.CrossRefWeight = 0.5
	}
	if o.HopDepth <= 0 {
		o.HopDepth = 1
	}
	if o.CrossRefMaxDocs <= 0 {
		o.CrossRefMaxDocs = 5
	}
	if o.KeywordTimeout <= 0 {
		o.KeywordTimeout = 2 * time.Second
	}
	if o.BackendTimeout <= 0 {
		o.BackendTimeout = 15 * time.Second
	}
	return o
}

// Result is the outcome of one retrieval request with full provenance.
type Result struct {
	RequestID        string
	Hits             []domain.FusedHit
	MethodsUsed      []domain.Method
	DomainMatches    []domain.DomainScore
	Procedure        *classify.Procedure
	DocFilterApplied domain.DocFilter
}

// Orchestrator sequences domain classification, multi-method search,
// fusion, cross-reference augmentation, and the unfiltered fallback.
// Only the keyword backend is mandatory; every other collaborator may be
// nil and its method is simply omitted.
type Orchestrator struct {
	classifier *classify.Classifier
	procedures *classify.ProcedureSet
	keyword    port.SearchBackend
	vector     port.SearchBackend
	summary    port.SearchBackend
	expander   port.QueryExpander
	graph      *xref.Graph
	opts       Options
}

func NewOrchestrator(
	classifier *classify.Classifier,
	procedures *classify.ProcedureSet,
	keyword port.SearchBackend,
	vector port.SearchBackend,
	summary port.SearchBackend,
	expander port.QueryExpander,
	graph *xref.Graph,
	opts Options,
) (*Orchestrator, error) {
	if keyword == nil {
		return nil, fmt.Errorf("%w: keyword backend is required", domain.ErrConfiguration)
	}
	if classifier == nil {
		return nil, fmt.Errorf("%w: classifier is required", domain.ErrConfiguration)
	}
	return &Orchestrator{
		classifier: classifier,
		procedures: procedures,
		keyword:    keyword,
		vector:     vector,
		summary:    summary,
		expander:   expander,
		graph:      graph,
		opts:       opts.withDefaults(),
	}, nil
}

// Retrieve runs the full pipeline for one query. explicitFilter, when
// non-nil, takes precedence over the domain-derived filter. topK bounds
// the returned hits.
func (o *Orchestrator) Retrieve(ctx context.Context, query string, topK int, explicitFilter domain.DocFilter) (*Result, error) {
	if topK <= 0 {
		topK = 10
	}

	scores := o.classifier.Classify(query)
	procedure := o.procedures.Match(query)

	filter := explicitFilter
	domainDerived := false
	if filter == nil {
		filter = classify.DeriveFilter(scores)
		domainDerived = len(filter) > 0
	}

	hits, methods, err := o.searchAndFuse(ctx, query, topK, filter)
	if err != nil {
		return nil, err
	}

	// A domain-derived filter that excluded everything is dropped and
	// the whole pipeline retried once, unfiltered.
	if len(hits) == 0 && domainDerived {
		hits, methods, err = o.searchAndFuse(ctx, query, topK, nil)
		if err != nil {
			return nil, err
		}
		filter = nil
	}

	domainMatches := scores
	if len(domainMatches) > 3 {
		domainMatches = domainMatches[:3]
	}

	return &Result{
		RequestID:        uuid.NewString(),
		Hits:             hits,
		MethodsUsed:      methods,
		DomainMatches:    domainMatches,
		Procedure:        procedure,
		DocFilterApplied: filter,
	}, nil
}

// methodBatches is one pipeline step's output: every batch it produced,
// all tagged with the same method.
type methodBatches struct {
	method  domain.Method
	batches []Batch
	err     error
}

// searchAndFuse runs the parallel backend fan-out, fuses, then augments
// through the cross-reference graph.
func (o *Orchestrator) searchAndFuse(ctx context.Context, query string, topK int, filter domain.DocFilter) ([]domain.FusedHit, []domain.Method, error) {
	tasks := []func(context.Context) methodBatches{
		func(ctx context.Context) methodBatches { return o.runKeyword(ctx, query, topK, filter) },
		func(ctx context.Context) methodBatches { return o.runSynonym(ctx, query, topK, filter) },
		func(ctx context.Context) methodBatches { return o.runVector(ctx, query, topK, filter) },
		func(ctx context.Context) methodBatches { return o.runSummary(ctx, query, topK, filter) },
		func(ctx context.Context) methodBatches { return o.runLLMExpand(ctx, query, topK, filter) },
	}

	results := make([]methodBatches, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task func(context.Context) methodBatches) {
			defer wg.Done()
			results[i] = task(ctx)
		}(i, task)
	}
	wg.Wait()

	// The keyword method is the baseline: its failure fails the request.
	if err := results[0].err; err != nil {
		return nil, nil, fmt.Errorf("keyword search failed: %w", err)
	}

	var batches []Batch
	var methods []domain.Method
	for _, r := range results {
		// Optional-backend errors degrade to method omission.
		if r.err != nil {
			continue
		}
		contributed := false
		for _, b := range r.batches {
			if len(b.Hits) > 0 {
				contributed = true
			}
			batches = append(batches, b)
		}
		if contributed {
			methods = append(methods, r.method)
		}
	}

	fused := Merge(batches, 0)

	if crossBatch := o.augmentFromGraph(ctx, query, topK, filter, fused); crossBatch != nil {
		batches = append(batches, *crossBatch)
		methods = append(methods, domain.MethodCrossRef)
		fused = Merge(batches, 0)
	}

	if len(fused) > topK {
		fused = fused[:topK]
	}
	return fused, methods, nil
}

func (o *Orchestrator) runKeyword(ctx context.Context, query string, topK int, filter domain.DocFilter) methodBatches {
	ctx, cancel := context.WithTimeout(ctx, o.opts.KeywordTimeout)
	defer cancel()

	hits, err := o.keyword.Search(ctx, query, topK, filter)
	if err != nil {
		return methodBatches{method: domain.MethodKeyword, err: err}
	}
	return methodBatches{
		method:  domain.MethodKeyword,
		batches: []Batch{{Hits: hits, Weight: o.opts.KeywordWeight, Normalize: true}},
	}
}

func (o *Orchestrator) runSynonym(ctx context.Context, query string, topK int, filter domain.DocFilter) methodBatches {
	out := methodBatches{method: domain.MethodSynonym}
	if o.expander == nil {
		return out
	}

	variants := o.expander.Synonyms(query)
	if len(variants) < 2 {
		return out
	}
	// index 0 is the verbatim query, already covered by the keyword step
	for _, variant := range variants[1:] {
		hits, err := o.searchKeywordTagged(ctx, variant, topK, filter, domain.MethodSynonym)
		if err != nil {
			continue
		}
		out.batches = append(out.batches, Batch{Hits: hits, Weight: o.opts.SynonymWeight, Normalize: true})
	}
	return out
}

func (o *Orchestrator) runVector(ctx context.Context, query string, topK int, filter domain.DocFilter) methodBatches {
	out := methodBatches{method: domain.MethodVector}
	if o.vector == nil {
		return out
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.BackendTimeout)
	defer cancel()

	hits, err := o.vector.Search(ctx, query, topK, filter)
	if err != nil {
		out.err = err
		return out
	}
	// Cosine scores are already bounded to [0,1].
	out.batches = []Batch{{Hits: hits, Weight: o.opts.VectorWeight, Normalize: false}}
	return out
}

func (o *Orchestrator) runSummary(ctx context.Context, query string, topK int, filter domain.DocFilter) methodBatches {
	out := methodBatches{method: domain.MethodSummary}
	if o.summary == nil {
		return out
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.BackendTimeout)
	defer cancel()

	hits, err := o.summary.Search(ctx, query, topK, filter)
	if err != nil {
		out.err = err
		return out
	}
	out.batches = []Batch{{Hits: hits, Weight: o.opts.SummaryWeight, Normalize: true}}
	return out
}

func (o *Orchestrator) runLLMExpand(ctx context.Context, query string, topK int, filter domain.DocFilter) methodBatches {
	out := methodBatches{method: domain.MethodLLMExpand}
	if !o.opts.LLMExpansion || o.expander == nil {
		return out
	}

	expandCtx, cancel := context.WithTimeout(ctx, o.opts.BackendTimeout)
	defer cancel()

	variants, err := o.expander.LLMExpand(expandCtx, query)
	if err != nil || len(variants) < 2 {
		// Expansion failure skips the step, never the request.
		return out
	}
	for _, variant := range variants[1:] {
		hits, err := o.searchKeywordTagged(ctx, variant, topK, filter, domain.MethodLLMExpand)
		if err != nil {
			continue
		}
		out.batches = append(out.batches, Batch{Hits: hits, Weight: o.opts.LLMExpandWeight, Normalize: true})
	}
	return out
}

// augmentFromGraph pulls in documents referenced by the current results
// (or by the filter's seed documents) that are not yet represented, and
// re-queries the keyword backend restricted to each. Returns nil when
// there is nothing to add.
func (o *Orchestrator) augmentFromGraph(ctx context.Context, query string, topK int, filter domain.DocFilter, fused []domain.FusedHit) *Batch {
	if o.graph == nil {
		return nil
	}

	present := make(map[string]struct{})
	for _, h := range fused {
		present[h.DocID] = struct{}{}
	}

	var seeds []string
	if len(filter) > 0 {
		seeds = filter
	} else {
		seeded := make(map[string]struct{})
		for _, h := range fused {
			if _, dup := seeded[h.DocID]; dup {
				continue
			}
			seeded[h.DocID] = struct{}{}
			seeds = append(seeds, h.DocID)
		}
	}

	var extra []string
	seen := make(map[string]struct{})
	for _, seed := range seeds {
		for _, neighbor := range o.graph.Neighbors(seed, xref.DirectionBoth, o.opts.HopDepth) {
			if _, already := present[neighbor]; already {
				continue
			}
			if _, dup := seen[neighbor]; dup {
				continue
			}
			seen[neighbor] = struct{}{}
			extra = append(extra, neighbor)
			if len(extra) == o.opts.CrossRefMaxDocs {
				break
			}
		}
		if len(extra) == o.opts.CrossRefMaxDocs {
			break
		}
	}
	if len(extra) == 0 {
		return nil
	}

	var hits []domain.SearchHit
	for _, docID := range extra {
		docHits, err := o.searchKeywordTagged(ctx, query, topK, domain.DocFilter{docID}, domain.MethodCrossRef)
		if err != nil {
			continue
		}
		hits = append(hits, docHits...)
	}
	if len(hits) == 0 {
		return nil
	}

	return &Batch{Hits: hits, Weight: o.opts.CrossRefWeight, Normalize: true}
}

// searchKeywordTagged runs the keyword backend under the optional-method
// timeout and re-tags the hits, for the methods that ride on keyword
// search (synonym, llm_expand, cross_ref).
func (o *Orchestrator) searchKeywordTagged(ctx context.Context, query string, topK int, filter domain.DocFilter, method domain.Method) ([]domain.SearchHit, error) {
	ctx, cancel := context.WithTimeout(ctx, o.opts.BackendTimeout)
	defer cancel()

	hits, err := o.keyword.Search(ctx, query, topK, filter)
	if err != nil {
		return nil, err
	}
	tagged := make([]domain.SearchHit, len(hits))
	for i, h := range hits {
		h.Method = method
		tagged[i] = h
	}
	return tagged, nil
}
