// Package engine wires the graph, vector, history, transaction, query, and
// integrity components into a single open/close handle — the entry point
// every caller (CLI, embedding application, test) uses instead of assembling
// the components by hand.
package engine

import (
	"log"
	"time"

	"github.com/mnemograph/mnemograph/pkg/config"
	"github.com/mnemograph/mnemograph/pkg/graph"
	"github.com/mnemograph/mnemograph/pkg/history"
	"github.com/mnemograph/mnemograph/pkg/integrity"
	"github.com/mnemograph/mnemograph/pkg/kv"
	"github.com/mnemograph/mnemograph/pkg/query"
	"github.com/mnemograph/mnemograph/pkg/txn"
	"github.com/mnemograph/mnemograph/pkg/vectorindex"
)

// Engine is an open instance of the memory store.
type Engine struct {
	cfg *config.Config

	KV      *kv.Store
	Graph   *graph.Store
	Vector  *vectorindex.Store
	History *history.Store
	Txn     *txn.Manager
	Query   *query.Engine

	stopGC chan struct{}
}

// Open validates cfg and opens every component against a single shared
// Badger database.
func Open(cfg *config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := kv.Open(kv.Options{
		Path:       cfg.DataDir,
		InMemory:   cfg.InMemory,
		SyncWrites: cfg.SyncWrites,
		LowMemory:  cfg.LowMemory,
	})
	if err != nil {
		return nil, err
	}

	g := graph.New(store)
	v := vectorindex.New(store, cfg.EmbeddingDimension)
	h := history.New(store)

	e := &Engine{
		cfg:     cfg,
		KV:      store,
		Graph:   g,
		Vector:  v,
		History: h,
		Txn:     txn.New(store, v),
		Query:   query.New(g, v, h),
	}

	if cfg.GCInterval > 0 {
		e.stopGC = make(chan struct{})
		go e.runGCLoop(cfg.GCInterval, cfg.GCDiscardRatio)
	}

	log.Printf("engine: opened namespace %q at %q", cfg.Namespace, cfg.DataDir)
	return e, nil
}

func (e *Engine) runGCLoop(interval time.Duration, discardRatio float64) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := e.KV.RunGC(discardRatio); err != nil {
				log.Printf("engine: background GC pass failed: %v", err)
			}
		case <-e.stopGC:
			return
		}
	}
}

// ValidateIntegrity runs a full consistency scan over the persisted state.
func (e *Engine) ValidateIntegrity() (*integrity.Report, error) {
	return integrity.Validate(e.KV, e.Graph, e.Vector, e.History)
}

// Stats reports current store sizes.
func (e *Engine) Stats() (txn.Stats, error) {
	return e.Txn.Stats(e.Graph)
}

// Close stops the background GC loop (if running) and closes the
// underlying store.
func (e *Engine) Close() error {
	if e.stopGC != nil {
		close(e.stopGC)
	}
	return e.KV.Close()
}
