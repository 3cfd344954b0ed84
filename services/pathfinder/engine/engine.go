// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package engine implements the bidirectional shortest-path search over
// the article link graph.
//
// Two frontiers grow toward each other, one following outgoing links
// from the start article and one following backlinks from the end
// article. Each step expands the smaller frontier, which keeps the
// total number of visited nodes near the geometric minimum. A path
// exists the moment a node appears in both directions' parent maps.
//
// The engine owns the ceilings that make the search terminate: a hop
// limit per direction, a visited-node budget, a step budget, and the
// watchdog's soft and hard deadlines. Every search ends with exactly
// one of PathFound, NoPathFound, or TimedOut on its event stream.
package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wikipath/wikipath/pkg/logging"
	"github.com/wikipath/wikipath/services/pathfinder/datatypes"
	"github.com/wikipath/wikipath/services/pathfinder/norm"
	"github.com/wikipath/wikipath/services/pathfinder/person"
	"github.com/wikipath/wikipath/services/pathfinder/watchdog"
)

const (
	// defaultMaxHops bounds the depth of one direction's frontier;
	// combined, the two directions cover paths up to twice this long.
	defaultMaxHops = 6

	// defaultMaxNodes caps the combined size of both parent maps.
	defaultMaxNodes = 3000

	// defaultMaxSteps caps expansion batches across the whole search.
	defaultMaxSteps = 200

	// defaultLevelBatch is how many frontier nodes expand concurrently
	// in one step.
	defaultLevelBatch = 20

	// defaultMaxDegree caps the verified children one node may
	// contribute to the next frontier.
	defaultMaxDegree = 25

	// defaultMaxCandidates caps how many plausible titles per node are
	// sent to category verification.
	defaultMaxCandidates = 150
)

// LinkFetcher resolves a node's raw neighbor titles. *fetch.Fetcher
// satisfies it.
type LinkFetcher interface {
	Candidates(ctx context.Context, title string, dir datatypes.Direction) ([]string, error)
}

// HumanVerifier narrows plausible candidates to confirmed people.
// *person.Verifier satisfies it.
type HumanVerifier interface {
	FilterHumans(ctx context.Context, titles []string) []string
}

// Config tunes a search. Zero values select the defaults above and the
// watchdog's default budgets.
type Config struct {
	MaxHops       int
	MaxNodes      int
	MaxSteps      int
	LevelBatch    int
	MaxDegree     int
	MaxCandidates int

	SoftBudget time.Duration
	HardBudget time.Duration

	Logger *logging.Logger

	// Rand shuffles candidates before the verification cap, so repeat
	// searches on hub pages explore different slices of the link set.
	// Nil selects a time-seeded source.
	Rand *rand.Rand
}

func (c Config) withDefaults() Config {
	if c.MaxHops <= 0 {
		c.MaxHops = defaultMaxHops
	}
	if c.MaxNodes <= 0 {
		c.MaxNodes = defaultMaxNodes
	}
	if c.MaxSteps <= 0 {
		c.MaxSteps = defaultMaxSteps
	}
	if c.LevelBatch <= 0 {
		c.LevelBatch = defaultLevelBatch
	}
	if c.MaxDegree <= 0 {
		c.MaxDegree = defaultMaxDegree
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = defaultMaxCandidates
	}
	if c.SoftBudget <= 0 {
		c.SoftBudget = watchdog.DefaultSoftBudget
	}
	if c.HardBudget <= 0 {
		c.HardBudget = watchdog.DefaultHardBudget
	}
	if c.Logger == nil {
		c.Logger = logging.Discard()
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return c
}

// Engine runs bidirectional searches. Safe for concurrent use except
// for the shared Rand, which each Search guards internally.
type Engine struct {
	fetcher  LinkFetcher
	verifier HumanVerifier
	cfg      Config
	randMu   sync.Mutex
}

// New creates an Engine.
func New(fetcher LinkFetcher, verifier HumanVerifier, cfg Config) *Engine {
	return &Engine{fetcher: fetcher, verifier: verifier, cfg: cfg.withDefaults()}
}

// Search starts a search and returns its event stream. The stream is
// finite: it always ends with a terminal event carrying the Result, and
// is then closed. Cancelling ctx abandons the search; the stream still
// terminates.
func (e *Engine) Search(ctx context.Context, start, end string) <-chan datatypes.ProgressEvent {
	events := make(chan datatypes.ProgressEvent, 16)
	go func() {
		defer close(events)
		s := newSearch(e, ctx, start, end, events)
		defer s.cancel()
		s.run()
	}()
	return events
}

// noParent marks frontier seeds in the parent maps.
const noParent = norm.PageKey("")

type search struct {
	engine *Engine
	cfg    Config

	start, end string
	startKey   norm.PageKey
	endKey     norm.PageKey

	wd      *watchdog.Watchdog
	hardCtx context.Context
	softCtx context.Context
	cancel  context.CancelFunc

	// Parent maps double as visited sets. Seeds map to noParent.
	parentF map[norm.PageKey]norm.PageKey
	parentB map[norm.PageKey]norm.PageKey

	// display remembers the first-seen spelling of every key so the
	// final path carries real article titles.
	display map[norm.PageKey]string

	levelF, levelB []norm.PageKey
	depthF, depthB int

	steps    int
	expanded int

	events chan<- datatypes.ProgressEvent
}

func newSearch(e *Engine, ctx context.Context, start, end string, events chan<- datatypes.ProgressEvent) *search {
	cfg := e.cfg
	wd := watchdog.New(cfg.SoftBudget, cfg.HardBudget)
	hardCtx, hardCancel := wd.HardContext(ctx)
	softCtx, softCancel := context.WithDeadline(hardCtx, time.Now().Add(cfg.SoftBudget))

	startKey, endKey := norm.Key(start), norm.Key(end)

	// The start spelling wins when both endpoints normalize to one key.
	display := map[norm.PageKey]string{startKey: norm.Clean(start)}
	if _, ok := display[endKey]; !ok {
		display[endKey] = norm.Clean(end)
	}

	s := &search{
		engine:   e,
		cfg:      cfg,
		start:    start,
		end:      end,
		startKey: startKey,
		endKey:   endKey,
		wd:       wd,
		hardCtx:  hardCtx,
		softCtx:  softCtx,
		cancel: func() {
			softCancel()
			hardCancel()
		},
		parentF: map[norm.PageKey]norm.PageKey{startKey: noParent},
		parentB: map[norm.PageKey]norm.PageKey{endKey: noParent},
		display: display,
		levelF:  []norm.PageKey{startKey},
		levelB:  []norm.PageKey{endKey},
		events:  events,
	}
	return s
}

func (s *search) run() {
	log := s.cfg.Logger
	log.Info("search started", "start", s.start, "end", s.end)

	s.emit(datatypes.ProgressEvent{
		Type:    datatypes.EventInfo,
		Message: "Searching: " + s.start + " <-> " + s.end,
		Stats:   s.stats(0),
	})

	if s.startKey == s.endKey {
		s.finish(datatypes.Result{
			Outcome: datatypes.PathFound,
			Path:    []string{s.display[s.startKey]},
			Stats:   *s.stats(0),
		})
		return
	}

	for len(s.levelF) > 0 && len(s.levelB) > 0 {
		if s.wd.Expired(watchdog.Hard) || s.hardCtx.Err() != nil {
			s.timedOut("hard deadline reached during frontier expansion")
			return
		}
		if visited := len(s.parentF) + len(s.parentB); visited > s.cfg.MaxNodes {
			s.noPath("visited-node budget exhausted")
			return
		}
		if s.steps > s.cfg.MaxSteps {
			s.noPath("step budget exhausted")
			return
		}

		dir, ok := s.chooseDirection()
		if !ok {
			s.noPath("hop limit reached in both directions")
			return
		}

		meet, done := s.expandLevel(dir)
		if done {
			if meet != noParent {
				s.finish(datatypes.Result{
					Outcome: datatypes.PathFound,
					Path:    s.reconstruct(meet),
					Stats:   *s.stats(0),
				})
			}
			return
		}
	}

	// An expired deadline drains frontiers through failed expansions;
	// report that as a timeout, not as graph exhaustion.
	if s.wd.Expired(watchdog.Hard) {
		s.timedOut("hard deadline reached during frontier expansion")
		return
	}
	if s.hardCtx.Err() != nil {
		s.timedOut("search cancelled")
		return
	}
	s.noPath("frontier exhausted without intersection")
}

// chooseDirection picks the smaller eligible frontier; ties go forward.
// A direction at its hop limit is ineligible.
func (s *search) chooseDirection() (datatypes.Direction, bool) {
	fOK := s.depthF < s.cfg.MaxHops
	bOK := s.depthB < s.cfg.MaxHops
	switch {
	case fOK && bOK:
		if len(s.levelF) <= len(s.levelB) {
			return datatypes.Forward, true
		}
		return datatypes.Backward, true
	case fOK:
		return datatypes.Forward, true
	case bOK:
		return datatypes.Backward, true
	default:
		return datatypes.Forward, false
	}
}

type expansion struct {
	node      norm.PageKey
	children  []string
	raw       int
	plausible int
	failed    bool
}

// expandLevel processes one full frontier level in concurrent chunks
// and merges results into the owning parent map. It returns the meeting
// key and done=true on intersection, (noParent, true) when a terminal
// condition was already emitted, and (noParent, false) to continue.
func (s *search) expandLevel(dir datatypes.Direction) (norm.PageKey, bool) {
	level, parentOwn, parentOther := s.levelF, s.parentF, s.parentB
	if dir == datatypes.Backward {
		level, parentOwn, parentOther = s.levelB, s.parentB, s.parentF
	}

	var next []norm.PageKey
	for chunkStart := 0; chunkStart < len(level); chunkStart += s.cfg.LevelBatch {
		if s.wd.Expired(watchdog.Hard) || s.hardCtx.Err() != nil {
			s.timedOut("hard deadline reached during frontier expansion")
			return noParent, true
		}
		s.steps++
		if s.steps > s.cfg.MaxSteps {
			s.noPath("step budget exhausted")
			return noParent, true
		}

		chunk := level[chunkStart:min(chunkStart+s.cfg.LevelBatch, len(level))]
		results := s.expandChunk(chunk, dir)

		// Single-owner merge: only this goroutine touches the parent
		// maps, so intersection checks are race-free.
		for _, exp := range results {
			if exp.failed {
				continue
			}
			s.expanded++
			s.emit(datatypes.ProgressEvent{
				Type:      datatypes.EventExploring,
				Direction: dir.String(),
				Node:      s.display[exp.node],
				RawLinks:  exp.raw,
				Plausible: exp.plausible,
				Verified:  len(exp.children),
				Stats:     s.stats(0),
			})

			for _, child := range exp.children {
				key := norm.Key(child)
				if _, seen := parentOwn[key]; seen {
					continue
				}
				parentOwn[key] = exp.node
				if _, ok := s.display[key]; !ok {
					s.display[key] = child
				}
				next = append(next, key)

				if _, met := parentOther[key]; met {
					return key, true
				}
			}
		}
	}

	if dir == datatypes.Forward {
		s.levelF = next
		s.depthF++
	} else {
		s.levelB = next
		s.depthB++
	}
	return noParent, false
}

// expandChunk runs the fetch/filter/verify pipeline for a chunk of
// nodes concurrently. Workers never fail the group; a node whose fetch
// was cancelled or errored is marked failed and contributes nothing.
func (s *search) expandChunk(chunk []norm.PageKey, dir datatypes.Direction) []expansion {
	results := make([]expansion, len(chunk))
	g, ctx := errgroup.WithContext(s.hardCtx)
	for i, node := range chunk {
		g.Go(func() error {
			results[i] = s.expandNode(ctx, node, dir)
			return nil
		})
	}
	g.Wait()
	return results
}

func (s *search) expandNode(ctx context.Context, node norm.PageKey, dir datatypes.Direction) expansion {
	title := s.display[node]

	raw, err := s.engine.fetcher.Candidates(ctx, title, dir)
	if err != nil {
		s.cfg.Logger.Warn("node expansion abandoned",
			"node", title,
			"direction", dir.String(),
			"error", err.Error(),
		)
		return expansion{node: node, failed: true}
	}

	plausible := person.FilterPlausible(raw)
	s.shuffle(plausible)
	if len(plausible) > s.cfg.MaxCandidates {
		plausible = plausible[:s.cfg.MaxCandidates]
	}

	humans := s.engine.verifier.FilterHumans(s.softCtx, plausible)
	if len(humans) > s.cfg.MaxDegree {
		humans = humans[:s.cfg.MaxDegree]
	}

	return expansion{
		node:      node,
		children:  humans,
		raw:       len(raw),
		plausible: len(plausible),
	}
}

func (s *search) shuffle(titles []string) {
	s.engine.randMu.Lock()
	defer s.engine.randMu.Unlock()
	s.cfg.Rand.Shuffle(len(titles), func(i, j int) {
		titles[i], titles[j] = titles[j], titles[i]
	})
}

// reconstruct walks both parent maps from the meeting key and joins the
// two half-paths into a start-to-end title chain.
func (s *search) reconstruct(meet norm.PageKey) []string {
	var forward []norm.PageKey
	for key := meet; key != noParent; key = s.parentF[key] {
		forward = append(forward, key)
	}
	// forward is meet..start; reverse it.
	for i, j := 0, len(forward)-1; i < j; i, j = i+1, j-1 {
		forward[i], forward[j] = forward[j], forward[i]
	}

	keys := forward
	for key := s.parentB[meet]; key != noParent; key = s.parentB[key] {
		keys = append(keys, key)
	}

	path := make([]string, len(keys))
	for i, key := range keys {
		path[i] = s.display[key]
	}
	return path
}

func (s *search) stats(hops int) *datatypes.Stats {
	elapsed := s.wd.Elapsed()
	return &datatypes.Stats{
		Visited:   len(s.parentF) + len(s.parentB),
		Expanded:  s.expanded,
		Hops:      hops,
		Elapsed:   elapsed,
		ElapsedMs: elapsed.Milliseconds(),
	}
}

func (s *search) finish(result datatypes.Result) {
	if result.Outcome == datatypes.PathFound {
		result.Stats.Hops = len(result.Path) - 1
	}
	s.cfg.Logger.Info("search finished",
		"outcome", string(result.Outcome),
		"hops", result.Stats.Hops,
		"visited", result.Stats.Visited,
		"elapsed_ms", result.Stats.ElapsedMs,
	)
	s.emit(datatypes.ProgressEvent{
		Type:   terminalEventType(result.Outcome),
		Result: &result,
		Stats:  &result.Stats,
	})
}

func (s *search) noPath(reason string) {
	s.finish(datatypes.Result{
		Outcome: datatypes.NoPathFound,
		Reason:  reason,
		Stats:   *s.stats(0),
	})
}

func (s *search) timedOut(reason string) {
	s.finish(datatypes.Result{
		Outcome: datatypes.TimedOut,
		Reason:  reason,
		Stats:   *s.stats(0),
	})
}

func terminalEventType(outcome datatypes.Outcome) datatypes.EventType {
	switch outcome {
	case datatypes.PathFound:
		return datatypes.EventFinished
	case datatypes.TimedOut:
		return datatypes.EventTimeout
	default:
		return datatypes.EventNotFound
	}
}

// emit delivers an event to the stream. Progress events are dropped
// when the consumer lags behind the buffer; the terminal event waits
// for delivery so the stream contract holds, with a cap so an
// abandoned consumer cannot pin the goroutine forever.
func (s *search) emit(event datatypes.ProgressEvent) {
	if event.Terminal() {
		select {
		case s.events <- event:
		case <-time.After(5 * time.Second):
			s.cfg.Logger.Warn("terminal event dropped, consumer gone")
		}
		return
	}
	select {
	case s.events <- event:
	default:
	}
}
