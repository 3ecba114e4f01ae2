// Package manager owns the live ensembles: it restores deployed stacks from
// storage on startup, serves predictions from them and retrains them in the
// background when new training data arrives.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"meld/internal/blueprint"
	"meld/internal/cache"
	"meld/internal/database"
	"meld/internal/dataset"
	"meld/internal/learner"
	"meld/internal/logging"
	"meld/internal/metrics"
	"meld/internal/stack"
	"meld/internal/store"
)

// Contract for returning the Manager instance
type ProvideFn func(shutdownCh chan<- error) (Manager, error)

// The interface defines the behavior of the background service.
type Manager interface {
	TrainPredictor
	// Start method of the service
	Run(context.Context) error
	// Method for stopping the service
	Stop()
}

// ErrNotDeployed marks a predict request against a stack that has no
// deployed snapshot.
var ErrNotDeployed = errors.New("stack is not deployed")

// Trainer accepts training data and queues a background refit.
type Trainer interface {
	Train(req TrainRequest) error
}

// Predictor serves predictions from the deployed stacks.
type Predictor interface {
	Predict(ctx context.Context, stackName string, vec dataset.Vector) (learner.Prediction, error)
}

// Aggregation interface for Trainer and Predictor interfaces
type TrainPredictor interface {
	Trainer
	Predictor
}

// TrainRequest is one queued refit: the full training table and target for
// a named blueprint.
type TrainRequest struct {
	Stack  string
	Table  *dataset.Table
	Target dataset.Column
}

type Options struct {
	queueSize int
}

type Option func(*manager)

func WithQueueSize(n int) Option {
	return func(m *manager) {
		m.opts.queueSize = n
	}
}

// WithCache enables the prediction cache.
func WithCache(c *cache.Cache) Option {
	return func(m *manager) {
		m.cache = c
	}
}

const defaultQueueSize = 8

// deployment is one live stack plus the input layout it was trained on.
type deployment struct {
	fitted   *stack.Fitted
	features []string
}

type manager struct {
	mtx sync.RWMutex

	// Manager options
	opts Options
	// Parsed blueprints, keyed by stack name
	defs map[string]*blueprint.Definition
	// Snapshot storage
	snapshots *store.DB
	// Optional prediction cache
	cache *cache.Cache

	// Queue of pending refits
	trainCh chan TrainRequest
	// Channel to shutdown the application
	shutDownCh chan<- error

	// Deployed stacks, keyed by stack name
	deployed map[string]*deployment

	closed bool
	cancel func()
}

// New return manager
func New(
	db *database.DB,
	defs map[string]*blueprint.Definition,
	shutdownCh chan<- error,
	opts ...Option,
) (*manager, error) {
	if db == nil {
		return nil, fmt.Errorf("database instance is not created")
	}
	if defs == nil {
		return nil, fmt.Errorf("no blueprints loaded")
	}

	m := &manager{
		defs:       defs,
		snapshots:  store.New(db),
		shutDownCh: shutdownCh,
		deployed:   map[string]*deployment{},
	}
	for _, f := range opts {
		f(m)
	}
	if m.opts.queueSize <= 0 {
		m.opts.queueSize = defaultQueueSize
	}
	m.trainCh = make(chan TrainRequest, m.opts.queueSize)

	return m, nil
}

// The Run method restores persisted stacks and starts the refit loop.
func (m *manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	if err := m.bulkLoad(ctx); err != nil {
		return fmt.Errorf("can not start stack manager: %w", err)
	}

	go m.trainer(ctx)

	return nil
}

// Stop the manager
func (m *manager) Stop() {
	m.cancel()
}

// bulkLoad restores the latest snapshot of every stored stack into memory.
func (m *manager) bulkLoad(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	keys, err := m.snapshots.Keys()
	if err != nil {
		return fmt.Errorf("error fetching stack keys: %w", err)
	}

	for _, name := range keys {
		data, err := m.snapshots.Latest(ctx, name)
		if err != nil {
			return fmt.Errorf("error fetching snapshot of %q: %w", name, err)
		}
		snap, err := blueprint.Unmarshal(data)
		if err != nil {
			return fmt.Errorf("error decoding snapshot of %q: %w", name, err)
		}
		fitted, err := snap.Restore()
		if err != nil {
			return fmt.Errorf("error restoring stack %q: %w", name, err)
		}
		m.deployed[name] = &deployment{fitted: fitted, features: snap.Features}
		logger.Infof("restored stack %q, snapshot %s", name, snap.ID)
	}

	return nil
}

// Train queues a refit of the named stack.
func (m *manager) Train(req TrainRequest) error {
	m.mtx.RLock()
	if m.closed {
		m.mtx.RUnlock()
		return fmt.Errorf("error send to train, shutting down")
	}
	m.mtx.RUnlock()

	if _, ok := m.defs[req.Stack]; !ok {
		return fmt.Errorf("unknown stack %q", req.Stack)
	}
	if req.Table == nil || req.Table.NumRows() == 0 {
		return fmt.Errorf("train request for %q carries no rows", req.Stack)
	}
	if req.Table.NumRows() != req.Target.Len() {
		return fmt.Errorf("train request for %q: %d rows but %d targets",
			req.Stack, req.Table.NumRows(), req.Target.Len())
	}

	select {
	case m.trainCh <- req:
		return nil
	default:
		return fmt.Errorf("train queue is full")
	}
}

func (m *manager) trainer(ctx context.Context) {
	logger := logging.FromContext(ctx)
	for {
		select {
		case req := <-m.trainCh:
			if err := m.process(ctx, req); err != nil {
				logger.Errorf("unable to refit stack %q: %v", req.Stack, err)
			}
		case <-ctx.Done():
			m.mtx.Lock()
			m.closed = true
			m.mtx.Unlock()
			m.shutDownCh <- m.drain()
			return
		}
	}
}

// drain finishes the refits that were already queued when shutdown began.
func (m *manager) drain() error {
	for {
		select {
		case req := <-m.trainCh:
			if err := m.process(context.Background(), req); err != nil {
				return fmt.Errorf("manager shutdown: unable to refit stack %q: %w", req.Stack, err)
			}
		default:
			return nil
		}
	}
}

// process runs one refit end to end: fit, snapshot, persist, swap.
func (m *manager) process(ctx context.Context, req TrainRequest) error {
	logger := logging.FromContext(ctx)

	def := m.defs[req.Stack]
	st, err := def.Build()
	if err != nil {
		return fmt.Errorf("build stack: %w", err)
	}
	for _, warning := range st.Warnings() {
		logger.Warnf("stack %q: %s", req.Stack, warning)
	}

	started := time.Now()
	fitted, err := st.Fit(ctx, req.Table, req.Target)
	metrics.RecordFit(ctx, req.Stack, time.Since(started), err)
	if err != nil {
		return fmt.Errorf("fit: %w", err)
	}

	snap, err := blueprint.TakeSnapshot(def, req.Table.Columns(), fitted)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	data, err := snap.Marshal()
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := m.snapshots.Save(ctx, req.Stack, snap.ID, data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	m.mtx.Lock()
	m.deployed[req.Stack] = &deployment{fitted: fitted, features: req.Table.Columns()}
	m.mtx.Unlock()

	logger.Infof("refitted stack %q on %d rows, snapshot %s, took %s",
		req.Stack, req.Table.NumRows(), snap.ID, time.Since(started))
	return nil
}

// Predict scores one vector against the named deployed stack.
func (m *manager) Predict(ctx context.Context, stackName string, vec dataset.Vector) (learner.Prediction, error) {
	m.mtx.RLock()
	if m.closed {
		m.mtx.RUnlock()
		return nil, fmt.Errorf("error to predict, shutting down")
	}
	dep, ok := m.deployed[stackName]
	m.mtx.RUnlock()
	if !ok {
		return nil, fmt.Errorf("stack %q: %w", stackName, ErrNotDeployed)
	}
	if len(vec) != len(dep.features) {
		return nil, fmt.Errorf("stack %q expects %d features, got %d",
			stackName, len(dep.features), len(vec))
	}

	key, err := m.cacheKey(dep, vec)
	if err == nil && key != "" {
		if entry, err := m.cache.Get(ctx, key); err == nil && entry != nil {
			if pred, err := entry.Prediction(); err == nil {
				metrics.RecordCacheHit(ctx, stackName)
				return pred, nil
			}
		}
	}

	X, err := dataset.NewTable(dep.features, []dataset.Vector{vec})
	if err != nil {
		return nil, err
	}

	started := time.Now()
	pred, err := dep.fitted.Predict(X)
	if err != nil {
		return nil, err
	}
	metrics.RecordPredict(ctx, stackName, time.Since(started))

	if key != "" {
		if entry, err := cache.EncodePrediction(pred, 0); err == nil {
			if err := m.cache.Set(ctx, key, entry); err != nil {
				logging.FromContext(ctx).Debugf("cache set failed: %v", err)
			}
		}
	}

	return pred, nil
}

func (m *manager) cacheKey(dep *deployment, vec dataset.Vector) (string, error) {
	if m.cache == nil {
		return "", nil
	}
	return cache.Key(dep.fitted.ID().String(), vec)
}
