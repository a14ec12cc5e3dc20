package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/joeblew999/plat-style/internal/mapstyle"
)

var (
	// ErrNoInputStyle is returned when committing without a staged style.
	ErrNoInputStyle = errors.New("no input style staged")
	// ErrInputStyleInvalid is returned when the staged style failed to load
	// or its URL is not a valid style URL.
	ErrInputStyleInvalid = errors.New("input style cannot be committed")
)

// StyleLoader downloads style documents.
type StyleLoader interface {
	Load(ctx context.Context, reqs []mapstyle.LoadRequest) (map[string]mapstyle.LoadedStyle, error)
	LoadOne(ctx context.Context, rawURL string) (*mapstyle.Document, error)
}

// MapStyleService owns the map style state. Every intent is applied under
// one lock; the downloads it asks for run in the background and come back
// as their own intents.
type MapStyleService struct {
	dataDir string
	loader  StyleLoader
	bus     *EventBus

	mu      sync.RWMutex
	state   mapstyle.State
	lastErr error

	ctx     context.Context
	cancel  context.CancelFunc
	pending sync.WaitGroup
}

// NewMapStyleService creates a service with the initial state. An empty
// dataDir disables persistence.
func NewMapStyleService(dataDir string, l StyleLoader, bus *EventBus) *MapStyleService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MapStyleService{
		dataDir: dataDir,
		loader:  l,
		bus:     bus,
		state:   mapstyle.NewState(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Init applies the mount configuration, then restores the config saved in
// the data directory, if any.
func (s *MapStyleService) Init(cfg mapstyle.InitConfig) mapstyle.State {
	saved, ok := s.loadFromDisk()
	st := s.apply("mapstyle", func(st mapstyle.State) (mapstyle.State, []mapstyle.LoadTask) {
		return st.Init(cfg)
	})
	if !ok {
		return st
	}
	return s.ReceiveSavedConfig(saved)
}

// State returns the current state.
func (s *MapStyleService) State() mapstyle.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// ChangeStyle selects a registered style. A style that is still loading
// stays unselected.
func (s *MapStyleService) ChangeStyle(id string) (mapstyle.State, error) {
	return s.tryApply("mapstyle", func(st mapstyle.State) (mapstyle.State, []mapstyle.LoadTask, error) {
		if _, ok := st.MapStyles[id]; !ok {
			return st, nil, fmt.Errorf("%w: %q", mapstyle.ErrStyleNotFound, id)
		}
		return st.StyleChange(id), nil, nil
	})
}

// ChangeConfig merges a partial config.
func (s *MapStyleService) ChangeConfig(c mapstyle.ConfigChange) mapstyle.State {
	return s.apply("mapstyle", func(st mapstyle.State) (mapstyle.State, []mapstyle.LoadTask) {
		return st.ConfigChange(c), nil
	})
}

// ChangeVisibility merges layer group toggles into the current bottom and
// top visibility. fn receives the maps held by the state and must not
// modify them; nil results leave a map unchanged.
func (s *MapStyleService) ChangeVisibility(fn func(visible, top mapstyle.VisibilityMap) (mapstyle.VisibilityMap, mapstyle.VisibilityMap)) mapstyle.State {
	return s.apply("mapstyle", func(st mapstyle.State) (mapstyle.State, []mapstyle.LoadTask) {
		visible, top := fn(st.VisibleLayerGroups, st.TopLayerGroups)
		return st.ConfigChange(mapstyle.ConfigChange{VisibleLayerGroups: visible, TopLayerGroups: top}), nil
	})
}

// Reset restores the defaults.
func (s *MapStyleService) Reset() mapstyle.State {
	return s.apply("mapstyle", func(st mapstyle.State) (mapstyle.State, []mapstyle.LoadTask) {
		return st.ResetToDefaults(), nil
	})
}

// ReceiveSavedConfig restores a saved config and downloads its styles.
func (s *MapStyleService) ReceiveSavedConfig(cfg mapstyle.SavedConfig) mapstyle.State {
	return s.apply("mapstyle", func(st mapstyle.State) (mapstyle.State, []mapstyle.LoadTask) {
		return st.ReceiveSavedConfig(cfg)
	})
}

// EditInputStyle updates the custom style dialog. When the edit changes the
// URL to a valid one the document is loaded in the background.
func (s *MapStyleService) EditInputStyle(e mapstyle.InputStyleEdit) mapstyle.State {
	var changed bool
	st := s.apply("input", func(st mapstyle.State) (mapstyle.State, []mapstyle.LoadTask) {
		changed = e.URL != nil && *e.URL != st.InputStyle.URL
		return st.InputStyleEdited(e), nil
	})
	if !changed {
		return st
	}
	if req, ok := st.InputLoadRequest(); ok {
		s.loadInput(req)
	}
	return st
}

// ResolveInputStyle stages a document that was obtained elsewhere, such as
// an upload.
func (s *MapStyleService) ResolveInputStyle(r mapstyle.InputStyleResult) mapstyle.State {
	return s.apply("input", func(st mapstyle.State) (mapstyle.State, []mapstyle.LoadTask) {
		return st.InputStyleResolved(r), nil
	})
}

// CommitCustomStyle registers the staged style and selects it. It fails
// when nothing is staged or the staged style is not committable.
func (s *MapStyleService) CommitCustomStyle() (mapstyle.State, error) {
	return s.tryApply("mapstyle", func(st mapstyle.State) (mapstyle.State, []mapstyle.LoadTask, error) {
		in := st.InputStyle
		switch {
		case in.ID == "":
			return st, nil, ErrNoInputStyle
		case in.Error != "":
			return st, nil, fmt.Errorf("%w: %s", ErrInputStyleInvalid, in.Error)
		case !in.Committable():
			return st, nil, fmt.Errorf("%w: invalid style url %q", ErrInputStyleInvalid, in.URL)
		}
		return st.CommitCustomStyle(), nil, nil
	})
}

// Export returns the persisted form of the current state.
func (s *MapStyleService) Export() mapstyle.SavedConfig {
	return s.State().Export()
}

// LastLoadError returns the error of the most recent failed download batch.
func (s *MapStyleService) LastLoadError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Wait blocks until every download started so far has been applied.
func (s *MapStyleService) Wait() {
	s.pending.Wait()
}

// Close cancels outstanding downloads and waits for them to finish.
func (s *MapStyleService) Close() {
	s.cancel()
	s.pending.Wait()
}

// apply runs one updater atomically, persists the result, starts the
// returned load tasks and notifies subscribers.
func (s *MapStyleService) apply(resource string, fn func(mapstyle.State) (mapstyle.State, []mapstyle.LoadTask)) mapstyle.State {
	return s.applyAction(resource, ActionChanged, fn)
}

// tryApply is apply for updaters that can refuse. On error nothing is
// stored, saved or published.
func (s *MapStyleService) tryApply(resource string, fn func(mapstyle.State) (mapstyle.State, []mapstyle.LoadTask, error)) (mapstyle.State, error) {
	var err error
	st := s.update(resource, ActionChanged, func(st mapstyle.State) (mapstyle.State, []mapstyle.LoadTask, bool) {
		var tasks []mapstyle.LoadTask
		st, tasks, err = fn(st)
		return st, tasks, err == nil
	})
	if err != nil {
		return mapstyle.State{}, err
	}
	return st, nil
}

func (s *MapStyleService) applyAction(resource, action string, fn func(mapstyle.State) (mapstyle.State, []mapstyle.LoadTask)) mapstyle.State {
	return s.update(resource, action, func(st mapstyle.State) (mapstyle.State, []mapstyle.LoadTask, bool) {
		next, tasks := fn(st)
		return next, tasks, true
	})
}

// update runs fn under the lock. When fn reports no change the state is
// neither saved nor published.
func (s *MapStyleService) update(resource, action string, fn func(mapstyle.State) (mapstyle.State, []mapstyle.LoadTask, bool)) mapstyle.State {
	s.mu.Lock()
	next, tasks, ok := fn(s.state)
	if !ok {
		s.mu.Unlock()
		return next
	}
	s.state = next
	if err := s.saveToDisk(next); err != nil {
		log.Printf("mapstyle: save config: %v", err)
	}
	s.mu.Unlock()

	for _, task := range tasks {
		s.load(task)
	}
	s.bus.Publish(Event{Resource: resource, Action: action, ID: next.StyleType})
	return next
}

// load runs a download batch and applies its outcome.
func (s *MapStyleService) load(task mapstyle.LoadTask) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		loaded, err := s.loader.Load(s.ctx, task.Requests)
		if err != nil {
			s.loadFailed(err)
			return
		}

		log.Printf("mapstyle: loaded %d style(s)", len(loaded))
		s.applyAction("mapstyle", ActionLoaded, func(st mapstyle.State) (mapstyle.State, []mapstyle.LoadTask) {
			return st.StylesLoaded(task.Resolve(loaded)), nil
		})
	}()
}

func (s *MapStyleService) loadFailed(err error) {
	log.Printf("mapstyle: load failed: %v", err)

	s.mu.Lock()
	s.state = s.state.StylesLoadFailed(err)
	s.lastErr = err
	id := s.state.StyleType
	s.mu.Unlock()

	s.bus.Publish(Event{Resource: "mapstyle", Action: ActionLoadFailed, ID: id, Err: err.Error()})
}

// loadInput downloads the staged URL and stages the result.
func (s *MapStyleService) loadInput(req mapstyle.LoadRequest) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		doc, err := s.loader.LoadOne(s.ctx, req.URL)
		if err != nil {
			log.Printf("mapstyle: load input style %s: %v", req.ID, err)
		}
		// The URL may have been edited again while this one was loading.
		stale := false
		st := s.update("input", ActionChanged, func(st mapstyle.State) (mapstyle.State, []mapstyle.LoadTask, bool) {
			if st.InputStyle.URL != req.ID {
				stale = true
				return st, nil, false
			}
			return st.InputStyleResolved(mapstyle.InputStyleResult{Style: doc, Error: err}), nil, true
		})
		if err != nil && !stale {
			s.bus.Publish(Event{Resource: "input", Action: ActionLoadFailed, ID: st.StyleType, Err: err.Error()})
		}
	}()
}

// configFile returns the path to the saved map style config.
func (s *MapStyleService) configFile() string {
	return filepath.Join(s.dataDir, "mapstyle.json")
}

// loadFromDisk reads the saved config. A missing or invalid file is ignored.
func (s *MapStyleService) loadFromDisk() (mapstyle.SavedConfig, bool) {
	if s.dataDir == "" {
		return mapstyle.SavedConfig{}, false
	}
	data, err := os.ReadFile(s.configFile())
	if err != nil {
		return mapstyle.SavedConfig{}, false
	}

	var cfg mapstyle.SavedConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Printf("mapstyle: ignoring %s: %v", s.configFile(), err)
		return mapstyle.SavedConfig{}, false
	}
	return cfg, cfg.MapStyle != nil
}

// saveToDisk persists the exported state.
func (s *MapStyleService) saveToDisk(st mapstyle.State) error {
	if s.dataDir == "" {
		return nil
	}
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(st.Export(), "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.configFile(), data, 0644)
}
