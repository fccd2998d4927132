package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/GriffinCanCode/CueDeck/backend/internal/logging"
	"github.com/GriffinCanCode/CueDeck/backend/internal/providers/filesystem"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/paths"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
	"go.uber.org/zap"
)

const (
	// StateFilePerm is the mode of state.json and its backup
	StateFilePerm = 0o644

	// QuitTimeout bounds the quit save when the host configures none
	QuitTimeout = 5 * time.Second
)

// Load outcome reasons reported in LoadResult.Reason
const (
	ReasonRestored     = "restored"
	ReasonNoDirectory  = "profile directory missing"
	ReasonNoState      = "no saved state"
	ReasonUnreadable   = "state unreadable"
	ReasonMalformed    = "state file malformed"
	ReasonEmpty        = "saved state is empty"
	ReasonNoActiveName = "no active profile"
)

// SaveResult describes one save attempt
type SaveResult struct {
	Saved    bool   `json:"saved"`
	Refused  bool   `json:"refused"`
	Profile  string `json:"profile,omitempty"`
	Path     string `json:"path,omitempty"`
	BackedUp bool   `json:"backed_up"`
	Bytes    int    `json:"bytes"`
}

// LoadResult describes one restore attempt
type LoadResult struct {
	Loaded       bool          `json:"loaded"`
	Profile      string        `json:"profile"`
	Reason       string        `json:"reason"`
	Reports      []ApplyReport `json:"reports,omitempty"`
	SkippedKinds []types.Kind  `json:"skipped_kinds,omitempty"`
}

// SwitchResult describes the save half of a profile switch
type SwitchResult struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Saved       bool   `json:"saved"`
	SaveSkipped bool   `json:"save_skipped"`
	SaveError   string `json:"save_error,omitempty"`
}

// Engine persists and restores the session layout of the active profile.
// Writes are serialized by writeMu, and the Idle to Restoring transition
// happens under the same mutex, so a save never interleaves with the
// start of a restore.
type Engine struct {
	layout  paths.Layout
	active  ActiveProfile
	source  ViewSource
	codec   *Codec
	lock    RestorationLock
	writeMu sync.Mutex
	logger  *logging.Logger
	metrics Recorder
}

// NewEngine creates an engine bound to the live view source
func NewEngine(layout paths.Layout, active ActiveProfile, source ViewSource, codec *Codec, logger *logging.Logger) *Engine {
	logger = logger.OrNop()
	if codec == nil {
		codec = NewCodec(logger, 0)
	}
	return &Engine{
		layout:  layout,
		active:  active,
		source:  source,
		codec:   codec,
		logger:  logger.Component("session"),
		metrics: nopRecorder{},
	}
}

// WithRecorder attaches a metrics recorder
func (e *Engine) WithRecorder(r Recorder) *Engine {
	if r != nil {
		e.metrics = r
	}
	return e
}

// IsRestoring reports whether saves are currently refused
func (e *Engine) IsRestoring() bool {
	return e.lock.IsRestoring()
}

// LockState returns the restoration lock state
func (e *Engine) LockState() LockState {
	return e.lock.State()
}

// Unlock ends a restoration. Unlocking an idle engine is a logged no-op.
func (e *Engine) Unlock() bool {
	was, held := e.lock.Release()
	if !was {
		e.logger.Debug("Unlock requested while idle")
		return false
	}
	e.metrics.SetRestoring(false)
	e.logger.Info("Restoration lock released", zap.Duration("held", held))
	return true
}

// Save writes the live layout to the active profile's state file. While
// a restoration is in progress it returns a refused result without
// touching the filesystem.
func (e *Engine) Save(ctx context.Context) (SaveResult, error) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if e.lock.IsRestoring() {
		e.metrics.RecordSave("refused")
		e.logger.Debug("Save refused during restoration")
		return SaveResult{Refused: true}, nil
	}

	name := e.active.Current()
	if name == "" {
		e.metrics.RecordSave("error")
		return SaveResult{}, fmt.Errorf("%w: no active profile", types.ErrValidation)
	}

	state := e.codec.Extract(e.source)
	res, err := e.writeState(ctx, name, state)
	if err != nil {
		e.metrics.RecordSave("error")
		return res, err
	}
	e.metrics.RecordSave("saved")
	return res, nil
}

// SaveOnQuit performs the final save before exit. The layout is extracted
// synchronously; the write is bounded by ctx. A write still in flight
// when ctx expires finishes in the background while holding writeMu.
func (e *Engine) SaveOnQuit(ctx context.Context) (SaveResult, error) {
	if err := ctx.Err(); err != nil {
		e.metrics.RecordSave("error")
		return SaveResult{}, fmt.Errorf("quit save: %w", err)
	}
	e.writeMu.Lock()

	if e.lock.IsRestoring() {
		e.writeMu.Unlock()
		e.metrics.RecordSave("refused")
		e.logger.Info("Quit save skipped during restoration")
		return SaveResult{Refused: true}, nil
	}

	name := e.active.Current()
	if name == "" {
		e.writeMu.Unlock()
		e.metrics.RecordSave("error")
		return SaveResult{}, fmt.Errorf("%w: no active profile", types.ErrValidation)
	}
	state := e.codec.Extract(e.source)

	type outcome struct {
		res SaveResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer e.writeMu.Unlock()
		res, err := e.writeState(context.WithoutCancel(ctx), name, state)
		done <- outcome{res, err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			e.metrics.RecordSave("error")
			return out.res, out.err
		}
		e.metrics.RecordSave("saved")
		e.logger.Info("Quit save complete", zap.String("profile", name), zap.Int("bytes", out.res.Bytes))
		return out.res, nil
	case <-ctx.Done():
		e.metrics.RecordSave("error")
		e.logger.Warn("Quit save timed out", zap.String("profile", name))
		return SaveResult{Profile: name}, fmt.Errorf("quit save for %q: %w", name, ctx.Err())
	}
}

// SwitchWithSave saves the layout into the current profile, then moves
// the active pointer to target. The pointer moves even if the save fails.
func (e *Engine) SwitchWithSave(ctx context.Context, target string) (SwitchResult, error) {
	if target == "" {
		return SwitchResult{}, fmt.Errorf("%w: switch target is empty", types.ErrValidation)
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	from := e.active.Current()
	res := SwitchResult{From: from, To: target}
	log := e.logger.With(zap.String("from", from), zap.String("to", target))

	switch {
	case e.lock.IsRestoring():
		res.SaveSkipped = true
		e.metrics.RecordSave("refused")
		log.Info("Skipping pre-switch save during restoration")
	case from == "":
		res.SaveSkipped = true
	default:
		state := e.codec.Extract(e.source)
		if _, err := e.writeState(ctx, from, state); err != nil {
			res.SaveError = err.Error()
			e.metrics.RecordSave("error")
			log.Error("Pre-switch save failed", zap.Error(err))
		} else {
			res.Saved = true
			e.metrics.RecordSave("saved")
		}
	}

	e.active.Set(target)
	log.Info("Active profile switched", zap.Bool("saved", res.Saved))
	return res, nil
}

// Load restores the active profile's saved layout into sink. It enters
// Restoring first; every outcome other than a successful restore returns
// the lock to Idle. After a successful restore the lock stays held until
// Unlock.
func (e *Engine) Load(ctx context.Context, sink ViewSink, catalog Catalog) (LoadResult, error) {
	return e.load(ctx, sink, catalog, false)
}

// Reload is Load for a profile switch. A restoration that still holds
// the lock is superseded and this restore takes over its ownership, so
// the lock never drops to Idle in between. Callers must not run Reload
// concurrently with Load.
func (e *Engine) Reload(ctx context.Context, sink ViewSink, catalog Catalog) (LoadResult, error) {
	return e.load(ctx, sink, catalog, true)
}

// Hold enters Restoring without loading anything, refusing saves until
// Unlock. It returns false if the lock is already held.
func (e *Engine) Hold() bool {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	if !e.lock.TryAcquire() {
		return false
	}
	e.metrics.SetRestoring(true)
	e.logger.Warn("Saves held until unlock")
	return true
}

func (e *Engine) load(ctx context.Context, sink ViewSink, catalog Catalog, takeover bool) (LoadResult, error) {
	e.writeMu.Lock()
	if takeover && e.lock.IsRestoring() {
		_, held := e.lock.Release()
		e.logger.Info("Superseding restoration in progress", zap.Duration("held", held))
	}
	if !e.lock.TryAcquire() {
		e.writeMu.Unlock()
		e.metrics.RecordLoad("busy")
		return LoadResult{}, ErrRestoreInProgress
	}
	name := e.active.Current()
	e.writeMu.Unlock()
	e.metrics.SetRestoring(true)

	res, err := e.restore(ctx, name, sink, catalog)
	if err != nil || !res.Loaded {
		e.Unlock()
	}
	switch {
	case err != nil:
		e.metrics.RecordLoad("error")
	case res.Loaded:
		e.metrics.RecordLoad("restored")
	case res.Reason == ReasonMalformed || res.Reason == ReasonUnreadable:
		e.metrics.RecordLoad("malformed")
	case res.Reason == ReasonEmpty:
		e.metrics.RecordLoad("empty")
	default:
		e.metrics.RecordLoad("missing")
	}
	return res, err
}

func (e *Engine) restore(ctx context.Context, name string, sink ViewSink, catalog Catalog) (LoadResult, error) {
	res := LoadResult{Profile: name}
	if name == "" {
		res.Reason = ReasonNoActiveName
		return res, nil
	}
	log := e.logger.ForProfile(name)
	if !paths.HasDirName(name) {
		res.Reason = ReasonNoDirectory
		log.Warn("Profile name maps to no directory, starting with an empty layout")
		return res, nil
	}

	ok, err := filesystem.DirExists(e.layout.ProfileDir(name))
	if err != nil {
		res.Reason = ReasonUnreadable
		log.Warn("Profile directory unreadable, starting with an empty layout", zap.Error(err))
		return res, nil
	}
	if !ok {
		res.Reason = ReasonNoDirectory
		log.Info("No profile directory, starting with an empty layout")
		return res, nil
	}

	data, err := os.ReadFile(e.layout.StateFile(name))
	if errors.Is(err, fs.ErrNotExist) {
		res.Reason = ReasonNoState
		log.Info("No saved session state")
		return res, nil
	}
	if err != nil {
		res.Reason = ReasonUnreadable
		log.Warn("Session state unreadable", zap.Error(err))
		return res, nil
	}

	state, err := decodeState(data)
	if err != nil {
		res.Reason = ReasonMalformed
		log.Warn("Session state malformed, ignoring", zap.Error(err))
		return res, nil
	}
	if state.IsEmpty() {
		res.Reason = ReasonEmpty
		return res, nil
	}

	for _, kind := range types.Kinds() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !sink.HasKind(kind) {
			res.SkippedKinds = append(res.SkippedKinds, kind)
			log.Debug("Kind not mounted, skipping", zap.String("kind", string(kind)))
			continue
		}
		report, err := e.codec.Apply(ctx, kind, state, sink, catalog)
		if err != nil {
			return res, fmt.Errorf("apply %s: %w", kind, err)
		}
		res.Reports = append(res.Reports, report)
	}

	res.Loaded = true
	res.Reason = ReasonRestored
	log.Info("Session state restored",
		zap.Int("items", state.ItemCount()),
		zap.Int("skipped_kinds", len(res.SkippedKinds)))
	return res, nil
}

// decodeState parses a state payload. Anything other than a JSON object
// is rejected; missing collections become empty.
func decodeState(data []byte) (*types.SessionState, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: state payload is not an object", types.ErrFormat)
	}
	var state types.SessionState
	if err := filesystem.UnmarshalJSON(trimmed, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrFormat, err)
	}
	state.Normalize()
	return &state, nil
}

// writeState persists state for exactly the named profile. The caller
// holds writeMu. A previous state file is copied to the backup path
// first; backup failures are logged and do not stop the write.
func (e *Engine) writeState(ctx context.Context, profileName string, state *types.SessionState) (SaveResult, error) {
	res := SaveResult{Profile: profileName, Path: e.layout.StateFile(profileName)}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	if !paths.HasDirName(profileName) {
		return res, fmt.Errorf("%w: profile %q has no usable directory name", types.ErrValidation, profileName)
	}
	log := e.logger.ForProfile(profileName)

	if err := os.MkdirAll(e.layout.ProfileDir(profileName), filesystem.DirPerm); err != nil {
		return res, fmt.Errorf("create profile directory: %w", err)
	}

	data, err := filesystem.MarshalJSON(state)
	if err != nil {
		return res, fmt.Errorf("encode session state: %w", err)
	}

	res.BackedUp = e.backup(profileName, log)

	if err := filesystem.WriteFileAtomic(res.Path, data, StateFilePerm); err != nil {
		return res, fmt.Errorf("write session state: %w", err)
	}
	res.Saved = true
	res.Bytes = len(data)
	log.Debug("Session state saved", zap.Int("bytes", res.Bytes), zap.Bool("backed_up", res.BackedUp))
	return res, nil
}

func (e *Engine) backup(profileName string, log *logging.Logger) bool {
	prev, err := os.ReadFile(e.layout.StateFile(profileName))
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	if err == nil {
		err = filesystem.WriteFileAtomic(e.layout.BackupFile(profileName), prev, StateFilePerm)
	}
	if err != nil {
		e.metrics.RecordBackupFailure()
		log.Warn("Session state backup failed", zap.Error(err))
		return false
	}
	return true
}

// PeekState reads the named profile's saved state without applying it
func (e *Engine) PeekState(profileName string) (*types.SessionState, error) {
	data, err := os.ReadFile(e.layout.StateFile(profileName))
	if err != nil {
		return nil, err
	}
	return decodeState(data)
}
