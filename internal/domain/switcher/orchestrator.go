package switcher

import (
	"context"
	"fmt"
	"time"

	"github.com/GriffinCanCode/CueDeck/backend/internal/domain/session"
	"github.com/GriffinCanCode/CueDeck/backend/internal/logging"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
	"go.uber.org/zap"
)

// Profiles is the registry view the orchestrator needs
type Profiles interface {
	Exists(ctx context.Context, name string) (bool, error)
	UpdateLastUsed(ctx context.Context, name string) error
}

// Engine is the session side of a switch
type Engine interface {
	SwitchWithSave(ctx context.Context, target string) (session.SwitchResult, error)
}

// Reactivator reloads preferences and layout for a newly active profile
type Reactivator interface {
	Reactivate(ctx context.Context, profile string) error
}

// ReactivatorFunc adapts a function to Reactivator
type ReactivatorFunc func(ctx context.Context, profile string) error

// Reactivate calls f
func (f ReactivatorFunc) Reactivate(ctx context.Context, profile string) error {
	return f(ctx, profile)
}

// Result describes a completed switch
type Result struct {
	session.SwitchResult
	NoOp        bool          `json:"no_op"`
	Reactivated bool          `json:"reactivated"`
	Duration    time.Duration `json:"duration"`
}

// Orchestrator runs profile switches
type Orchestrator struct {
	profiles    Profiles
	engine      Engine
	active      session.ActiveProfile
	reactivator Reactivator
	logger      *logging.Logger
}

// New creates an orchestrator
func New(profiles Profiles, engine Engine, active session.ActiveProfile, reactivator Reactivator, logger *logging.Logger) *Orchestrator {
	return &Orchestrator{
		profiles:    profiles,
		engine:      engine,
		active:      active,
		reactivator: reactivator,
		logger:      logger.OrNop().Component("switcher"),
	}
}

// Switch makes target the active profile. The outgoing layout is saved
// to the outgoing profile before the pointer moves; a failed save does
// not stop the switch. Switching to the active profile does nothing.
func (o *Orchestrator) Switch(ctx context.Context, target string) (Result, error) {
	start := time.Now()
	current := o.active.Current()

	ok, err := o.profiles.Exists(ctx, target)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, fmt.Errorf("%w: profile %q", types.ErrNotFound, target)
	}
	if target == current {
		return Result{
			SwitchResult: session.SwitchResult{From: current, To: target, SaveSkipped: true},
			NoOp:         true,
		}, nil
	}

	swapped, err := o.engine.SwitchWithSave(ctx, target)
	if err != nil {
		return Result{}, err
	}
	res := Result{SwitchResult: swapped}
	log := o.logger.With(zap.String("from", swapped.From), zap.String("to", target))

	if err := o.profiles.UpdateLastUsed(ctx, target); err != nil {
		log.Warn("Failed to record last use", zap.Error(err))
	}

	if o.reactivator != nil {
		if err := o.reactivator.Reactivate(ctx, target); err != nil {
			res.Duration = time.Since(start)
			return res, fmt.Errorf("reactivate %q: %w", target, err)
		}
		res.Reactivated = true
	}

	res.Duration = time.Since(start)
	log.Info("Profile switch complete",
		zap.Bool("saved", res.Saved),
		zap.Duration("duration", res.Duration))
	return res, nil
}
