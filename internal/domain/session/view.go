package session

import (
	"context"
	"errors"

	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
)

// ErrRestoreInProgress is returned when Load is called while another
// restoration holds the lock.
var ErrRestoreInProgress = errors.New("session restore in progress")

// ViewSource reads the live layout
type ViewSource interface {
	GetAssignments(kind types.Kind) []types.TabAssignment
}

// ViewSink writes a restored layout into the view
type ViewSink interface {
	// HasKind reports whether the view has mounted this kind at all.
	HasKind(kind types.Kind) bool
	// HasTab reports whether the tab's view element exists yet.
	HasTab(kind types.Kind, tab int) bool
	ApplyAssignments(kind types.Kind, tabs []types.TabAssignment) error
}

// Catalog validates item IDs. ok is false when the item does not exist;
// err is reserved for lookups that could not be answered.
type Catalog interface {
	Lookup(ctx context.Context, id string) (item types.Item, ok bool, err error)
}

// ActiveProfile is the process-wide active profile pointer
type ActiveProfile interface {
	Current() string
	Set(name string)
}

// Recorder receives persistence outcomes
type Recorder interface {
	RecordSave(result string)
	RecordLoad(result string)
	RecordBackupFailure()
	SetRestoring(restoring bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordSave(string)    {}
func (nopRecorder) RecordLoad(string)    {}
func (nopRecorder) RecordBackupFailure() {}
func (nopRecorder) SetRestoring(bool)    {}
