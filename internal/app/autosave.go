package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

func (h *Host) startAutosave() {
	h.stopAuto = make(chan struct{})
	h.autoDone = make(chan struct{})
	go h.autosave(h.opts.AutosaveInterval, h.stopAuto, h.autoDone)
}

func (h *Host) stopAutosave() {
	if h.stopAuto == nil {
		return
	}
	close(h.stopAuto)
	<-h.autoDone
	h.stopAuto = nil
	h.autoDone = nil
}

// autosave saves whenever the view changed since the last successful
// save. Refused saves are retried on the next tick.
func (h *Host) autosave(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	saved := h.view.Version()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			version := h.view.Version()
			if version == saved {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			res, err := h.Save(ctx)
			cancel()
			switch {
			case err != nil:
				h.logger.Warn("Autosave failed", zap.Error(err))
			case res.Saved:
				saved = version
			}
		}
	}
}
