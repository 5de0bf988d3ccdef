package cli

import (
	"context"
)

// startWatchers follows the diary snapshot and the PIN state so the prompt
// stays current. They stop when the hubs close or ctx ends.
func (a *App) startWatchers(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	a.stopWatch = cancel

	diary := a.diary.GetDiary()
	pins := a.pins.Watch()

	a.watchers.Add(2)
	go func() {
		defer a.watchers.Done()
		defer diary.Close()
		for {
			select {
			case d, ok := <-diary.C():
				if !ok {
					return
				}
				a.entryCount.Store(int64(len(d.Entries)))
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		defer a.watchers.Done()
		defer pins.Close()
		for {
			select {
			case set, ok := <-pins.C():
				if !ok {
					return
				}
				a.pinSet.Store(set)
			case <-ctx.Done():
				return
			}
		}
	}()
}
