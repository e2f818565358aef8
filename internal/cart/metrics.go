package cart

import "context"

type metricsRecorder interface {
	IncMutation(action string)
	SetItems(scope string, count int)
	IncStorageReset()
}

// MetricsObserver feeds cart notifications into m.
func MetricsObserver(m metricsRecorder) Observer {
	return ObserverFunc(func(_ context.Context, ev Event) {
		if ev.Action == ActionReset {
			m.IncStorageReset()
		}
		m.IncMutation(string(ev.Action))
		m.SetItems(ev.Scope, ev.TotalCount)
	})
}
