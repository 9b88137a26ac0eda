package cli

import (
	"github.com/valter-silva-au/delegation-dashboard/internal/core"
	"github.com/valter-silva-au/delegation-dashboard/internal/observability"
)

// Service instances, set during app initialization in app.go.
var (
	Dash     *core.Dashboard
	Keywords []string
	Channel  string
)

// Observability service instances. Any of them may be nil when the event
// log could not be opened or notifications are disabled.
var (
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
)
