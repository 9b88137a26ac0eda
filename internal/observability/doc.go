// Package observability records dashboard activity as JSON Lines events and
// derives metrics and alerts from them on demand. Alerts and run summaries
// can be posted to a Slack webhook.
package observability
