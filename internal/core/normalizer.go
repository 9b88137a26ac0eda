package core

import (
	"github.com/tidwall/gjson"
	"github.com/valter-silva-au/delegation-dashboard/pkg/models"
)

// ResponseNormalizer converts an arbitrarily shaped agent response into the
// canonical AgentResult. Implementations must be total: malformed input
// yields a zero result, never an error or a panic.
type ResponseNormalizer interface {
	Normalize(raw []byte) models.AgentResult
}

// probe is one candidate location for a field. The first probe whose
// extractor accepts the value wins. An innermostOnly probe is only tried in
// the first envelope present.
type probe struct {
	path          string
	accept        func(gjson.Result) bool
	innermostOnly bool
}

// Envelopes are searched in priority order; an empty path is the top level
// of the raw result object.
var envelopePaths = []string{"response.result", "response", ""}

var (
	summaryProbes = []probe{
		{path: "summary", accept: nonEmptyString},
		{path: "result.summary", accept: nonEmptyString},
		{path: "text", accept: nonEmptyString},
		// Outer envelopes carry transport status text under "message".
		{path: "message", accept: nonEmptyString, innermostOnly: true},
	}
	itemsProbes = []probe{
		{path: "items", accept: gjson.Result.IsArray},
		{path: "result.items", accept: gjson.Result.IsArray},
		{path: "tasks", accept: gjson.Result.IsArray},
	}
	statsProbes = []probe{
		{path: "data", accept: gjson.Result.IsObject},
		{path: "result.data", accept: gjson.Result.IsObject},
	}
)

// Stat keys, snake_case first. camelCase is accepted for agents that
// serialize with JavaScript conventions.
var (
	tasksProcessedKeys    = []string{"tasks_processed", "tasksProcessed"}
	teammatesNotifiedKeys = []string{"teammates_notified", "teammatesNotified"}
)

type gjsonNormalizer struct{}

// NewResponseNormalizer returns the default gjson-backed normalizer.
func NewResponseNormalizer() ResponseNormalizer {
	return gjsonNormalizer{}
}

// Normalize resolves summary, statistics and items independently. Each field
// walks the envelopes in order and, inside each envelope, its own probe list.
func (gjsonNormalizer) Normalize(raw []byte) models.AgentResult {
	result := models.AgentResult{Items: []models.TaskItem{}}
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return result
	}

	envelopes := resolveEnvelopes(gjson.ParseBytes(raw))
	if len(envelopes) == 0 {
		return result
	}

	if v, ok := firstMatch(envelopes, summaryProbes); ok {
		result.Summary = v.Str
	}
	if v, ok := firstMatch(envelopes, statsProbes); ok {
		result.Data = models.DelegationStats{
			TasksProcessed:    nonNegativeInt(v, tasksProcessedKeys),
			TeammatesNotified: nonNegativeInt(v, teammatesNotifiedKeys),
		}
	}
	if v, ok := firstMatch(envelopes, itemsProbes); ok {
		for _, el := range v.Array() {
			result.Items = append(result.Items, taskItemFrom(el))
		}
	}

	return result
}

func resolveEnvelopes(root gjson.Result) []gjson.Result {
	var out []gjson.Result
	for _, path := range envelopePaths {
		env := root
		if path != "" {
			env = root.Get(path)
		}
		if env.IsObject() {
			out = append(out, env)
		}
	}
	return out
}

func firstMatch(envelopes []gjson.Result, probes []probe) (gjson.Result, bool) {
	for i, env := range envelopes {
		for _, p := range probes {
			if p.innermostOnly && i > 0 {
				continue
			}
			v := env.Get(p.path)
			if v.Exists() && p.accept(v) {
				return v, true
			}
		}
	}
	return gjson.Result{}, false
}

func taskItemFrom(el gjson.Result) models.TaskItem {
	if !el.IsObject() {
		return models.TaskItem{}
	}
	return models.TaskItem{
		Title:        scalarString(el.Get("title")),
		Description:  scalarString(el.Get("description")),
		Priority:     scalarString(el.Get("priority")),
		Assignee:     scalarString(el.Get("assignee")),
		SlackStatus:  scalarString(el.Get("slack_status")),
		EmailSubject: scalarString(el.Get("email_subject")),
		EmailFrom:    scalarString(el.Get("email_from")),
		Timestamp:    scalarString(el.Get("timestamp")),
	}
}

func nonEmptyString(v gjson.Result) bool {
	return v.Type == gjson.String && v.Str != ""
}

// scalarString renders strings, numbers and booleans; objects, arrays and
// null become the empty string.
func scalarString(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number, gjson.True, gjson.False:
		return v.Raw
	default:
		return ""
	}
}

func nonNegativeInt(obj gjson.Result, keys []string) int {
	for _, k := range keys {
		v := obj.Get(k)
		if v.Type != gjson.Number && v.Type != gjson.String {
			continue
		}
		n := v.Int()
		if n < 0 {
			return 0
		}
		return int(n)
	}
	return 0
}
