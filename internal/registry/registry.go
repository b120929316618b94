package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/matrix-engine/api/schemas"
)

// EnvTemplatePath names the environment variable that, when set, points
// directly at the event template catalogue and short-circuits all other path
// resolution.
const EnvTemplatePath = "MATRIX_EVENT_TEMPLATES"

// conventionalPaths are the relative locations tried (directly, then walking
// up through parent directories) when no explicit path is given. Two casing
// conventions survive from the platform's history.
var conventionalPaths = []string{
	filepath.Join("matrix", "schema", "event_templates.json"),
	filepath.Join("Matrix", "schema", "event_templates.json"),
}

// catalogue is the on-disk shape of the template resource.
type catalogue struct {
	EventTemplates []schemas.EventTemplate `json:"event_templates"`
}

// Registry holds the immutable event template catalogue. Construction never
// fails: a missing or unparsable resource is logged and leaves the registry
// empty, which downstream degrades to "no gaps ever detected" rather than a
// crash.
type Registry struct {
	log    *zap.Logger
	source string
	byID   map[string]*schemas.EventTemplate
	byName map[string]*schemas.EventTemplate
	all    []*schemas.EventTemplate
}

// New builds a registry from the resolved template resource. explicitPath,
// when non-empty, wins over the environment variable and the conventional
// search paths (it is the config-file equivalent of EnvTemplatePath).
func New(logger *zap.Logger, explicitPath string) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		log:    logger.Named("template_registry"),
		byID:   make(map[string]*schemas.EventTemplate),
		byName: make(map[string]*schemas.EventTemplate),
	}
	r.source = resolvePath(explicitPath)
	r.load()
	return r
}

// load reads and indexes the catalogue, degrading to empty on any failure.
func (r *Registry) load() {
	raw, err := os.ReadFile(r.source)
	if err != nil {
		r.log.Warn("Template catalogue unreadable, registry starts empty",
			zap.String("path", r.source), zap.Error(err))
		return
	}

	var cat catalogue
	if err := json.Unmarshal(raw, &cat); err != nil {
		r.log.Warn("Template catalogue unparsable, registry starts empty",
			zap.String("path", r.source), zap.Error(err))
		return
	}

	for i := range cat.EventTemplates {
		tmpl := &cat.EventTemplates[i]
		tmpl.Name = strings.ToUpper(tmpl.Name)

		// Conditions are parsed once here so grammar mistakes show up in
		// the load log instead of silently never firing at assess time.
		for j := range tmpl.Physics {
			rule := &tmpl.Physics[j]
			cond, err := schemas.ParseCondition(rule.Condition)
			if err != nil {
				r.log.Warn("Physics condition outside the supported grammar; rule will never fire",
					zap.String("template", tmpl.ID),
					zap.Int("rule", j),
					zap.String("condition", rule.Condition))
			}
			rule.Parsed = cond
		}

		r.byID[tmpl.ID] = tmpl
		r.byName[tmpl.Name] = tmpl
		r.all = append(r.all, tmpl)
	}

	r.log.Info("Event templates loaded",
		zap.String("path", r.source),
		zap.Int("templates", len(r.all)))
}

// ByID looks a template up by its catalogue id.
func (r *Registry) ByID(id string) (*schemas.EventTemplate, bool) {
	tmpl, ok := r.byID[id]
	return tmpl, ok
}

// ByEventType looks a template up by event type name. Matching is exact on
// the upper-cased type, mirroring how names are normalized at load.
func (r *Registry) ByEventType(typeName string) (*schemas.EventTemplate, bool) {
	tmpl, ok := r.byName[strings.ToUpper(typeName)]
	return tmpl, ok
}

// ForNode identifies the template governing a graph node: an explicit
// template_id property wins, then the node's type name. The second return is
// false when neither matches.
func (r *Registry) ForNode(node schemas.Node) (*schemas.EventTemplate, bool) {
	if id := node.Properties.String("template_id"); id != "" {
		if tmpl, ok := r.byID[id]; ok {
			return tmpl, true
		}
	}
	if node.Type != "" {
		return r.ByEventType(node.Type)
	}
	return nil, false
}

// Templates returns the loaded catalogue in file order.
func (r *Registry) Templates() []*schemas.EventTemplate {
	return r.all
}

// Len returns the number of loaded templates.
func (r *Registry) Len() int {
	return len(r.all)
}

// Source returns the path the registry loaded (or attempted to load) from.
func (r *Registry) Source() string {
	return r.source
}

// resolvePath picks the template resource location: explicit override, then
// the environment variable, then the conventional relative paths, then the
// same suffixes walked up through parent directories. When nothing exists
// the first conventional path is returned as a default, which load reports
// as unreadable and the registry stays empty.
func resolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if fromEnv := os.Getenv(EnvTemplatePath); fromEnv != "" {
		return fromEnv
	}

	for _, rel := range conventionalPaths {
		if fileExists(rel) {
			return rel
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		for dir := cwd; ; {
			for _, rel := range conventionalPaths {
				candidate := filepath.Join(dir, rel)
				if fileExists(candidate) {
					return candidate
				}
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	return conventionalPaths[0]
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// String implements fmt.Stringer for log-friendly registry summaries.
func (r *Registry) String() string {
	return fmt.Sprintf("Registry(%d templates from %s)", len(r.all), r.source)
}
