package skill

import (
	"embed"
	"log"
	"strings"
	"text/template"

	"github.com/private-assistant/iot-state-skill/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// FallbackAnswer goes out whenever no template is registered for the
// requested action. A broken template set must never crash a request.
const FallbackAnswer = "Sorry, I couldn't process your request"

// Composer renders query parameters into the spoken answer. Templates are
// looked up by action name so wording can change without touching the
// pipeline.
type Composer struct {
	actionTemplates map[model.Action]*template.Template
}

// NewComposer parses the embedded template for every known action. A missing
// or unparsable template is logged and left unregistered; requests for that
// action degrade to the fallback answer.
func NewComposer() *Composer {
	c := &Composer{actionTemplates: make(map[model.Action]*template.Template)}
	funcs := template.FuncMap{"join": strings.Join}
	for _, action := range []model.Action{model.ActionStateQuery} {
		name := string(action) + ".tmpl"
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/"+name)
		if err != nil {
			log.Printf("composer: failed to load template for action %s: %v", action, err)
			continue
		}
		c.actionTemplates[action] = tmpl
	}
	return c
}

// ComposeAnswer renders params with the template registered for its action.
func (c *Composer) ComposeAnswer(params model.Parameters) string {
	tmpl, ok := c.actionTemplates[params.Action]
	if !ok {
		log.Printf("composer: no template found for action %q", params.Action)
		return FallbackAnswer
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, params); err != nil {
		log.Printf("composer: render error for action %q: %v", params.Action, err)
		return FallbackAnswer
	}
	return sb.String()
}
