package prompt

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
)

type Name string

const (
	Intent           Name = "intent"
	ValidateEmail    Name = "validate_email"
	SupportQuery     Name = "support_query"
	Urgency          Name = "urgency"
	GenerateResponse Name = "generate_response"
	ExtractEmail     Name = "extract_email"
)

var (
	//go:embed template/*.tmpl
	templateFS embed.FS

	//go:embed template/system.txt
	systemRaw string

	templates = template.Must(template.New("prompts").
			Funcs(template.FuncMap{"deref": deref}).
			ParseFS(templateFS, "template/*.tmpl"))
)

type IntentData struct {
	Query      string
	CustomerID *int
}

type EmailData struct {
	Email string
}

type QueryData struct {
	Query string
}

// SupportQueryData carries pre-rendered JSON blocks for the support prompt.
type SupportQueryData struct {
	Query           string
	CustomerContext string
	TicketContext   string
	TicketCount     int
}

type ResponseData struct {
	Query   string
	Context string
}

// System returns the system instruction shared by every chat call. It is
// brace-free so it can sit in an FString chat template.
func System() string {
	return strings.TrimSpace(systemRaw)
}

// Render executes the named template. Safe for concurrent use.
func Render(name Name, data any) (string, error) {
	t := templates.Lookup(string(name) + ".tmpl")
	if t == nil {
		return "", fmt.Errorf("%w: %s", contractx.ErrPromptMissing, name)
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(b.String()), nil
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
