package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	htmpl "html/template"
	"strings"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// Template names understood by the email worker.
const (
	Welcome            = "welcome"
	PasswordChanged    = "password_changed"
	AccountDeactivated = "account_deactivated"
)

// EmailData defines the fields the universal template understands.
type EmailData struct {
	Name           string `json:"Name"`
	Email          string `json:"Email"`
	Type           string `json:"Type"`
	CompanyName    string `json:"CompanyName"`
	AppName        string `json:"AppName"`
	SupportURL     string `json:"SupportURL"`
	LoginURL       string `json:"LoginURL"`
	UnsubscribeURL string `json:"UnsubscribeURL"`
	Time           string `json:"Time"`
}

// ToMap converts EmailData to a map[string]any for EmailJob.Data
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

var funcMap = htmpl.FuncMap{
	"now":   func() time.Time { return time.Now().UTC() },
	"upper": strings.ToUpper,
	"default": func(fallback, value string) string {
		if strings.TrimSpace(value) == "" {
			return fallback
		}
		return value
	},
}

// RenderHTML renders <name>.html.tmpl from the embedded FS.
func RenderHTML(name string, data any) (string, error) {
	filename := name + ".html.tmpl"
	tpl, err := htmpl.New(filename).Funcs(funcMap).ParseFS(FS, filename)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SubjectFor picks the subject line for a universal-template job.
func SubjectFor(data map[string]any) string {
	t, _ := data["Type"].(string)
	switch strings.ToLower(t) {
	case Welcome:
		return "Welcome aboard"
	case PasswordChanged:
		return "Your password was changed"
	case AccountDeactivated:
		return "Your account was deactivated"
	default:
		return "Notification"
	}
}
