// Package format renders classified alerts into chat messages.
//
// Each category maps to a Template; all templates share one layout so every
// message carries the banner, header, asset and time lines in the same place.
package format

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"signal-relay/internal/classify"
)

const (
	// Banner opens every message.
	Banner = "🚀 *FOGUETE TURBO V7* 📈"

	bodyLimit     = 100
	fallbackLimit = 200
	ellipsis      = "..."
	clockLayout   = "15:04:05"
)

var (
	// ErrNoTemplate is returned for a category without a template.
	ErrNoTemplate = errors.New("format: no template for category")
	// ErrRender wraps template execution failures.
	ErrRender = errors.New("format: render failed")
)

// Fields are the extracted values shown in a message.
type Fields struct {
	Ticker    string
	Strength  string
	Price     string
	Timeframe string
	Details   string
}

// Input is everything the formatter needs for one alert.
type Input struct {
	Category classify.Category
	Fields   Fields
	Raw      string
}

const layout = `{{.Banner}}

{{.Emoji}} *{{.Header}}*
📈 Ativo: *{{.Ticker}}*
⏰ Horário: *{{.Clock}}*
{{- if .Price}}
💲 Preço: *{{.Price}}*{{end}}
{{- if .Timeframe}}
📅 TF: *{{.Timeframe}}*{{end}}
{{- if .ShowStrength}}
💪 Força: *{{.Strength}}*{{end}}
{{- if .Strategy}}
🎯 Estratégia: {{.Strategy}}{{end}}
{{- if .Body}}

{{.Body}}{{end}}
{{- if .Details}}

📝 Detalhes: {{.Details}}{{end}}

{{.Tags}}`

type view struct {
	Banner       string
	Emoji        string
	Header       string
	Ticker       string
	Clock        string
	Price        string
	Timeframe    string
	ShowStrength bool
	Strength     string
	Strategy     string
	Body         string
	Details      string
	Tags         string
}

// Formatter renders alerts with a fixed clock zone.
type Formatter struct {
	loc       *time.Location
	templates map[classify.Category]Template
	tmpl      *template.Template
}

// New creates a Formatter using the default template table. A nil location
// means UTC.
func New(loc *time.Location) *Formatter {
	return NewWithTemplates(loc, Templates)
}

// NewWithTemplates creates a Formatter with a custom template table.
func NewWithTemplates(loc *time.Location, templates map[classify.Category]Template) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{
		loc:       loc,
		templates: templates,
		tmpl:      template.Must(template.New("alert").Option("missingkey=error").Parse(layout)),
	}
}

// Location returns the zone used for timestamps.
func (f *Formatter) Location() *time.Location { return f.loc }

// Clock formats now as time of day in the formatter's zone.
func (f *Formatter) Clock(now time.Time) string {
	return now.In(f.loc).Format(clockLayout)
}

// Format renders in with the template registered for its category.
// Errors are ErrNoTemplate or ErrRender; callers fall back to Fallback.
func (f *Formatter) Format(in Input, now time.Time) (string, error) {
	t, ok := f.templates[in.Category]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoTemplate, in.Category)
	}

	v := view{
		Banner:       Banner,
		Emoji:        t.Emoji,
		Header:       t.Header,
		Ticker:       plain(in.Fields.Ticker),
		Clock:        f.Clock(now),
		Price:        plain(in.Fields.Price),
		Timeframe:    plain(in.Fields.Timeframe),
		ShowStrength: t.ShowStrength,
		Strength:     plain(in.Fields.Strength),
		Strategy:     t.Strategy,
		Details:      escapeMarkdown(in.Fields.Details),
		Tags:         strings.Join(t.Tags, " "),
	}
	if t.ShowRaw {
		body, cut := truncate(in.Raw, bodyLimit)
		if cut {
			body += ellipsis
		}
		v.Body = escapeMarkdown(body)
	}

	var buf bytes.Buffer
	if err := f.tmpl.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	return buf.String(), nil
}

// Fallback is the degraded message used when Format fails. It only does
// string work on its inputs and cannot fail.
func (f *Formatter) Fallback(raw string, now time.Time) string {
	body, _ := truncate(raw, fallbackLimit)
	return "🚀 FOGUETE TURBO V7\n\n" + escapeMarkdown(body) + "\n\n⏰ " + f.Clock(now)
}

// TestMessage is sent by the /test endpoint to confirm the bot is wired.
func (f *Formatter) TestMessage(now time.Time) string {
	local := now.In(f.loc)
	return "🚀 *TESTE - FOGUETE TURBO V7* ✅\n\n" +
		"🎯 *Bot funcionando perfeitamente!*\n" +
		"📱 Telegram: *Conectado*\n" +
		"🌐 Webhook: *Ativo*\n" +
		"⏰ Horário: *" + local.Format(clockLayout) + "*\n" +
		"📅 Data: *" + local.Format("02/01/2006") + "*\n\n" +
		"💡 *Pronto para receber alertas do TradingView!*\n\n" +
		"#Teste #BotOnline #FogueteTurbo"
}

// truncate cuts s to at most n runes and reports whether it cut anything.
func truncate(s string, n int) (string, bool) {
	r := []rune(s)
	if len(r) <= n {
		return s, false
	}
	return string(r[:n]), true
}

// escapeMarkdown escapes the characters Telegram's legacy Markdown treats
// as entity markers.
func escapeMarkdown(s string) string {
	specials := []byte{'_', '*', '`', '['}
	var buf bytes.Buffer
	for i := 0; i < len(s); i++ {
		for _, sp := range specials {
			if s[i] == sp {
				buf.WriteByte('\\')
				break
			}
		}
		buf.WriteByte(s[i])
	}
	return buf.String()
}

// plain strips entity markers from values rendered inside *bold* spans,
// where legacy Markdown does not allow escapes.
func plain(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '*', '`', '[':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
