package service

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	capturedto "worklens/internal/modules/capture/dto"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.New("prompts").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	ParseFS(promptFS, "prompts/*.tmpl"))

type shortPrompt struct {
	WindowSeconds       int
	Narrative           string
	Totals              capturedto.Counts
	Previous            []string
	ScreenshotAvailable bool
}

type mediumPrompt struct {
	WindowSeconds int
	FullSeconds   int
	Narrative     string
	Totals        capturedto.Counts
	Recent        []string
	LatestSpecial string
}

type sessionPrompt struct {
	SessionSeconds float64
	Granularity    string
	Analyses       []string
	CustomPrompt   string
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return buf.String(), nil
}

func renderPair(base string, data any) (system, user string, err error) {
	if system, err = render(base+"_system.tmpl", data); err != nil {
		return "", "", err
	}
	if user, err = render(base+"_user.tmpl", data); err != nil {
		return "", "", err
	}
	return system, user, nil
}
