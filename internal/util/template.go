// Package util holds small internal helpers shared by reply builders.
package util

import (
	"fmt"
	"strings"
	"text/template"
)

var replyFuncs = template.FuncMap{
	"code": codeList,
}

// RenderTemplate renders a reply template against data. Text without
// template actions is returned as is; missing keys are errors.
func RenderTemplate(text string, data any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}
	tmpl, err := template.New("reply").Funcs(replyFuncs).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse reply template: %w", err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render reply template: %w", err)
	}
	return sb.String(), nil
}

// codeList renders items as a comma separated list of inline code spans.
func codeList(items []string) string {
	spans := make([]string, len(items))
	for i, item := range items {
		spans[i] = "`" + item + "`"
	}
	return strings.Join(spans, ", ")
}
