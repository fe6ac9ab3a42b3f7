// internal/service/template.go
package service

import (
	"regexp"
	"strings"

	"github.com/leadflow/automation/internal/model"
)

var placeholderPattern = regexp.MustCompile(`\{[a-z_]+\}`)

// RenderTemplate substitutes {token} placeholders from data. Tokens with
// no value render as an empty string rather than failing the message.
func RenderTemplate(template string, data map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(tok string) string {
		return data[strings.Trim(tok, "{}")]
	})
}

// LeadFields builds the placeholder values for one lead. The contact name
// splits on the first space: everything before is {first_name}, everything
// after is {last_name}.
func LeadFields(lead *model.Lead) map[string]string {
	first := lead.ContactName
	last := ""
	if i := strings.Index(lead.ContactName, " "); i >= 0 {
		first = lead.ContactName[:i]
		last = strings.TrimSpace(lead.ContactName[i+1:])
	}
	return map[string]string{
		"first_name": first,
		"last_name":  last,
		"email":      lead.Email,
		"phone":      lead.Phone,
		"pipeline":   lead.Pipeline,
		"company":    lead.Company,
	}
}
