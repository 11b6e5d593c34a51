package services

import (
	"regexp"
	"strings"
)

// MissingValue replaces optional template variables that have no value.
const MissingValue = "N/A"

const (
	VarLeadName    = "leadName"
	VarLeadPhone   = "leadPhone"
	VarProductName = "productName"
	VarStageName   = "stageName"
)

var TemplateVariables = []string{VarLeadName, VarLeadPhone, VarProductName, VarStageName}

var templateToken = regexp.MustCompile(`\{\{(\w+)\}\}`)

type TemplateContext struct {
	LeadName    string
	LeadPhone   string
	ProductName *string
	StageName   *string
}

type TemplateValidation struct {
	Valid     bool     `json:"valid"`
	Variables []string `json:"variables"`
	Unknown   []string `json:"unknown,omitempty"`
}

// ResolveTemplate substitutes the known variables. Unknown tokens are left
// as written so templates saved before a variable was retired still send.
func ResolveTemplate(template string, ctx TemplateContext) string {
	values := map[string]string{
		VarLeadName:    ctx.LeadName,
		VarLeadPhone:   ctx.LeadPhone,
		VarProductName: optional(ctx.ProductName),
		VarStageName:   optional(ctx.StageName),
	}

	return templateToken.ReplaceAllStringFunc(template, func(token string) string {
		name := templateToken.FindStringSubmatch(token)[1]
		if v, ok := values[name]; ok {
			return v
		}
		return token
	})
}

// ValidateTemplate lists the variables a template uses and flags any that
// are not in TemplateVariables.
func ValidateTemplate(template string) TemplateValidation {
	result := TemplateValidation{Valid: true, Variables: []string{}}
	seen := map[string]bool{}

	for _, match := range templateToken.FindAllStringSubmatch(template, -1) {
		name := match[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		result.Variables = append(result.Variables, name)
		if !isTemplateVariable(name) {
			result.Valid = false
			result.Unknown = append(result.Unknown, name)
		}
	}

	return result
}

func isTemplateVariable(name string) bool {
	for _, v := range TemplateVariables {
		if v == name {
			return true
		}
	}
	return false
}

func optional(v *string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return MissingValue
	}
	return *v
}
