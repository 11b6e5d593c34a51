package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestResolveTemplate(t *testing.T) {
	ctx := TemplateContext{
		LeadName:    "Maria",
		LeadPhone:   "5511999990000",
		ProductName: strPtr("Solar"),
		StageName:   strPtr("Proposal"),
	}

	got := ResolveTemplate("Hi {{leadName}} ({{leadPhone}}), {{productName}} is in {{stageName}}", ctx)
	assert.Equal(t, "Hi Maria (5511999990000), Solar is in Proposal", got)
}

func TestResolveTemplateMissingOptionalValues(t *testing.T) {
	got := ResolveTemplate("{{productName}}/{{stageName}}", TemplateContext{LeadName: "x", ProductName: strPtr("  ")})
	assert.Equal(t, "N/A/N/A", got)
}

func TestResolveTemplateKeepsUnknownTokens(t *testing.T) {
	got := ResolveTemplate("Hi {{leadName}}, {{discount}} off", TemplateContext{LeadName: "Ana"})
	assert.Equal(t, "Hi Ana, {{discount}} off", got)
}

func TestResolveTemplateRepeatedToken(t *testing.T) {
	got := ResolveTemplate("{{leadName}} {{leadName}}", TemplateContext{LeadName: "Bo"})
	assert.Equal(t, "Bo Bo", got)
}

func TestResolvedKnownTemplateHasNoTokensLeft(t *testing.T) {
	template := "{{leadName}} {{leadPhone}} {{productName}} {{stageName}}"
	assert.True(t, ValidateTemplate(template).Valid)

	got := ResolveTemplate(template, TemplateContext{LeadName: "A", LeadPhone: "1"})
	assert.False(t, strings.Contains(got, "{{"))
}

func TestValidateTemplate(t *testing.T) {
	v := ValidateTemplate("Hi {{leadName}}, {{leadName}} {{coupon}} {{stageName}}")

	assert.False(t, v.Valid)
	assert.Equal(t, []string{"leadName", "coupon", "stageName"}, v.Variables)
	assert.Equal(t, []string{"coupon"}, v.Unknown)
}

func TestValidateTemplateWithoutVariables(t *testing.T) {
	v := ValidateTemplate("plain text")
	assert.True(t, v.Valid)
	assert.Empty(t, v.Variables)
}
