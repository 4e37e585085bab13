package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripDecoration(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"a":1}`, `{"a":1}`},
		{"surrounding whitespace", "  \n{\"a\":1}\n ", `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fence on one line", "```json{\"a\":1}```", `{"a":1}`},
		{"double fence", "```json\n```json\n{\"a\":1}\n```\n```", `{"a":1}`},
		{"tilde fence", "~~~json\n{\"a\":1}\n~~~", `{"a":1}`},
		{"only opening fence", "```json\n{\"a\":1}", `{"a":1}`},
		{"only fences", "```json\n```", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripDecoration(tt.in))
		})
	}
}

func TestStripDecoration_Idempotent(t *testing.T) {
	inputs := []string{
		"```json\n{\"Monday\":{}}\n```",
		"{\"Monday\":{}}",
		"```\n```\n[1,2]\n```\n```",
		"not json at all",
	}
	for _, in := range inputs {
		once := StripDecoration(in)
		assert.Equal(t, once, StripDecoration(once), "input %q", in)
	}
}

func TestStripDecoration_KeepsInnerBackticks(t *testing.T) {
	in := "```json\n{\"name\":\"the ``` dish\"}\n```"
	assert.Equal(t, `{"name":"the `+"```"+` dish"}`, StripDecoration(in))
}
