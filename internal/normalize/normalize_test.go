package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "already well formed",
			input: "Cowboy Jacks",
			want:  "Cowboy Jacks",
		},
		{
			name:  "all caps becomes title case",
			input: "MAPLE RIDGE VILLA",
			want:  "Maple Ridge Villa",
		},
		{
			name:  "acronym allowlist survives",
			input: "BP",
			want:  "BP",
		},
		{
			name:  "acronym inside name survives",
			input: "ATM WITHDRAWAL",
			want:  "ATM Withdrawal",
		},
		{
			name:  "leading article dropped",
			input: "The Home Depot",
			want:  "Home Depot",
		},
		{
			name:  "run-on token is split",
			input: "CowboyJacks",
			want:  "Cowboy Jacks",
		},
		{
			name:  "trailing qualifier dropped",
			input: "Walmart Supercenter",
			want:  "Walmart",
		},
		{
			name:  "stacked qualifiers dropped",
			input: "Acme Store Inc",
			want:  "Acme",
		},
		{
			name:  "qualifier kept when sole content",
			input: "Purchase",
			want:  "Purchase",
		},
		{
			name:  "qualifier drop exposes a run-on token",
			input: "CowboyJacks Store",
			want:  "Cowboy Jacks",
		},
		{
			name:  "run-on split exposes a leading article",
			input: "TheHomeDepot",
			want:  "Home Depot",
		},
		{
			name:  "run-on split exposes a trailing qualifier",
			input: "WalmartStore",
			want:  "Walmart",
		},
		{
			name:  "boilerplate stripped",
			input: "The transaction name is: Steam",
			want:  "Steam",
		},
		{
			name:  "parenthetical artifact stripped",
			input: "Cub Foods (No location information provided)",
			want:  "Cub Foods",
		},
		{
			name:  "surrounding quotes stripped",
			input: `"Pike and Pint Grill"`,
			want:  "Pike and Pint Grill",
		},
		{
			name:  "empty stays empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.input))
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{
		"Cowboy Jacks",
		"MAPLE RIDGE VILLA",
		"The Home Depot",
		"CowboyJacks",
		"CowboyJacks Store",
		"PikePlace",
		"TheHomeDepot",
		"WalmartStore",
		"Acme Store Inc",
		"Walmart Supercenter",
		"Purchase",
		"BP",
		"7-ELEVEN",
		"  spaced   out  name  ",
		`"Quoted, Merchant."`,
		"Sure! The transaction name is: Netflix",
		"",
		"*",
	}

	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once), "input %q", in)
	}
}
