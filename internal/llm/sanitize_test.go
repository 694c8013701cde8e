package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "clean answer passes through",
			raw:   "Cowboy Jacks",
			input: "COWBOYJACKS-APPLEV",
			want:  "Cowboy Jacks",
		},
		{
			name:  "surrounding quotes removed",
			raw:   `"Pike and Pint Grill"`,
			input: "PIKE+PINT GRILL ALEXANDRIA",
			want:  "Pike and Pint Grill",
		},
		{
			name:  "first line only",
			raw:   "Steam\n\nThis appears to be a digital game purchase.",
			input: "WL *STEAM PURCHASE",
			want:  "Steam",
		},
		{
			name:  "label prefix removed",
			raw:   "Merchant name: Netflix",
			input: "NETFLIX.COM",
			want:  "Netflix",
		},
		{
			name:  "markdown fences removed",
			raw:   "```\nCub Foods\n```",
			input: "CUB FOODS #1598",
			want:  "Cub Foods",
		},
		{
			name:  "trailing period removed",
			raw:   "Home Depot.",
			input: "HOMEDEPOT.COM",
			want:  "Home Depot",
		},
		{
			name:    "empty response rejected",
			raw:     "   ",
			input:   "ACME",
			wantErr: true,
		},
		{
			name:    "prompt echo rejected",
			raw:     "The merchant name in the transaction description is Starbucks",
			input:   "STARBUCKS #123",
			wantErr: true,
		},
		{
			name:    "refusal rejected",
			raw:     "I cannot determine the merchant from this text.",
			input:   "X9 REF 0012",
			wantErr: true,
		},
		{
			name:    "too short rejected",
			raw:     "AB",
			input:   "AB HOLDINGS 4411",
			wantErr: true,
		},
		{
			name:    "length measured in runes not bytes",
			raw:     "Éé", // four bytes, two runes
			input:   "EE HOLDINGS 4411",
			wantErr: true,
		},
		{
			name:  "accented name passes through",
			raw:   "Åhléns",
			input: "AHLENS STOCKHOLM SE",
			want:  "Åhléns",
		},
		{
			name:    "overlong rejected",
			raw:     "This is a very long rambling answer that goes well past any reasonable merchant length limit",
			input:   "MYSTERY 123",
			wantErr: true,
		},
		{
			name:    "verbatim input echo rejected",
			raw:     "CASHWISE #1234 WEST FARGO ND",
			input:   "CASHWISE #1234 WEST FARGO ND",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sanitize(tt.raw, tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
