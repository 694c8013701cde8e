package llm

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonfi/namewise/internal/common"
	"github.com/halcyonfi/namewise/internal/ledger"
	"github.com/halcyonfi/namewise/internal/model"
)

func scriptedByRole(extraction, location, validation func() (string, error)) *MockClient {
	return &MockClient{
		GenerateFunc: func(_ context.Context, req Request) (string, error) {
			switch {
			case strings.Contains(req.Prompt, "Extract the merchant"):
				return extraction()
			case strings.Contains(req.Prompt, "Remove any city"):
				return location()
			default:
				return validation()
			}
		},
	}
}

func ok(s string) func() (string, error) {
	return func() (string, error) { return s, nil }
}

func fail(err error) func() (string, error) {
	return func() (string, error) { return "", err }
}

func TestResolveCandidates_AllRolesContribute(t *testing.T) {
	client := scriptedByRole(ok("Cowboy Jacks"), ok("Cowboy Jacks"), ok("Cowboy Jacks LLC"))
	ensemble := NewEnsemble(client, Config{PrimaryModel: "test-model"})

	candidates, failures, err := ensemble.ResolveCandidates(
		context.Background(), "COWBOYJACKS-APPLEV", nil, model.RawTransaction{})
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	assert.Zero(t, failures.Total())

	byRole := map[string]model.Candidate{}
	for _, c := range candidates {
		assert.Equal(t, model.SourceEnsemble, c.Source)
		byRole[c.Role] = c
	}
	require.Contains(t, byRole, "extraction")
	require.Contains(t, byRole, "location")
	require.Contains(t, byRole, "validation")
	assert.Equal(t, validationBonus, byRole["validation"].Score)
	assert.Zero(t, byRole["extraction"].Score)
}

func TestResolveCandidates_FailuresCountedNotFatal(t *testing.T) {
	client := scriptedByRole(
		ok("Cub Foods"),
		fail(common.ErrGenerationUnavailable),
		ok("I cannot determine the merchant name here."),
	)
	ensemble := NewEnsemble(client, Config{PrimaryModel: "test-model"})

	candidates, failures, err := ensemble.ResolveCandidates(
		context.Background(), "CUB FOODS #1598 MOORHEAD MN", nil, model.RawTransaction{})
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, "Cub Foods", candidates[0].Text)
	assert.Equal(t, 1, failures.Unavailable)
	assert.Equal(t, 1, failures.Unusable)
	assert.Equal(t, 2, failures.Total())
}

func TestResolveCandidates_AllRolesFailYieldsEmpty(t *testing.T) {
	client := scriptedByRole(
		fail(common.ErrGenerationUnavailable),
		fail(common.ErrGenerationUnavailable),
		fail(common.ErrGenerationUnavailable),
	)
	ensemble := NewEnsemble(client, Config{PrimaryModel: "test-model"})

	candidates, failures, err := ensemble.ResolveCandidates(
		context.Background(), "MYSTERY 0012", nil, model.RawTransaction{})
	require.NoError(t, err)
	assert.Empty(t, candidates)
	assert.Equal(t, 3, failures.Unavailable)
}

func TestResolveCandidates_CancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &MockClient{DefaultResponse: "Acme"}
	ensemble := NewEnsemble(client, Config{PrimaryModel: "test-model"})

	_, _, err := ensemble.ResolveCandidates(ctx, "ACME 123", nil, model.RawTransaction{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveCandidates_ModelSlotSequence(t *testing.T) {
	client := &MockClient{DefaultResponse: "Acme Hardware"}
	ensemble := NewEnsemble(client, Config{
		PrimaryModel:   "alpha",
		SecondaryModel: "beta",
	})

	_, _, err := ensemble.ResolveCandidates(
		context.Background(), "ACME HARDWARE 4411", nil, model.RawTransaction{})
	require.NoError(t, err)

	models := map[string]string{}
	for _, call := range client.Calls() {
		switch {
		case strings.Contains(call.Prompt, "Extract the merchant"):
			models["extraction"] = call.Model
		case strings.Contains(call.Prompt, "Remove any city"):
			models["location"] = call.Model
		default:
			models["validation"] = call.Model
		}
	}
	assert.Equal(t, "alpha", models["extraction"])
	assert.Equal(t, "beta", models["location"])
	assert.Equal(t, "alpha", models["validation"])
}

func TestResolveCandidates_ExemplarsAndContextInExtractionPrompt(t *testing.T) {
	client := &MockClient{DefaultResponse: "Cash Wise Foods"}
	ensemble := NewEnsemble(client, Config{PrimaryModel: "test-model"})

	exemplars := []ledger.Exemplar{
		{CanonicalName: "Cash Wise Foods", Occurrences: 6},
		{CanonicalName: "Cashwise Liquor", Occurrences: 2},
	}
	tx := model.RawTransaction{
		Date:   time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Amount: 54.12,
	}

	_, _, err := ensemble.ResolveCandidates(
		context.Background(), "CASHWISE MOORHEAD MN", exemplars, tx)
	require.NoError(t, err)

	var extraction string
	for _, call := range client.Calls() {
		if strings.Contains(call.Prompt, "Extract the merchant") {
			extraction = call.Prompt
		}
	}
	require.NotEmpty(t, extraction)
	assert.Contains(t, extraction, "Cash Wise Foods (seen 6 times)")
	assert.Contains(t, extraction, "Cashwise Liquor (seen 2 times)")
	assert.Contains(t, extraction, "2025-03-14")
	assert.Contains(t, extraction, "54.12")
}

func TestResolveCandidates_DefaultTokenBudget(t *testing.T) {
	client := &MockClient{DefaultResponse: "Acme"}
	ensemble := NewEnsemble(client, Config{PrimaryModel: "test-model"})

	_, _, err := ensemble.ResolveCandidates(
		context.Background(), "ACME 123", nil, model.RawTransaction{})
	require.NoError(t, err)

	require.NotEmpty(t, client.Calls())
	for _, call := range client.Calls() {
		assert.Equal(t, defaultMaxTokens, call.MaxTokens)
	}
}

func TestResolveCandidates_ValidationTemperature(t *testing.T) {
	client := &MockClient{DefaultResponse: "Acme"}
	ensemble := NewEnsemble(client, Config{PrimaryModel: "test-model"})

	_, _, err := ensemble.ResolveCandidates(
		context.Background(), "ACME 123", nil, model.RawTransaction{})
	require.NoError(t, err)

	for _, call := range client.Calls() {
		if strings.Contains(call.Prompt, "proper business name") {
			assert.InDelta(t, 0.1, call.Temperature, 1e-9)
		} else {
			assert.Zero(t, call.Temperature)
		}
	}
}
