package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/flashcarder/internal/models"
)

// Contract selects which endpoint family a backend exposes
type Contract string

const (
	// ContractUnified is the single /process endpoint
	ContractUnified Contract = "unified"
	// ContractSplit is the older per-input endpoints
	ContractSplit Contract = "split"
)

// ParseContract accepts "unified" or "split"; empty means unified
func ParseContract(s string) (Contract, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ContractUnified):
		return ContractUnified, nil
	case string(ContractSplit):
		return ContractSplit, nil
	default:
		return "", fmt.Errorf("unsupported contract: %s", s)
	}
}

// Backend presents every backend revision through one normalized shape
type Backend struct {
	client   *Client
	contract Contract
}

// NewBackend wraps client for the given contract
func NewBackend(client *Client, contract Contract) *Backend {
	if contract == "" {
		contract = ContractUnified
	}
	return &Backend{client: client, contract: contract}
}

// Decks lists deck names
func (b *Backend) Decks(ctx context.Context) ([]string, error) {
	return b.client.Decks(ctx)
}

// Extract dispatches a submission. With the split contract, text and images
// go to separate endpoints and the answers are merged; if either call fails
// nothing is returned.
func (b *Backend) Extract(ctx context.Context, sub models.PendingSubmission) (*models.ProcessResult, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	if b.contract == ContractUnified {
		return b.client.Process(ctx, sub)
	}

	var parts []*models.ProcessResult
	if strings.TrimSpace(sub.Text) != "" {
		var res *models.ProcessResult
		var err error
		if sub.Mode == models.ModeAuto {
			res, err = b.client.ProcessText(ctx, sub.Text, sub.Deck)
		} else {
			res, err = b.client.ExtractText(ctx, sub.Text)
		}
		if err != nil {
			return nil, err
		}
		parts = append(parts, res)
	}
	if len(sub.Files) > 0 {
		var res *models.ProcessResult
		var err error
		if sub.Mode == models.ModeAuto {
			res, err = b.client.ProcessImages(ctx, sub.Files, sub.Deck)
		} else {
			res, err = b.client.ExtractImages(ctx, sub.Files)
		}
		if err != nil {
			return nil, err
		}
		parts = append(parts, res)
	}

	if len(parts) == 1 {
		return parts[0], nil
	}
	return merge(sub.Mode, parts)
}

// AddCards writes approved pairs to deck
func (b *Backend) AddCards(ctx context.Context, deck string, pairs []models.Pair) (*models.AddCardsResult, error) {
	return b.client.AddCards(ctx, deck, pairs)
}

// RedCards fetches flagged notes for re-review
func (b *Backend) RedCards(ctx context.Context, deck string) ([]models.RedCard, json.RawMessage, error) {
	return b.client.RedCards(ctx, deck)
}

// UpdateRedCards submits re-review choices
func (b *Backend) UpdateRedCards(ctx context.Context, deck string, decisions []models.RedCardDecision) (json.RawMessage, error) {
	return b.client.UpdateRedCards(ctx, deck, decisions)
}

func merge(mode models.Mode, parts []*models.ProcessResult) (*models.ProcessResult, error) {
	out := &models.ProcessResult{}
	for _, p := range parts {
		if mode == models.ModeAuto {
			out.Cards = append(out.Cards, p.Cards...)
		} else {
			out.Pairs = append(out.Pairs, p.Pairs...)
		}
	}
	if mode == models.ModeAuto && out.Cards == nil {
		out.Cards = []models.CardResult{}
	}
	if mode != models.ModeAuto && out.Pairs == nil {
		out.Pairs = []models.Pair{}
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal merged result: %w", err)
	}
	out.Raw = raw
	return out, nil
}
