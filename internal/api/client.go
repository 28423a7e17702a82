// Package api talks to the flashcard extraction backend over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/flashcarder/internal/models"
)

// ErrMalformedResponse is returned when a 2xx body does not have the expected shape
var ErrMalformedResponse = errors.New("malformed response")

// StatusError is returned for non-2xx responses
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.Code, e.Body)
}

// Client is a thin wrapper over the backend's endpoints
type Client struct {
	BaseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the backend at baseURL
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Decks lists the deck names known to the deck integration
func (c *Client) Decks(ctx context.Context) ([]string, error) {
	raw, err := c.do(ctx, http.MethodGet, "/get_decks", "", nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Decks []string `json:"decks"`
	}
	if err := decode(raw, &resp); err != nil {
		return nil, err
	}
	return resp.Decks, nil
}

// Process sends text and images in one multipart request to /process
func (c *Client) Process(ctx context.Context, sub models.PendingSubmission) (*models.ProcessResult, error) {
	body, contentType, err := buildMultipart(map[string]string{
		"text":     sub.Text,
		"deckName": sub.Deck,
		"mode":     string(sub.Mode),
	}, sub.Files)
	if err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, http.MethodPost, "/process", contentType, body)
	if err != nil {
		return nil, err
	}
	if err := validate(processSchema, raw); err != nil {
		return nil, err
	}

	var resp struct {
		Cards  []models.CardResult `json:"cards"`
		Status []models.CardResult `json:"status"`
		Pairs  []models.Pair       `json:"pairs"`
	}
	if err := decode(raw, &resp); err != nil {
		return nil, err
	}
	cards := resp.Cards
	if cards == nil {
		cards = resp.Status
	}
	return &models.ProcessResult{Cards: normalize(cards), Pairs: resp.Pairs, Raw: raw}, nil
}

// ProcessText extracts pairs from text and adds them to deck in one step
func (c *Client) ProcessText(ctx context.Context, text, deck string) (*models.ProcessResult, error) {
	raw, err := c.postJSON(ctx, "/process_text", map[string]string{"text": text, "deckName": deck})
	if err != nil {
		return nil, err
	}
	if err := validate(processTextSchema, raw); err != nil {
		return nil, err
	}
	var resp struct {
		Status []models.CardResult `json:"status"`
	}
	if err := decode(raw, &resp); err != nil {
		return nil, err
	}
	return &models.ProcessResult{Cards: normalize(resp.Status), Raw: raw}, nil
}

// ExtractText returns candidate pairs for text without touching the deck
func (c *Client) ExtractText(ctx context.Context, text string) (*models.ProcessResult, error) {
	raw, err := c.postJSON(ctx, "/extract_text", map[string]string{"text": text})
	if err != nil {
		return nil, err
	}
	if err := validate(extractSchema, raw); err != nil {
		return nil, err
	}
	var resp struct {
		Pairs []models.Pair `json:"pairs"`
	}
	if err := decode(raw, &resp); err != nil {
		return nil, err
	}
	return &models.ProcessResult{Pairs: resp.Pairs, Raw: raw}, nil
}

// ProcessImages extracts pairs from images and adds them to deck. Per-image
// results are flattened; each card keeps the name of its image.
func (c *Client) ProcessImages(ctx context.Context, files []models.File, deck string) (*models.ProcessResult, error) {
	body, contentType, err := buildMultipart(map[string]string{"deckName": deck}, files)
	if err != nil {
		return nil, err
	}
	raw, err := c.do(ctx, http.MethodPost, "/process_images", contentType, body)
	if err != nil {
		return nil, err
	}
	if err := validate(processImagesSchema, raw); err != nil {
		return nil, err
	}
	var resp struct {
		Results []models.ImageResult `json:"results"`
	}
	if err := decode(raw, &resp); err != nil {
		return nil, err
	}

	cards := []models.CardResult{}
	for _, r := range resp.Results {
		if len(r.Pairs) == 0 && r.Detail != "" {
			c.logger.Warn("Image produced no cards", "image", r.Image, "detail", r.Detail)
		}
		for _, card := range r.Pairs {
			card.Image = r.Image
			cards = append(cards, card)
		}
	}
	return &models.ProcessResult{Cards: normalize(cards), Raw: raw}, nil
}

// ExtractImages returns candidate pairs for images without touching the deck
func (c *Client) ExtractImages(ctx context.Context, files []models.File) (*models.ProcessResult, error) {
	body, contentType, err := buildMultipart(nil, files)
	if err != nil {
		return nil, err
	}
	raw, err := c.do(ctx, http.MethodPost, "/extract_images", contentType, body)
	if err != nil {
		return nil, err
	}
	if err := validate(extractSchema, raw); err != nil {
		return nil, err
	}
	var resp struct {
		Pairs []models.Pair `json:"pairs"`
	}
	if err := decode(raw, &resp); err != nil {
		return nil, err
	}
	return &models.ProcessResult{Pairs: resp.Pairs, Raw: raw}, nil
}

// AddCards writes the approved pairs to deck
func (c *Client) AddCards(ctx context.Context, deck string, pairs []models.Pair) (*models.AddCardsResult, error) {
	payload := struct {
		DeckName string        `json:"deckName"`
		Pairs    []models.Pair `json:"pairs"`
	}{DeckName: deck, Pairs: pairs}
	if payload.Pairs == nil {
		payload.Pairs = []models.Pair{}
	}

	raw, err := c.postJSON(ctx, "/add_cards", payload)
	if err != nil {
		return nil, err
	}
	if err := validate(addCardsSchema, raw); err != nil {
		return nil, err
	}

	var resp struct {
		Cards  []models.CardResult `json:"cards"`
		Status []models.CardResult `json:"status"`
	}
	if err := decode(raw, &resp); err != nil {
		return nil, err
	}
	cards := resp.Cards
	if cards == nil {
		cards = resp.Status
	}
	return &models.AddCardsResult{Cards: normalize(cards), Raw: raw}, nil
}

// RedCards fetches flagged notes in deck along with suggested rewrites
func (c *Client) RedCards(ctx context.Context, deck string) ([]models.RedCard, json.RawMessage, error) {
	path := "/update_cards_red_manual_get?deck_name=" + url.QueryEscape(deck)
	raw, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, nil, err
	}
	var cards []models.RedCard
	if err := decode(raw, &cards); err != nil {
		return nil, nil, err
	}
	return cards, raw, nil
}

// UpdateRedCards sends the user's choices for flagged notes
func (c *Client) UpdateRedCards(ctx context.Context, deck string, decisions []models.RedCardDecision) (json.RawMessage, error) {
	payload := struct {
		DeckName string                   `json:"deckName"`
		Data     []models.RedCardDecision `json:"data"`
	}{DeckName: deck, Data: decisions}
	return c.postJSON(ctx, "/update_cards_red_manual_adding", payload)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(data))
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (json.RawMessage, error) {
	reqID := uuid.New().String()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	c.logger.Debug("Calling backend", "req_id", reqID, "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Backend request failed", "req_id", reqID, "path", path, "err", err)
		return nil, fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	c.logger.Info("Backend responded",
		"req_id", reqID,
		"path", path,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return raw, nil
}

func decode(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func normalize(cards []models.CardResult) []models.CardResult {
	for i := range cards {
		cards[i].Normalize()
	}
	return cards
}

func buildMultipart(fields map[string]string, files []models.File) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", name, err)
		}
	}

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.Name))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create part for %s: %w", f.Name, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
