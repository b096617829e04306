package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"trekdesk/pricing"
)

const defaultHFBaseURL = "https://api-inference.huggingface.co/models/"

// Advisor turns a recommendation into a short note for the operations team
// using a hosted model. Price, action and confidence are never altered.
type Advisor struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewAdvisor(apiKey, model string) *Advisor {
	a := &Advisor{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultHFBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}

	if a.apiKey != "" {
		log.Println("✅ AI (HuggingFace) initialized with model:", model)
	} else {
		log.Println("⚠️  HUGGINGFACE_API_KEY not set — operator notes will use the rule reason")
	}
	return a
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfResponse []struct {
	GeneratedText string `json:"generated_text"`
}

// Note returns a model-written note, or rec.Reason when the model is not
// configured or fails.
func (a *Advisor) Note(ctx context.Context, q *Quote) string {
	if a == nil {
		return q.Recommendation.Reason
	}
	note, err := a.generate(ctx, buildNotePrompt(q))
	if err != nil {
		log.Printf("⚠️  AI note failed: %v — using rule reason", err)
		return q.Recommendation.Reason
	}
	return note
}

func (a *Advisor) generate(ctx context.Context, prompt string) (string, error) {
	if a.apiKey == "" {
		return "", fmt.Errorf("huggingface API key not configured")
	}

	jsonBody, err := json.Marshal(hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			MaxNewTokens:   120,
			Temperature:    0.4,
			ReturnFullText: false,
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+a.model, bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusServiceUnavailable {
		return "", fmt.Errorf("AI model is loading, please retry in a few seconds")
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HuggingFace API error (%d): %s", resp.StatusCode, string(body))
	}

	var hfResp hfResponse
	if err := json.Unmarshal(body, &hfResp); err != nil {
		return "", fmt.Errorf("failed to parse AI response: %w", err)
	}
	if len(hfResp) == 0 || strings.TrimSpace(hfResp[0].GeneratedText) == "" {
		return "", fmt.Errorf("empty response from AI")
	}
	return strings.TrimSpace(hfResp[0].GeneratedText), nil
}

func buildNotePrompt(q *Quote) string {
	d, rec := q.Departure, q.Recommendation
	verb := map[pricing.Action]string{
		pricing.ActionIncrease: "raise",
		pricing.ActionDecrease: "lower",
		pricing.ActionKeep:     "keep",
	}[rec.Action]

	return fmt.Sprintf(`[INST] You write one-paragraph notes for a trekking company's operations team.

Trek: %s departing %s (%d days away)
Seats: %d of %d booked (%.0f%% full)
Current price: %.0f | Suggested: %s to %.0f (confidence %d%%)
Rule: %s

In 60 words or fewer, explain the suggestion in plain language. Do not suggest a different price. [/INST]`,
		d.PackageName, d.TravelDate, q.DaysUntilTravel,
		d.BookedSeats, d.TotalSeats, q.Utilization*100,
		d.BasePrice, verb, rec.NewPrice, rec.Confidence,
		rec.Reason)
}
