// Package deepl provides a translate.Translator backed by the DeepL REST
// API.
package deepl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"live-caption-room-service/internal/translate"
)

// DefaultBaseURL is the free-tier API endpoint; paid keys use
// https://api.deepl.com/v2.
const DefaultBaseURL = "https://api-free.deepl.com/v2"

// Client implements translate.Translator against the DeepL HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	sourceLang string
	httpClient *http.Client
}

// New creates a DeepL client. An empty baseURL selects DefaultBaseURL;
// sourceLang defaults to "en".
func New(baseURL, apiKey, sourceLang string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if sourceLang == "" {
		sourceLang = "en"
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		sourceLang: sourceLang,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type translateRequest struct {
	Text       []string `json:"text"`
	TargetLang string   `json:"target_lang"`
	SourceLang string   `json:"source_lang"`
}

type translateResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

// Translate sends one text to the /translate endpoint.
func (c *Client) Translate(ctx context.Context, text, targetLang string) (string, error) {
	body, err := json.Marshal(translateRequest{
		Text:       []string{text},
		TargetLang: targetLang,
		SourceLang: c.sourceLang,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var resp translateResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	if len(resp.Translations) == 0 {
		return "", fmt.Errorf("deepl: empty translation response")
	}
	return resp.Translations[0].Text, nil
}

type languageEntry struct {
	Language string `json:"language"`
	Name     string `json:"name"`
}

// SupportedLanguages lists the target languages the account can translate
// into. Regional variants sharing a display name (EN-GB/EN-US etc.) are
// all returned; the caller decides how to present them.
func (c *Client) SupportedLanguages(ctx context.Context) ([]translate.Language, error) {
	u := c.baseURL + "/languages?" + url.Values{"type": {"target"}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+c.apiKey)

	var entries []languageEntry
	if err := c.do(req, &entries); err != nil {
		return nil, err
	}

	langs := make([]translate.Language, 0, len(entries))
	for _, e := range entries {
		langs = append(langs, translate.Language{Code: e.Language, Name: e.Name})
	}
	return langs, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("deepl: %s returned %d: %s", req.URL.Path, resp.StatusCode, b)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
