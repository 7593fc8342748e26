package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client kapselt die Kommunikation mit dem Extraction-Service.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient erstellt einen Client für den Extraction-Service.
// Ohne API-Key kann kein Client gebaut werden.
func NewClient(apiKey, baseURL string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("extraction client benötigt einen api key")
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// Extract führt einen einzelnen Extraction-Aufruf gegen die angegebenen
// Ziel-Domains aus und validiert die Antwort gegen das erwartete Schema.
// Eine fehlende oder formwidrige Antwort ist ein Fehler, keine leere Antwort.
func (c *Client) Extract(ctx context.Context, targets []string, req Request) (*Document, error) {
	payload := extractRequest{
		URLs:   targets,
		Prompt: req.Prompt,
		Schema: req.Schema,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("extract request konnte nicht serialisiert werden: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/extract", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Debug("Rufe Extraction-Service auf",
		zap.Strings("targets", targets),
		zap.Int("prompt_length", len(req.Prompt)))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("extraction-aufruf fehlgeschlagen: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("Extraction-Service hat nicht-200-Status zurückgegeben",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(raw)))
		return nil, fmt.Errorf("extraction failed: status %d", resp.StatusCode)
	}

	var er extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("extraction-antwort konnte nicht geparst werden: %w", err)
	}

	if !er.Success || er.Data == nil {
		msg := er.Error
		if msg == "" {
			msg = "antwort enthält keine daten"
		}
		return nil, fmt.Errorf("fehlerhafte extraction-antwort: %s", msg)
	}

	if err := validateDocument(er.Data); err != nil {
		return nil, err
	}

	c.logger.Info("Extraction erfolgreich",
		zap.Int("papers", len(er.Data.Papers)))
	return er.Data, nil
}

// validateDocument prüft die dekodierte Antwort gegen die Pflichtfelder.
func validateDocument(doc *Document) error {
	for i, p := range doc.Papers {
		if p.Name == "" {
			return fmt.Errorf("fehlerhafte extraction-antwort: item %d ohne name", i)
		}
	}
	return nil
}
