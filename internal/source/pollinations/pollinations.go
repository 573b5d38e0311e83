package pollinations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/everstacklabs/presenter/internal/httpclient"
	"github.com/everstacklabs/presenter/internal/presentation"
	"github.com/everstacklabs/presenter/internal/source"
)

func init() {
	source.Register(&Pollinations{})
}

// Pollinations reads the public text model listing.
type Pollinations struct {
	baseURL string
	client  *httpclient.Client
}

func (p *Pollinations) Name() string { return "pollinations" }

// Configure sets the listing base URL and HTTP client.
func (p *Pollinations) Configure(baseURL string, client *httpclient.Client) {
	p.baseURL = strings.TrimRight(baseURL, "/")
	p.client = client
}

func (p *Pollinations) Fetch(ctx context.Context) ([]presentation.ModelPresentation, error) {
	if p.client == nil || p.baseURL == "" {
		return nil, errors.New("pollinations source is not configured")
	}

	resp, err := p.client.Get(ctx, p.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("fetching model listing: %w", err)
	}

	models, err := parseListing(resp.Body)
	if err != nil {
		return nil, err
	}

	slog.Info("pollinations listing fetched", "models", len(models), "from_cache", resp.FromCache)
	return models, nil
}

// parseListing decodes the listing array and normalizes every element.
// Elements that are not JSON objects are skipped.
func parseListing(body []byte) ([]presentation.ModelPresentation, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing model listing: %w", err)
	}

	models := make([]presentation.ModelPresentation, 0, len(raw))
	for i, elem := range raw {
		m, err := presentation.Normalize(presentation.Text(string(elem)))
		if err != nil {
			slog.Warn("skipping listing entry", "index", i, "error", err)
			continue
		}
		if m.Name == "" {
			slog.Warn("skipping listing entry without name", "index", i)
			continue
		}
		models = append(models, m)
	}
	return models, nil
}
