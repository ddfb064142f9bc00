package pricesource

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"coinwatch/internal/errors"
	"coinwatch/internal/logging"
	"coinwatch/internal/models"
)

// DefaultBaseURL is the public CoinGecko API root.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// CoinGecko implements Source against the CoinGecko REST API.
type CoinGecko struct {
	baseURL    string
	httpClient *http.Client
	maxResults int
}

// NewCoinGecko creates a client. timeout bounds each request; a zero
// maxResults disables the search result cap.
func NewCoinGecko(baseURL string, timeout time.Duration, maxResults int) *CoinGecko {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &CoinGecko{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		maxResults: maxResults,
	}
}

// Resolve fetches USD quotes for the given IDs in a single call.
func (c *CoinGecko) Resolve(ctx context.Context, ids []string) (map[string]models.Quote, error) {
	if len(ids) == 0 {
		return map[string]models.Quote{}, nil
	}

	endpoint := fmt.Sprintf(
		"%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true&include_market_cap=true",
		c.baseURL, url.QueryEscape(strings.Join(ids, ",")),
	)

	// Keys per asset: usd, usd_24h_change, usd_market_cap. Prices are
	// decoded via json.Number so decimal parsing sees the exact digits.
	var payload map[string]map[string]json.Number
	if err := c.getJSON(ctx, "resolve", endpoint, &payload); err != nil {
		return nil, err
	}

	now := time.Now()
	quotes := make(map[string]models.Quote, len(payload))
	for id, fields := range payload {
		usd, ok := fields["usd"]
		if !ok {
			continue
		}
		price, err := decimal.NewFromString(usd.String())
		if err != nil {
			return nil, errors.NewFetchError(errors.FetchDecode, "resolve",
				fmt.Errorf("bad price for %s: %w", id, err))
		}

		q := models.Quote{
			AssetID:   id,
			PriceUSD:  price,
			FetchedAt: now,
		}
		if change, ok := fields["usd_24h_change"]; ok {
			q.Change24h, _ = change.Float64()
		}
		if mc, ok := fields["usd_market_cap"]; ok {
			q.MarketCapUSD, _ = mc.Float64()
		}
		quotes[id] = q
	}

	return quotes, nil
}

type searchResponse struct {
	Coins []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Symbol        string `json:"symbol"`
		MarketCapRank *int   `json:"market_cap_rank"`
		Large         string `json:"large"`
	} `json:"coins"`
}

// Search returns candidate assets for the query, capped at maxResults.
func (c *CoinGecko) Search(ctx context.Context, query string) ([]models.SearchCandidate, error) {
	endpoint := fmt.Sprintf("%s/search?query=%s", c.baseURL, url.QueryEscape(query))

	var payload searchResponse
	if err := c.getJSON(ctx, "search", endpoint, &payload); err != nil {
		return nil, err
	}

	coins := payload.Coins
	if c.maxResults > 0 && len(coins) > c.maxResults {
		coins = coins[:c.maxResults]
	}

	candidates := make([]models.SearchCandidate, 0, len(coins))
	for _, coin := range coins {
		candidates = append(candidates, models.SearchCandidate{
			ID:       coin.ID,
			Name:     coin.Name,
			Symbol:   strings.ToUpper(coin.Symbol),
			Rank:     coin.MarketCapRank,
			ImageURL: coin.Large,
		})
	}

	return candidates, nil
}

func (c *CoinGecko) getJSON(ctx context.Context, operation, endpoint string, target interface{}) error {
	logger := logging.FromContext(ctx)
	logger.Debug().Str("op", operation).Str("url", endpoint).Msg("Price source request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.NewFetchError(errors.FetchNetwork, operation, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(ctx, operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.NewFetchError(errors.FetchDecode, operation,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return errors.NewFetchError(errors.FetchDecode, operation, err)
	}
	return nil
}

// classifyTransportError maps a transport failure onto the FetchError
// taxonomy. Caller cancellation is passed through untouched so callers
// can tell an abandoned request from a failed one.
func classifyTransportError(ctx context.Context, operation string, err error) error {
	if ctx.Err() != nil && stderrors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewFetchError(errors.FetchTimeout, operation, err)
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.NewFetchError(errors.FetchTimeout, operation, err)
	}

	return errors.NewFetchError(errors.FetchNetwork, operation, err)
}
