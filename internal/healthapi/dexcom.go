// Package healthapi implements external health data sources for the import
// adapter.
package healthapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/mpetrov/glucolog/internal/domain"
	apperrors "github.com/mpetrov/glucolog/internal/errors"
)

// Dexcom Share API endpoints (US region).
const (
	DexcomBaseURL = "https://share2.dexcom.com/ShareWebServices/Services"
	dexcomAppID   = "d89443d2-327c-4a6f-89e5-496bbb0317db"

	// Share retains at most 24 hours of readings per fetch.
	maxFetchMinutes = 1440
	maxFetchCount   = 288
)

var dexcomTimestampRe = regexp.MustCompile(`Date\((\d+)\)`)

var _ domain.HealthSource = (*DexcomClient)(nil)

// DexcomClient is an HTTP client for the Dexcom Share API implementing
// domain.HealthSource.
type DexcomClient struct {
	BaseURL    string
	Username   string
	Password   string
	HTTPClient *http.Client
	sessionID  string
}

// NewDexcomClient creates a new Dexcom Share client.
func NewDexcomClient(username, password string) *DexcomClient {
	return &DexcomClient{
		BaseURL:  DexcomBaseURL,
		Username: username,
		Password: password,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the source name recorded on imported readings.
func (c *DexcomClient) Name() string {
	return domain.SourceDexcom
}

type dexcomReading struct {
	WT    string // Timestamp like "Date(1234567890000)"
	ST    string // System time
	DT    string // Display time
	Value int    // Glucose in mg/dL
	Trend string // Trend direction
}

func (c *DexcomClient) postJSON(ctx context.Context, url string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalAPIError(err, c.Name())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, apperrors.NewPermissionError(
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)), c.Name())
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewExternalAPIError(
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)), c.Name())
	}

	return body, nil
}

// authenticate gets a session ID from Dexcom via the two-step account/login
// exchange.
func (c *DexcomClient) authenticate(ctx context.Context) error {
	body, err := c.postJSON(ctx, c.BaseURL+"/General/AuthenticatePublisherAccount", map[string]string{
		"accountName":   c.Username,
		"password":      c.Password,
		"applicationId": dexcomAppID,
	})
	if err != nil {
		return err
	}

	var accountID string
	if err := json.Unmarshal(body, &accountID); err != nil {
		return fmt.Errorf("failed to parse account ID: %w", err)
	}

	body, err = c.postJSON(ctx, c.BaseURL+"/General/LoginPublisherAccountById", map[string]string{
		"accountId":     accountID,
		"password":      c.Password,
		"applicationId": dexcomAppID,
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, &c.sessionID); err != nil {
		return fmt.Errorf("failed to parse session ID: %w", err)
	}

	return nil
}

func (c *DexcomClient) fetchLatest(ctx context.Context, maxCount, minutes int) ([]dexcomReading, error) {
	if c.sessionID == "" {
		if err := c.authenticate(ctx); err != nil {
			return nil, err
		}
	}

	fetchURL := func() string {
		return fmt.Sprintf("%s/Publisher/ReadPublisherLatestGlucoseValues?sessionId=%s&minutes=%d&maxCount=%d",
			c.BaseURL, c.sessionID, minutes, maxCount)
	}

	body, err := c.postJSON(ctx, fetchURL(), nil)
	if apperrors.IsType(err, apperrors.ErrorTypePermission) {
		// Sessions expire; one re-auth retry.
		c.sessionID = ""
		if err := c.authenticate(ctx); err != nil {
			return nil, err
		}
		body, err = c.postJSON(ctx, fetchURL(), nil)
	}
	if err != nil {
		return nil, err
	}

	var readings []dexcomReading
	if err := json.Unmarshal(body, &readings); err != nil {
		return nil, fmt.Errorf("failed to parse readings: %w", err)
	}

	return readings, nil
}

// OldestRecordTime returns the timestamp of the oldest reading the Share
// API still holds; ok is false when there is no data at all.
func (c *DexcomClient) OldestRecordTime(ctx context.Context) (time.Time, bool, error) {
	readings, err := c.fetchLatest(ctx, maxFetchCount, maxFetchMinutes)
	if err != nil {
		return time.Time{}, false, err
	}
	if len(readings) == 0 {
		return time.Time{}, false, nil
	}

	oldest := time.Time{}
	for _, r := range readings {
		t := parseDexcomTimestamp(r.WT)
		if t.IsZero() {
			continue
		}
		if oldest.IsZero() || t.Before(oldest) {
			oldest = t
		}
	}
	if oldest.IsZero() {
		return time.Time{}, false, nil
	}
	return oldest, true, nil
}

// FetchReadings returns glucose records whose timestamps fall inside
// [start, end].
func (c *DexcomClient) FetchReadings(ctx context.Context, start, end time.Time) ([]domain.ExternalReading, error) {
	readings, err := c.fetchLatest(ctx, maxFetchCount, maxFetchMinutes)
	if err != nil {
		return nil, err
	}

	var out []domain.ExternalReading
	for _, r := range readings {
		t := parseDexcomTimestamp(r.WT)
		if t.IsZero() || t.Before(start) || t.After(end) {
			continue
		}
		out = append(out, domain.ExternalReading{
			Value:     float64(r.Value),
			Unit:      domain.UnitMgdl,
			Timestamp: t,
		})
	}
	return out, nil
}

// parseDexcomTimestamp parses a Share timestamp "Date(1234567890000)".
func parseDexcomTimestamp(wt string) time.Time {
	matches := dexcomTimestampRe.FindStringSubmatch(wt)
	if len(matches) < 2 {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
