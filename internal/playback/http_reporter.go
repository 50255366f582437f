package playback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HTTPReporter posts reports to the BFF progress endpoint.
type HTTPReporter struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewHTTPReporter(baseURL, token string) *HTTPReporter {
	return &HTTPReporter{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type reportBody struct {
	Progress int `json:"progress"`
}

type reportResponse struct {
	Status bool `json:"status"`
}

func (h *HTTPReporter) Report(ctx context.Context, r Report) error {
	body, err := json.Marshal(reportBody{Progress: r.Percentage})
	if err != nil {
		return err
	}
	u := h.BaseURL + "/v1/modules/" + strconv.FormatInt(r.ModuleID, 10) + "/progress"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}

	resp, err := h.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("report progress: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	var out reportResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("report progress: decode: %w", err)
	}
	if !out.Status {
		return fmt.Errorf("report progress: backend returned status=false")
	}
	return nil
}
