// Package profilegen calls the profile microservice that wraps a generative
// model: it seeds demo student profiles and extracts student details from a
// photographed ID card. The engine never talks to the model directly.
package profilegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"
)

// StudentProfile is the partial student the service returns; empty fields
// were not generated or not visible on the card.
type StudentProfile struct {
	Name          string `json:"name"`
	RollNumber    string `json:"rollNumber"`
	GRNumber      string `json:"grNumber"`
	Grade         string `json:"grade"`
	Section       string `json:"section"`
	Gender        string `json:"gender"`
	ParentName    string `json:"parentName"`
	ParentContact string `json:"parentContact"`
	DOB           string `json:"dob"` // YYYY-MM-DD
	Address       string `json:"address"`
	BloodGroup    string `json:"bloodGroup"`
}

// Client calls the profile service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client. With skip set, canned profiles are returned so the
// rest of the stack works without the service running.
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 30 * time.Second, // model calls can take a while
		},
	}
}

// Generate requests count seed student profiles.
func (c *Client) Generate(ctx context.Context, count int) ([]StudentProfile, error) {
	if count <= 0 {
		count = 3
	}
	if c.Skip {
		return mockProfiles(count), nil
	}

	body, _ := json.Marshal(map[string]int{"count": count})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("profile service error %s: %s", resp.Status, string(bodyBytes))
	}

	var out []StudentProfile
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}

var dataURLPrefix = regexp.MustCompile(`^data:image/(png|jpeg|jpg|webp);base64,`)

// ExtractFromCard OCRs a photographed ID card into a partial profile.
// image is base64, with or without a data URL prefix.
func (c *Client) ExtractFromCard(ctx context.Context, image string) (*StudentProfile, error) {
	if image == "" {
		return nil, fmt.Errorf("card image required")
	}
	if c.Skip {
		p := mockProfiles(1)[0]
		return &p, nil
	}

	body, _ := json.Marshal(map[string]string{
		"image": dataURLPrefix.ReplaceAllString(image, ""),
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/extract", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("profile service error %s: %s", resp.Status, string(bodyBytes))
	}

	var out StudentProfile
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

// Health checks if the profile service is available.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("profile service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("profile service unhealthy: %s", resp.Status)
	}
	return nil
}

func mockProfiles(count int) []StudentProfile {
	seeds := []StudentProfile{
		{Name: "Aarav Mehta", RollNumber: "12", GRNumber: "4821", Grade: "10", Section: "A", Gender: "Male"},
		{Name: "Zoya Khan", RollNumber: "07", GRNumber: "4822", Grade: "11", Section: "Science", Gender: "Female"},
		{Name: "Ishaan Rao", RollNumber: "21", GRNumber: "4823", Grade: "12", Section: "Commerce", Gender: "Male"},
		{Name: "Mira Patel", RollNumber: "03", GRNumber: "4824", Grade: "10", Section: "B", Gender: "Female"},
	}
	out := make([]StudentProfile, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, seeds[i%len(seeds)])
	}
	return out
}
