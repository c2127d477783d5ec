// Package ipify looks up the caller's public IP address from a JSON
// "what is my IP" service such as https://api.ipify.org?format=json.
package ipify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-cleanhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Resolver queries a single service URL that answers {"ip": "<address>"}.
type Resolver struct {
	serviceURL string
	client     *http.Client
}

// New creates a Resolver. A nil client gets a fresh non-shared one.
func New(serviceURL string, client *http.Client) (*Resolver, error) {
	u, err := url.Parse(serviceURL)
	if err != nil {
		return nil, fmt.Errorf("ipify: invalid service URL %q: %w", serviceURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("ipify: service URL %q must be http or https", serviceURL)
	}
	if client == nil {
		client = cleanhttp.DefaultClient()
	}
	return &Resolver{serviceURL: serviceURL, client: client}, nil
}

type response struct {
	IP *string `json:"ip"`
}

// Resolve returns the "ip" field of the service response verbatim. The value
// is not checked to be a well-formed address.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	ctx, span := otel.Tracer("entrydns-updater").Start(ctx, "ipify.Resolve")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.serviceURL, nil)
	if err != nil {
		return "", fmt.Errorf("ipify: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := r.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("ipify: GET %s: %w", r.serviceURL, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("ipify: GET %s returned %s", r.serviceURL, resp.Status)
		span.RecordError(err)
		return "", err
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("ipify: decode response: %w", err)
	}
	if body.IP == nil {
		err := fmt.Errorf("ipify: response has no \"ip\" field")
		span.RecordError(err)
		return "", err
	}

	span.SetAttributes(attribute.String("ipify.ip", *body.IP))
	return *body.IP, nil
}
