package entrydns

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-cleanhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yuriy-kovalchuk/entrydns-updater/internal/dns"
)

// Provider implements dns.Provider for EntryDNS dynamic records.
//
// EntryDNS identifies a record by its access token and takes the new address
// from the source of the request, so an update is a body-less POST to
// <baseURL><token>.
type Provider struct {
	baseURL string
	client  *http.Client
	log     logr.Logger
}

// New creates an EntryDNS provider. baseURL is the modify endpoint the token
// is appended to, e.g. "https://entrydns.net/records/modify/". A nil client
// gets a fresh non-shared one.
func New(log logr.Logger, baseURL string, client *http.Client) (*Provider, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("entrydns: missing base URL")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("entrydns: invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("entrydns: base URL %q must be http or https", baseURL)
	}
	if client == nil {
		client = cleanhttp.DefaultClient()
	}

	return &Provider{
		baseURL: baseURL,
		client:  client,
		log:     log,
	}, nil
}

// doRequest builds and executes a request against the EntryDNS API.
func (p *Provider) doRequest(ctx context.Context, method, token string) (*http.Response, error) {
	endpoint := strings.TrimRight(p.baseURL, "/") + "/" + url.PathEscape(token)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("entrydns: build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		// The error text carries the URL and with it the token.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("entrydns: %s: %w", method, err)
	}
	return resp, nil
}

// UpdateHost asks EntryDNS to point the record behind token at the caller's
// address. Any status other than 200 is returned as a failed Result.
func (p *Provider) UpdateHost(ctx context.Context, token string) (dns.Result, error) {
	ctx, span := otel.Tracer("entrydns-updater").Start(ctx, "entrydns.UpdateHost")
	defer span.End()

	resp, err := p.doRequest(ctx, http.MethodPost, token)
	if err != nil {
		span.RecordError(err)
		return dns.Result{}, err
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused for the next host.
	_, _ = io.Copy(io.Discard, resp.Body)

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	p.log.V(1).Info("update request completed", "status", resp.StatusCode)
	return dns.Result{StatusCode: resp.StatusCode}, nil
}
