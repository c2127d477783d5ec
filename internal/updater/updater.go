package updater

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yuriy-kovalchuk/entrydns-updater/internal/cache"
	"github.com/yuriy-kovalchuk/entrydns-updater/internal/config"
	"github.com/yuriy-kovalchuk/entrydns-updater/internal/dns"
)

// Resolver reports the current public IP address.
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
}

// Cache persists the last IP address that was pushed to EntryDNS.
type Cache interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, ip string) error
}

// HostLoader supplies the hosts to update.
type HostLoader interface {
	Load(ctx context.Context) (*config.Hosts, error)
}

// Options tune a single run.
type Options struct {
	// Force updates every host even when the public IP matches the cache.
	Force bool
}

// Outcome summarizes what a run did.
type Outcome int

const (
	NoChange Outcome = iota
	Updated
	PartialFailure
)

func (o Outcome) String() string {
	switch o {
	case NoChange:
		return "no-change"
	case Updated:
		return "updated"
	case PartialFailure:
		return "partial-failure"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// HostResult is the outcome of updating one host.
type HostResult struct {
	Host   string
	Result dns.Result
	Err    error
}

// Failed reports whether the host was not updated.
func (r HostResult) Failed() bool {
	return r.Err != nil || !r.Result.OK()
}

func (r HostResult) String() string {
	if r.Err != nil {
		return "ERROR: " + r.Err.Error()
	}
	return r.Result.String()
}

// Report describes a completed run.
type Report struct {
	Outcome Outcome
	IP      string
	Results []HostResult
}

// Updater keeps the EntryDNS records of every configured host pointed at the
// current public IP.
type Updater struct {
	Log      logr.Logger
	Resolver Resolver
	Cache    Cache
	Hosts    HostLoader
	DNS      dns.Provider
}

// Run performs one update cycle. An error is returned only when the cycle
// could not complete; per-host failures are reported in the Report.
func (u *Updater) Run(ctx context.Context, opts Options) (*Report, error) {
	ctx, span := otel.Tracer("entrydns-updater").Start(ctx, "updater.Run")
	defer span.End()
	span.SetAttributes(attribute.Bool("updater.force", opts.Force))

	ip, err := u.Resolver.Resolve(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "resolving public IP")
		return nil, fmt.Errorf("resolving public IP: %w", err)
	}
	span.SetAttributes(attribute.String("updater.ip", ip))

	cached, err := u.Cache.Get(ctx)
	if err != nil {
		u.Log.Error(err, "unable to read cached IP, assuming none")
		cached = cache.Sentinel
	}
	u.Log.V(1).Info("compared public IP with cache", "ip", ip, "cached", cached)

	report := &Report{Outcome: NoChange, IP: ip}
	if cached == ip && !opts.Force {
		u.Log.Info(fmt.Sprintf("Public IP Matches Cache (%s), Nothing to Do...", ip), "ip", ip)
		return report, nil
	}

	if opts.Force {
		u.Log.Info("forcing update")
	}

	// The cache is written before any host is touched, so a failed host is
	// only retried on a later IP change or a forced run.
	if err := u.Cache.Set(ctx, ip); err != nil {
		u.Log.Error(err, "unable to write cached IP")
	}

	hosts, err := u.Hosts.Load(ctx)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			span.SetStatus(codes.Error, "loading hosts")
			return nil, fmt.Errorf("loading hosts: %w", err)
		}
		u.Log.Error(err, "hosts file not found, nothing to update")
		hosts = config.NewHosts()
	}

	report.Outcome = Updated
	names := make([]string, 0, hosts.Len())
	for _, h := range hosts.Entries() {
		res := u.updateHost(ctx, h)
		report.Results = append(report.Results, res)
		names = append(names, h.Name)

		u.Log.Info(fmt.Sprintf("Updating %s: %s", h.Name, res), "host", h.Name, "result", res.String())
		if res.Failed() {
			report.Outcome = PartialFailure
		}
	}
	span.SetAttributes(attribute.StringSlice("updater.hosts", names))

	return report, nil
}

// updateHost isolates a single host: an error or panic becomes that host's
// result and never reaches the remaining hosts.
func (u *Updater) updateHost(ctx context.Context, h config.Host) (res HostResult) {
	res.Host = h.Name
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic: %v", r)
		}
	}()

	res.Result, res.Err = u.DNS.UpdateHost(ctx, h.Token)
	return res
}
