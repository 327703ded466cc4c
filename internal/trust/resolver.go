package trust

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	merrors "github.com/PolarWolf314/mainsail/internal/errors"
	logger "github.com/PolarWolf314/mainsail/internal/logging"
	"github.com/PolarWolf314/mainsail/internal/metrics"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultRetries    = 1
	maxProfileSize    = 64 << 10
	defaultRateLimit  = 10
	defaultRateBurst  = 3
	registryNotFound  = "not_found"
	registryInactive  = "inactive"
	registryActive    = "active"
	registryMalformed = "malformed"
	registryOffline   = "unreachable"
)

// Registry is a public key directory. A profile lives at BaseURL followed
// by the encoded public key.
type Registry struct {
	Name    string
	BaseURL string
}

// DefaultRegistries are queried in this order; the first active profile wins.
var DefaultRegistries = []Registry{
	{Name: "aws", BaseURL: "https://mainsail-s3-cli-test.s3.amazonaws.com/"},
	{Name: "digitalocean", BaseURL: "https://fra1.digitaloceanspaces.com/mainsail-do-cli-test/"},
	{Name: "azure", BaseURL: "https://publickeyregistry.blob.core.windows.net/mainsail-az-cli-test/"},
}

// ResolverOptions configures NewResolver. Zero values pick the defaults.
type ResolverOptions struct {
	Registries []Registry
	Timeout    time.Duration
	RetryMax   int
	RateLimit  rate.Limit
	Logger     logger.Logger
	Metrics    *metrics.Metrics
}

// Resolver looks up signer profiles across the registries.
type Resolver struct {
	registries []Registry
	client     *retryablehttp.Client
	limiter    *rate.Limiter
	log        logger.Logger
	metrics    *metrics.Metrics
}

// NewResolver builds a Resolver with a pooled, retrying HTTP client.
func NewResolver(opts ResolverOptions) *Resolver {
	registries := opts.Registries
	if len(registries) == 0 {
		registries = DefaultRegistries
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := opts.RetryMax
	if retries <= 0 {
		retries = defaultRetries
	}
	limit := opts.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}

	client := retryablehttp.NewClient()
	client.HTTPClient = cleanhttp.DefaultPooledClient()
	client.HTTPClient.Timeout = timeout
	client.RetryMax = retries
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = time.Second
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = leveledLogger{opts.Logger}

	return &Resolver{
		registries: registries,
		client:     client,
		limiter:    rate.NewLimiter(limit, defaultRateBurst),
		log:        opts.Logger,
		metrics:    opts.Metrics,
	}
}

type registryStatus int

const (
	statusNotFound registryStatus = iota
	statusInactive
	statusActive
)

type registryResult struct {
	status  registryStatus
	profile Profile
}

// Lookup queries every registry for publicKey and returns the combined
// verdict. It never returns an error: unreachable registries produce a
// connectivity verdict.
func (r *Resolver) Lookup(ctx context.Context, publicKey string) Verdict {
	start := time.Now()
	results := make([]registryResult, len(r.registries))

	g, gctx := errgroup.WithContext(ctx)
	for i, reg := range r.registries {
		i, reg := i, reg
		g.Go(func() error {
			res, err := r.fetch(gctx, reg, publicKey)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	var v Verdict
	if err := g.Wait(); err != nil {
		r.log.Warnf("Trust lookup for %s failed: %v", publicKey, err)
		v = notTrusted(KindConnectivity)
	} else {
		v = decide(results)
	}

	r.metrics.LookupFinished(v.Kind.String(), time.Since(start))
	r.log.Debugf("Trust verdict for %s: %s", publicKey, v.Kind)
	return v
}

// fetch returns an error only when the registry could not be reached.
// Malformed answers count as "not found" at that registry.
func (r *Resolver) fetch(ctx context.Context, reg Registry, publicKey string) (registryResult, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return registryResult{}, fmt.Errorf("%w: %s: %v", merrors.ErrConnectivity, reg.Name, err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reg.BaseURL+publicKey, nil)
	if err != nil {
		return registryResult{}, fmt.Errorf("%w: %s: %v", merrors.ErrConnectivity, reg.Name, err)
	}

	// With the passthrough error handler a response that exhausted its
	// retries comes back together with an error; only a missing response
	// means the registry was unreachable.
	resp, err := r.client.Do(req)
	if resp == nil {
		if err == nil {
			err = errors.New("no response")
		}
		r.metrics.RegistryResponse(reg.Name, registryOffline)
		return registryResult{}, fmt.Errorf("%w: %s: %v", merrors.ErrConnectivity, reg.Name, err)
	}
	defer resp.Body.Close()
	if err != nil {
		r.log.Debugf("Registry %s: %v", reg.Name, err)
	}

	switch resp.StatusCode {
	case http.StatusForbidden, http.StatusNotFound:
		r.metrics.RegistryResponse(reg.Name, registryNotFound)
		return registryResult{status: statusNotFound}, nil
	case http.StatusOK:
	default:
		r.log.Warnf("Registry %s answered %d for %s", reg.Name, resp.StatusCode, publicKey)
		r.metrics.RegistryResponse(reg.Name, registryMalformed)
		return registryResult{status: statusNotFound}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileSize))
	if err != nil {
		r.metrics.RegistryResponse(reg.Name, registryOffline)
		return registryResult{}, fmt.Errorf("%w: %s: %v", merrors.ErrConnectivity, reg.Name, err)
	}

	profile, err := ParseProfile(body)
	if err != nil {
		r.log.WarnfAlways("Problem parsing profile from %s: %v", reg.Name, err)
		r.metrics.RegistryResponse(reg.Name, registryMalformed)
		return registryResult{status: statusNotFound}, nil
	}
	profile.Registry = reg.Name

	if !profile.Active {
		r.metrics.RegistryResponse(reg.Name, registryInactive)
		return registryResult{status: statusInactive, profile: profile}, nil
	}
	r.metrics.RegistryResponse(reg.Name, registryActive)
	return registryResult{status: statusActive, profile: profile}, nil
}

// decide applies the quorum rule to per-registry results in registry order.
func decide(results []registryResult) Verdict {
	var notFound, inactive int
	var first *Profile
	for i := range results {
		switch results[i].status {
		case statusNotFound:
			notFound++
		case statusInactive:
			inactive++
		case statusActive:
			if first == nil {
				first = &results[i].profile
			}
		}
	}

	switch {
	case notFound == len(results):
		return notTrusted(KindNoProfile)
	case notFound == len(results)-1 && first == nil:
		return notTrusted(KindInconsistent)
	case inactive > 1:
		return notTrusted(KindInactive)
	case first != nil:
		return trusted(*first)
	default:
		return notTrusted(KindNoActive)
	}
}

// leveledLogger routes retryablehttp's messages to the debug log.
type leveledLogger struct {
	log logger.Logger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.log.Debugf("http: %s %v", msg, kv) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.log.Debugf("http: %s %v", msg, kv) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.log.Debugf("http: %s %v", msg, kv) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.log.Debugf("http: %s %v", msg, kv) }
