package workflows

import (
	"context"

	"github.com/PolarWolf314/mainsail/internal/audit"
	"github.com/PolarWolf314/mainsail/internal/trust"
)

// CheckKeyResult reports what is known about a public key.
type CheckKeyResult struct {
	Listed  bool
	Verdict trust.Verdict
}

// CheckKey reports whether publicKey is on the trust list and what the
// registries say about it.
func CheckKey(ctx context.Context, publicKey string, list *trust.TrustList, resolver Resolver) (*CheckKeyResult, error) {
	listed, err := list.Contains(publicKey)
	if err != nil {
		return nil, err
	}
	return &CheckKeyResult{Listed: listed, Verdict: resolver.Lookup(ctx, publicKey)}, nil
}

// TrustKey appends publicKey to the trust list.
func TrustKey(publicKey string, list *trust.TrustList, a *audit.Log) error {
	if err := list.Add(publicKey); err != nil {
		return err
	}
	a.Record(audit.Entry{Operation: audit.OpTrust, PublicKey: publicKey, Outcome: "listed"})
	return nil
}
