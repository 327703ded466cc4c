package workflows

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PolarWolf314/mainsail/internal/envelope"
	"github.com/PolarWolf314/mainsail/internal/trust"
)

type fakeResolver struct {
	mu      sync.Mutex
	verdict trust.Verdict
	calls   []string
}

func (f *fakeResolver) Lookup(ctx context.Context, publicKey string) trust.Verdict {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, publicKey)
	return f.verdict
}

var trustedVerdict = trust.Verdict{
	Trusted: true,
	Kind:    trust.KindTrusted,
	Reason:  "trusted",
	Profile: &trust.Profile{Name: "Ada Lovelace", Active: true},
}

func decideWith(d Decision, seen *[]Candidate) DecisionFunc {
	return func(ctx context.Context, c Candidate) (Decision, error) {
		*seen = append(*seen, c)
		return d, nil
	}
}

func TestAuthenticate(t *testing.T) {
	kp := newKey(t)

	t.Run("TrustAlwaysChecksAndLists", func(t *testing.T) {
		l := newLayout(t)
		signInto(t, kp, l.Verified, "report.txt", "report", envelope.Separate)
		list := trust.NewTrustList(filepath.Join(t.TempDir(), "trusted_keys.txt"))
		var seen []Candidate

		res, err := Authenticate(context.Background(), AuthenticateOptions{
			Layout:    l,
			Resolver:  &fakeResolver{verdict: trustedVerdict},
			TrustList: list,
			Decide:    decideWith(TrustAlways, &seen),
		})
		require.NoError(t, err)
		require.Len(t, res.Files, 1)
		assert.Equal(t, OutcomeChecked, res.Files[0].Outcome)

		require.Len(t, seen, 1)
		assert.Equal(t, "report.txt", seen[0].DocumentName)
		assert.Equal(t, kp.PublicKey(), seen[0].PublicKey)
		assert.Equal(t, Decisions, seen[0].Options)

		assert.FileExists(t, filepath.Join(l.Checked, "report.txt"))
		assert.FileExists(t, filepath.Join(l.CheckedSig, "report.txt.edsig"))

		listed, err := list.Contains(kp.PublicKey())
		require.NoError(t, err)
		assert.True(t, listed)
	})

	t.Run("TrustOnceChecksWithoutListing", func(t *testing.T) {
		l := newLayout(t)
		signInto(t, kp, l.Verified, "report.txt", "report", envelope.Separate)
		list := trust.NewTrustList(filepath.Join(t.TempDir(), "trusted_keys.txt"))
		var seen []Candidate

		res, err := Authenticate(context.Background(), AuthenticateOptions{
			Layout:    l,
			Resolver:  &fakeResolver{verdict: trustedVerdict},
			TrustList: list,
			Decide:    decideWith(TrustOnce, &seen),
		})
		require.NoError(t, err)
		require.Len(t, seen, 1)
		require.Len(t, res.Files, 1)
		assert.Equal(t, OutcomeChecked, res.Files[0].Outcome)

		assert.FileExists(t, filepath.Join(l.Checked, "report.txt"))
		assert.FileExists(t, filepath.Join(l.CheckedSig, "report.txt.edsig"))
		assert.NoFileExists(t, filepath.Join(l.Verified, "report.txt"))

		keys, err := list.Keys()
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("ListedKeySkipsLookup", func(t *testing.T) {
		l := newLayout(t)
		signInto(t, kp, l.Verified, "report.txt", "report", envelope.Bundled)
		write(t, filepath.Join(l.Verified, "report.txt"), "report")
		list := trust.NewTrustList(filepath.Join(t.TempDir(), "trusted_keys.txt"))
		require.NoError(t, list.Add(kp.PublicKey()))
		resolver := &fakeResolver{verdict: trustedVerdict}
		var seen []Candidate

		res, err := Authenticate(context.Background(), AuthenticateOptions{
			Layout:    l,
			Resolver:  resolver,
			TrustList: list,
			Decide:    decideWith(Distrust, &seen),
		})
		require.NoError(t, err)
		require.Len(t, res.Files, 1)
		assert.Equal(t, OutcomeChecked, res.Files[0].Outcome)
		assert.Empty(t, seen)
		assert.Empty(t, resolver.calls)
		assert.FileExists(t, filepath.Join(l.Checked, "report.txt"))
		assert.FileExists(t, filepath.Join(l.CheckedBundle, "report.txt.edbnl"))
	})

	t.Run("DistrustQuarantines", func(t *testing.T) {
		l := newLayout(t)
		signInto(t, kp, l.Verified, "report.txt", "report", envelope.Separate)
		var seen []Candidate

		res, err := Authenticate(context.Background(), AuthenticateOptions{
			Layout:   l,
			Resolver: &fakeResolver{verdict: trustedVerdict},
			Decide:   decideWith(Distrust, &seen),
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeDistrusted, res.Files[0].Outcome)
		assert.FileExists(t, filepath.Join(l.Quarantine, "report.txt"))
		assert.FileExists(t, filepath.Join(l.Quarantine, "report.txt.edsig"))
	})

	t.Run("UntrustedVerdictQuarantinesWithoutAsking", func(t *testing.T) {
		l := newLayout(t)
		signInto(t, kp, l.Verified, "report.txt", "report", envelope.Bundled)
		var seen []Candidate

		res, err := Authenticate(context.Background(), AuthenticateOptions{
			Layout:   l,
			Resolver: &fakeResolver{verdict: trust.Verdict{Kind: trust.KindNoProfile, Reason: "no profile found"}},
			Decide:   decideWith(TrustOnce, &seen),
		})
		require.NoError(t, err)
		assert.Empty(t, seen)
		assert.Equal(t, OutcomeQuarantined, res.Files[0].Outcome)
		assert.Equal(t, "no profile found", res.Files[0].Reason)
		assert.FileExists(t, filepath.Join(l.Quarantine, "report.txt.edbnl"))
	})

	t.Run("ConnectivityLeavesFilesInPlace", func(t *testing.T) {
		l := newLayout(t)
		signInto(t, kp, l.Verified, "report.txt", "report", envelope.Separate)
		var seen []Candidate

		res, err := Authenticate(context.Background(), AuthenticateOptions{
			Layout:   l,
			Resolver: &fakeResolver{verdict: trust.Verdict{Kind: trust.KindConnectivity, Reason: "connectivity"}},
			Decide:   decideWith(TrustOnce, &seen),
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeDeferred, res.Files[0].Outcome)
		assert.FileExists(t, filepath.Join(l.Verified, "report.txt"))
		assert.FileExists(t, filepath.Join(l.Verified, "report.txt.edsig"))
	})

	t.Run("DecisionErrorStopsPass", func(t *testing.T) {
		l := newLayout(t)
		signInto(t, kp, l.Verified, "a.txt", "a", envelope.Separate)
		signInto(t, kp, l.Verified, "b.txt", "b", envelope.Separate)
		abort := errors.New("interrupted")

		res, err := Authenticate(context.Background(), AuthenticateOptions{
			Layout:   l,
			Resolver: &fakeResolver{verdict: trustedVerdict},
			Decide: func(ctx context.Context, c Candidate) (Decision, error) {
				return Distrust, abort
			},
		})
		require.ErrorIs(t, err, abort)
		require.Len(t, res.Files, 1)
		assert.FileExists(t, filepath.Join(l.Verified, "b.txt.edsig"))
	})

	t.Run("RequiresDecisionFunc", func(t *testing.T) {
		_, err := Authenticate(context.Background(), AuthenticateOptions{Layout: newLayout(t), Resolver: &fakeResolver{}})
		require.Error(t, err)
	})
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "Do not trust sender", Distrust.String())
	assert.Equal(t, "Trust only for current doc", TrustOnce.String())
	assert.Equal(t, "Add to trusted sender list", TrustAlways.String())
}
