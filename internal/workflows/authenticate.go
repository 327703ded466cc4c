package workflows

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/PolarWolf314/mainsail/internal/audit"
	"github.com/PolarWolf314/mainsail/internal/configs"
	"github.com/PolarWolf314/mainsail/internal/envelope"
	logger "github.com/PolarWolf314/mainsail/internal/logging"
	"github.com/PolarWolf314/mainsail/internal/metrics"
	"github.com/PolarWolf314/mainsail/internal/signing"
	"github.com/PolarWolf314/mainsail/internal/trust"
	"github.com/PolarWolf314/mainsail/internal/utils"
)

const workflowAuthenticate = "authenticate"

// Decision is the user's answer for a trusted signer.
type Decision int

const (
	Distrust Decision = iota
	TrustOnce
	TrustAlways
)

func (d Decision) String() string {
	switch d {
	case Distrust:
		return "Do not trust sender"
	case TrustOnce:
		return "Trust only for current doc"
	case TrustAlways:
		return "Add to trusted sender list"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Decisions lists every decision in the order they are offered.
var Decisions = []Decision{Distrust, TrustOnce, TrustAlways}

// Candidate is a verified document whose signer has an active profile.
type Candidate struct {
	DocumentName string
	PublicKey    string
	Verdict      trust.Verdict
	Options      []Decision
}

// DecisionFunc asks the caller what to do with a candidate. Returning an
// error stops the pass; files already handled stay where they were moved.
type DecisionFunc func(ctx context.Context, c Candidate) (Decision, error)

// Resolver reaches a trust verdict for a public key.
type Resolver interface {
	Lookup(ctx context.Context, publicKey string) trust.Verdict
}

// AuthenticateOptions configures the authenticate workflow.
type AuthenticateOptions struct {
	Layout    configs.FolderLayout
	Resolver  Resolver
	TrustList *trust.TrustList
	Decide    DecisionFunc

	Logger  logger.Logger
	Metrics *metrics.Metrics
	Audit   *audit.Log
}

// Authenticate decides whether the signers of the files in the verified
// folder can be trusted.
//
// Keys on the local trust list are accepted without a lookup. Other keys are
// looked up in the registries: a connectivity verdict leaves the files in
// place, any other untrusted verdict quarantines them, and a trusted signer
// is handed to opts.Decide.
//
// Accepted documents go to checked/, detached signatures to checked/sig and
// bundles to checked/bundle.
func Authenticate(ctx context.Context, opts AuthenticateOptions) (*PassResult, error) {
	if opts.Decide == nil {
		return nil, errors.New("authenticate requires a decision function")
	}
	if opts.Resolver == nil {
		return nil, errors.New("authenticate requires a resolver")
	}

	files, err := utils.ListFiles(opts.Layout.Verified)
	if err != nil {
		return nil, err
	}

	result := &PassResult{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		var req signing.SignedFile
		switch {
		case strings.HasSuffix(path, envelope.BundleSuffix):
			req.BundlePath = path
		case strings.HasSuffix(path, envelope.SignatureSuffix):
			req.SignaturePath = path
		default:
			// Documents travel with their signature or bundle.
			continue
		}

		fr, err := authenticateOne(ctx, opts, req)
		if fr.Outcome != "" {
			opts.Metrics.FileProcessed(workflowAuthenticate, fr.Outcome)
			entry := audit.Entry{
				Operation: audit.OpTrust,
				Files:     fr.Files,
				PublicKey: fr.PublicKey,
				Outcome:   fr.Outcome,
				Verdict:   fr.Reason,
			}
			if fr.Err != nil {
				entry.Error = fr.Err.Error()
			}
			opts.Audit.Record(entry)
			result.Files = append(result.Files, fr)
		}
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

func authenticateOne(ctx context.Context, opts AuthenticateOptions, req signing.SignedFile) (FileResult, error) {
	log := opts.Logger
	path := req.BundlePath + req.SignaturePath
	fr := FileResult{Name: filepath.Base(path)}

	sf, err := signing.LoadSignedFile(req)
	if err != nil {
		log.Warnf("Skipping %s: %v", fr.Name, err)
		fr.Outcome = OutcomeSkipped
		fr.Files = []string{path}
		fr.Err = err
		return fr, nil
	}
	fr.Name = filepath.Base(sf.DocumentPath)
	fr.PublicKey = sf.PublicKey
	files := filesInVerified(sf)

	if opts.TrustList != nil {
		listed, err := opts.TrustList.Contains(sf.PublicKey)
		if err != nil {
			log.WarnfAlways("Could not read trust list: %v", err)
		}
		if listed {
			fr.Reason = "trusted sender list"
			return accept(opts, fr, sf, files), nil
		}
	}

	verdict := opts.Resolver.Lookup(ctx, sf.PublicKey)
	fr.Reason = verdict.Reason
	switch {
	case verdict.Kind == trust.KindConnectivity:
		log.WarnfUser("Could not reach the key registries for %s. It stays in %s.", fr.Name, opts.Layout.Verified)
		fr.Outcome = OutcomeDeferred
		fr.Files = files
		return fr, nil
	case !verdict.Trusted:
		fr.Outcome = OutcomeQuarantined
		return toQuarantine(opts, fr, files), nil
	}

	decision, err := opts.Decide(ctx, Candidate{
		DocumentName: fr.Name,
		PublicKey:    sf.PublicKey,
		Verdict:      verdict,
		Options:      Decisions,
	})
	if err != nil {
		fr.Outcome = OutcomeDeferred
		fr.Files = files
		fr.Err = err
		return fr, err
	}

	switch decision {
	case TrustOnce:
		return accept(opts, fr, sf, files), nil
	case TrustAlways:
		fr = accept(opts, fr, sf, files)
		if fr.Outcome == OutcomeChecked && opts.TrustList != nil {
			if err := opts.TrustList.Add(sf.PublicKey); err != nil {
				log.Errorf("Could not add %s to the trust list: %v", sf.PublicKey, err)
				fr.Err = err
			}
		}
		return fr, nil
	default:
		fr.Outcome = OutcomeDistrusted
		return toQuarantine(opts, fr, files), nil
	}
}

// filesInVerified lists the files belonging to sf that sit in the verified
// folder. A bundle's document is there only once it has been unpacked.
func filesInVerified(sf *signing.SignedFile) []string {
	if !sf.IsBundle() {
		return sf.FilesAtRest()
	}
	if utils.FileExists(sf.DocumentPath) {
		return []string{sf.DocumentPath, sf.BundlePath}
	}
	return []string{sf.BundlePath}
}

func accept(opts AuthenticateOptions, fr FileResult, sf *signing.SignedFile, files []string) FileResult {
	l := opts.Layout
	var moves []move
	for _, f := range files {
		dir := l.Checked
		switch f {
		case sf.SignaturePath:
			dir = l.CheckedSig
		case sf.BundlePath:
			dir = l.CheckedBundle
		}
		moves = append(moves, into(dir, f)...)
	}

	if err := relocate(moves); err != nil {
		opts.Logger.Errorf("Could not move %s to %s: %v", fr.Name, l.Checked, err)
		fr.Outcome = OutcomeFailed
		fr.Files = files
		fr.Err = err
		return fr
	}
	fr.Outcome = OutcomeChecked
	fr.Files = make([]string, len(moves))
	for i, m := range moves {
		fr.Files[i] = m.dst
	}
	return fr
}

func toQuarantine(opts AuthenticateOptions, fr FileResult, files []string) FileResult {
	if err := relocate(into(opts.Layout.Quarantine, files...)); err != nil {
		opts.Logger.Errorf("Could not quarantine %s: %v", fr.Name, err)
		fr.Outcome = OutcomeFailed
		fr.Files = files
		fr.Err = err
		return fr
	}
	fr.Files = destinations(opts.Layout.Quarantine, files)
	return fr
}
