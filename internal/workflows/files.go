package workflows

import (
	"context"
	"fmt"
	"os"

	"github.com/PolarWolf314/mainsail/internal/audit"
	"github.com/PolarWolf314/mainsail/internal/envelope"
	"github.com/PolarWolf314/mainsail/internal/signing"
	"github.com/PolarWolf314/mainsail/internal/trust"
)

// SignFileOptions configures SignFile.
type SignFileOptions struct {
	Path   string
	Format envelope.Format
	Key    signing.KeyPair
	Audit  *audit.Log
}

// SignFileResult contains the outcome of signing one file.
type SignFileResult struct {
	ArtifactPath string
	PublicKey    string
}

// SignFile signs the document at opts.Path and writes the bundle or detached
// signature next to it. The document itself is left in place. Returns
// ErrDestinationExists if the artifact already exists.
func SignFile(ctx context.Context, opts SignFileOptions) (*SignFileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", opts.Path, err)
	}

	env, err := signing.Sign(opts.Key, data, opts.Format)
	if err != nil {
		return nil, err
	}

	artifact := opts.Path + envelope.Suffix(opts.Format)
	if err := writeNew(artifact, env.Bytes()); err != nil {
		return nil, err
	}

	opts.Audit.Record(audit.Entry{
		Operation: audit.OpSign,
		Files:     []string{opts.Path, artifact},
		PublicKey: env.PublicKey,
		Outcome:   OutcomeSigned,
	})
	return &SignFileResult{ArtifactPath: artifact, PublicKey: env.PublicKey}, nil
}

// VerifyFileOptions configures VerifyFile.
type VerifyFileOptions struct {
	// Path is a document, a detached signature or a bundle.
	Path string

	// Resolver, when set, also looks up the signer.
	Resolver Resolver

	Audit *audit.Log
}

// VerifyFileResult contains the outcome of verifying one file.
type VerifyFileResult struct {
	SignedFile *signing.SignedFile
	Valid      bool

	// Verdict is set when a resolver was supplied and the signature is valid.
	Verdict *trust.Verdict
}

// VerifyFile checks one signed file without moving anything. A signature
// that does not match is reported through Valid, not as an error.
func VerifyFile(ctx context.Context, opts VerifyFileOptions) (*VerifyFileResult, error) {
	sf, err := signing.LoadSignedFile(classify(opts.Path))
	if err != nil {
		return nil, err
	}

	ok, err := sf.Verify()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opts.Path, err)
	}

	result := &VerifyFileResult{SignedFile: sf, Valid: ok}
	outcome := OutcomeVerified
	if !ok {
		outcome = OutcomeFailed
	}

	if ok && opts.Resolver != nil {
		v := opts.Resolver.Lookup(ctx, sf.PublicKey)
		result.Verdict = &v
	}

	entry := audit.Entry{
		Operation: audit.OpVerify,
		Files:     sf.FilesAtRest(),
		PublicKey: sf.PublicKey,
		Outcome:   outcome,
	}
	if result.Verdict != nil {
		entry.Verdict = result.Verdict.Kind.String()
	}
	opts.Audit.Record(entry)
	return result, nil
}
