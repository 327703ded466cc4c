package workflows

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/PolarWolf314/mainsail/internal/audit"
	"github.com/PolarWolf314/mainsail/internal/configs"
	"github.com/PolarWolf314/mainsail/internal/envelope"
	merrors "github.com/PolarWolf314/mainsail/internal/errors"
	logger "github.com/PolarWolf314/mainsail/internal/logging"
	"github.com/PolarWolf314/mainsail/internal/metrics"
	"github.com/PolarWolf314/mainsail/internal/signing"
	"github.com/PolarWolf314/mainsail/internal/utils"
)

const workflowVerify = "auto_verify"

// AutoVerifyOptions configures the auto-verify loop.
type AutoVerifyOptions struct {
	Layout configs.FolderLayout

	// Ignore holds doublestar patterns matched against file names.
	// Nil means DefaultIgnore.
	Ignore []string

	Logger  logger.Logger
	Metrics *metrics.Metrics
	Audit   *audit.Log
}

// AutoVerify checks every signed file dropped into the to-check folder.
//
// Files whose companion is missing go on a skip list that lasts as long as
// the AutoVerify value, so a long-running loop does not report them on every
// pass. Create a new AutoVerify to look at them again.
type AutoVerify struct {
	opts AutoVerifyOptions

	mu   sync.Mutex
	skip map[string]struct{}
}

func NewAutoVerify(opts AutoVerifyOptions) *AutoVerify {
	opts.Ignore = ignorePatterns(opts.Ignore)
	return &AutoVerify{opts: opts, skip: make(map[string]struct{})}
}

// Skipped returns the paths currently on the skip list.
func (a *AutoVerify) Skipped() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.skip))
	for p := range a.skip {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

func (a *AutoVerify) skipped(path string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.skip[path]
	return ok
}

func (a *AutoVerify) addSkip(path string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.skip[path] = struct{}{}
}

// Pass verifies each signed file in the to-check folder.
//
// A verified document and its signature move to the verified folder; a
// bundle is first unpacked next to itself so the document travels with it.
// Anything that fails verification moves to quarantine. A document and its
// signature move together or not at all.
func (a *AutoVerify) Pass(ctx context.Context) (*PassResult, error) {
	files, err := utils.ListFiles(a.opts.Layout.VerifyIn)
	if err != nil {
		return nil, err
	}

	result := &PassResult{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if ignored(path, a.opts.Ignore) || a.skipped(path) {
			continue
		}
		// Already moved along with a companion earlier in this pass.
		if !utils.FileExists(path) {
			continue
		}

		fr := a.verifyOne(path)
		if fr.Outcome == OutcomeSkipped {
			result.NeedsRestart = true
		}
		a.opts.Metrics.FileProcessed(workflowVerify, fr.Outcome)
		entry := audit.Entry{
			Operation: audit.OpVerify,
			Files:     fr.Files,
			PublicKey: fr.PublicKey,
			Outcome:   fr.Outcome,
		}
		if fr.Err != nil {
			entry.Error = fr.Err.Error()
		}
		a.opts.Audit.Record(entry)
		result.Files = append(result.Files, fr)
	}
	return result, nil
}

// classify builds the signed-file request for a file found in the inbox.
func classify(path string) signing.SignedFile {
	switch {
	case strings.HasSuffix(path, envelope.BundleSuffix):
		return signing.SignedFile{BundlePath: path}
	case strings.HasSuffix(path, envelope.SignatureSuffix):
		return signing.SignedFile{SignaturePath: path}
	default:
		return signing.SignedFile{DocumentPath: path}
	}
}

// presentFiles lists the files of req that exist, whether or not the
// envelope could be read.
func presentFiles(req signing.SignedFile) []string {
	var candidates []string
	switch {
	case req.BundlePath != "":
		candidates = []string{req.BundlePath}
	case req.SignaturePath != "":
		candidates = []string{strings.TrimSuffix(req.SignaturePath, envelope.SignatureSuffix), req.SignaturePath}
	default:
		candidates = []string{req.DocumentPath, req.DocumentPath + envelope.SignatureSuffix}
	}

	var out []string
	for _, c := range candidates {
		if utils.FileExists(c) {
			out = append(out, c)
		}
	}
	return out
}

func (a *AutoVerify) verifyOne(path string) FileResult {
	fr := FileResult{Name: filepath.Base(path)}
	req := classify(path)
	log := a.opts.Logger

	sf, err := signing.LoadSignedFile(req)
	switch {
	case err == nil:
	case errors.Is(err, merrors.ErrMissingSignature), errors.Is(err, merrors.ErrMissingDocument):
		log.WarnfUser("File %s could not be verified: %v. Restart to check it again.", fr.Name, err)
		a.addSkip(path)
		fr.Outcome = OutcomeSkipped
		fr.Files = []string{path}
		fr.Reason = "missing companion file"
		fr.Err = err
		return fr
	case errors.Is(err, merrors.ErrMalformedEnvelope), errors.Is(err, merrors.ErrInvalidEncoding):
		fr.Reason = "unreadable signature"
		fr.Err = err
		return a.quarantine(fr, presentFiles(req), path)
	default:
		log.Errorf("Could not read %s: %v", fr.Name, err)
		a.addSkip(path)
		fr.Outcome = OutcomeFailed
		fr.Files = []string{path}
		fr.Err = err
		return fr
	}

	fr.PublicKey = sf.PublicKey
	ok, err := sf.Verify()
	if err != nil {
		fr.Reason = "unreadable signature"
		fr.Err = err
		return a.quarantine(fr, sf.FilesAtRest(), path)
	}
	if !ok {
		log.WarnfUser("The signature and file %s are not consistent. You should not trust the document.", fr.Name)
		fr.Reason = "signature does not match"
		return a.quarantine(fr, sf.FilesAtRest(), path)
	}

	files := sf.FilesAtRest()
	var extracted string
	if sf.IsBundle() {
		extracted = sf.DocumentPath
		if err := writeNew(extracted, sf.Message); err != nil {
			log.Errorf("Could not unpack %s: %v", fr.Name, err)
			a.addSkip(path)
			fr.Outcome = OutcomeFailed
			fr.Files = files
			fr.Err = err
			return fr
		}
		files = []string{extracted, sf.BundlePath}
	}

	if err := relocate(into(a.opts.Layout.Verified, files...)); err != nil {
		if extracted != "" {
			os.Remove(extracted)
		}
		log.Errorf("Could not move %s to %s: %v", fr.Name, a.opts.Layout.Verified, err)
		a.addSkip(path)
		fr.Outcome = OutcomeFailed
		fr.Files = sf.FilesAtRest()
		fr.Err = err
		return fr
	}

	log.Infof("Verified %s, moved to %s", fr.Name, a.opts.Layout.Verified)
	fr.Outcome = OutcomeVerified
	fr.Files = destinations(a.opts.Layout.Verified, files)
	return fr
}

func (a *AutoVerify) quarantine(fr FileResult, files []string, path string) FileResult {
	if err := relocate(into(a.opts.Layout.Quarantine, files...)); err != nil {
		a.opts.Logger.Errorf("Could not quarantine %s: %v", fr.Name, err)
		a.addSkip(path)
		fr.Outcome = OutcomeFailed
		fr.Files = files
		fr.Err = errors.Join(fr.Err, err)
		return fr
	}
	a.opts.Logger.Infof("Quarantined %s (%s)", fr.Name, fr.Reason)
	fr.Outcome = OutcomeQuarantined
	fr.Files = destinations(a.opts.Layout.Quarantine, files)
	return fr
}

func destinations(dir string, files []string) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = filepath.Join(dir, filepath.Base(f))
	}
	return out
}
