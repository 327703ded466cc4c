package workflows

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/mainsail/internal/audit"
	"github.com/PolarWolf314/mainsail/internal/configs"
	"github.com/PolarWolf314/mainsail/internal/envelope"
	merrors "github.com/PolarWolf314/mainsail/internal/errors"
	logger "github.com/PolarWolf314/mainsail/internal/logging"
	"github.com/PolarWolf314/mainsail/internal/metrics"
	"github.com/PolarWolf314/mainsail/internal/signing"
	"github.com/PolarWolf314/mainsail/internal/utils"
)

const workflowSign = "auto_sign"

// AutoSignOptions configures the auto-sign loop.
type AutoSignOptions struct {
	Layout configs.FolderLayout
	Format envelope.Format
	Key    signing.KeyPair

	// Ignore holds doublestar patterns matched against file names.
	// Nil means DefaultIgnore.
	Ignore []string

	Logger  logger.Logger
	Metrics *metrics.Metrics
	Audit   *audit.Log
}

// AutoSign signs every document dropped into the to-sign folder.
type AutoSign struct {
	opts AutoSignOptions
}

func NewAutoSign(opts AutoSignOptions) *AutoSign {
	opts.Ignore = ignorePatterns(opts.Ignore)
	return &AutoSign{opts: opts}
}

// Pass signs each regular file currently in the to-sign folder, writes the
// artifact to the signed folder and moves the document after it. A document
// that cannot be signed stays where it is and any artifact written for it is
// removed. The pass stops early when ctx is cancelled.
func (a *AutoSign) Pass(ctx context.Context) (*PassResult, error) {
	files, err := utils.ListFiles(a.opts.Layout.SignIn)
	if err != nil {
		return nil, err
	}

	result := &PassResult{}
	for _, doc := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if ignored(doc, a.opts.Ignore) {
			continue
		}

		fr := a.signOne(doc)
		a.opts.Metrics.FileProcessed(workflowSign, fr.Outcome)
		entry := audit.Entry{
			Operation: audit.OpSign,
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

func (a *AutoSign) signOne(doc string) FileResult {
	fr := FileResult{Name: filepath.Base(doc), PublicKey: a.opts.Key.PublicKey()}
	a.opts.Logger.Infof("File to sign: %s", fr.Name)

	fail := func(err error) FileResult {
		a.opts.Logger.Errorf("Could not sign %s: %v", fr.Name, err)
		fr.Outcome = OutcomeFailed
		fr.Files = []string{doc}
		fr.Err = err
		return fr
	}

	data, err := os.ReadFile(doc)
	if err != nil {
		return fail(fmt.Errorf("failed to read %s: %w", doc, err))
	}

	env, err := signing.Sign(a.opts.Key, data, a.opts.Format)
	if err != nil {
		return fail(err)
	}

	if err := os.MkdirAll(a.opts.Layout.SignOut, 0755); err != nil {
		return fail(fmt.Errorf("failed to create %s: %w", a.opts.Layout.SignOut, err))
	}

	artifact := filepath.Join(a.opts.Layout.SignOut, fr.Name+envelope.Suffix(a.opts.Format))
	if err := writeNew(artifact, env.Bytes()); err != nil {
		return fail(err)
	}

	moved := filepath.Join(a.opts.Layout.SignOut, fr.Name)
	if err := relocate([]move{{src: doc, dst: moved}}); err != nil {
		if rmErr := os.Remove(artifact); rmErr != nil {
			a.opts.Logger.WarnfAlways("Could not remove %s: %v", artifact, rmErr)
		}
		return fail(err)
	}

	a.opts.Logger.Infof("Signed %s, moved to %s", fr.Name, a.opts.Layout.SignOut)
	fr.Outcome = OutcomeSigned
	fr.Files = []string{moved, artifact}
	return fr
}

// writeNew creates path with data and fails with ErrDestinationExists
// rather than overwrite an existing file.
func writeNew(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", merrors.ErrDestinationExists, path)
		}
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			os.Remove(path)
		}
	}()

	if _, err = f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
