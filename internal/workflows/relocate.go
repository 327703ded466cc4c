package workflows

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/mainsail/internal/utils"
)

// move is a single file relocation.
type move struct {
	src string
	dst string
}

// into builds moves that place each file directly inside dir.
func into(dir string, files ...string) []move {
	moves := make([]move, 0, len(files))
	for _, f := range files {
		moves = append(moves, move{src: f, dst: filepath.Join(dir, filepath.Base(f))})
	}
	return moves
}

// relocate performs every move or none of them. When a move fails, the
// files already moved are put back and the original error is returned.
func relocate(moves []move) error {
	for i, m := range moves {
		if err := os.MkdirAll(filepath.Dir(m.dst), 0755); err != nil {
			return errors.Join(fmt.Errorf("failed to create %s: %w", filepath.Dir(m.dst), err), rollback(moves[:i]))
		}
		if err := utils.MoveFile(m.src, m.dst); err != nil {
			return errors.Join(err, rollback(moves[:i]))
		}
	}
	return nil
}

func rollback(done []move) error {
	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		if err := utils.MoveFile(done[i].dst, done[i].src); err != nil {
			errs = append(errs, fmt.Errorf("rollback of %s failed: %w", done[i].src, err))
		}
	}
	return errors.Join(errs...)
}
