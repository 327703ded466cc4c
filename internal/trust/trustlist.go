package trust

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/PolarWolf314/mainsail/internal/envelope"
)

// TrustList is the local file of always-trusted public keys.
type TrustList struct {
	Path string

	mu sync.Mutex
}

func NewTrustList(path string) *TrustList {
	return &TrustList{Path: path}
}

// Contains reports whether publicKey is on the list. A missing file is an
// empty list.
func (l *TrustList) Contains(publicKey string) (bool, error) {
	keys, err := l.Keys()
	if err != nil {
		return false, err
	}
	for _, k := range keys {
		if k == publicKey {
			return true, nil
		}
	}
	return false, nil
}

// Add appends publicKey to the list. Duplicates are not removed.
func (l *TrustList) Add(publicKey string) error {
	if _, err := envelope.DecodeKey(publicKey); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.Path), 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(l.Path), err)
	}
	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open trust list: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(publicKey + "\n"); err != nil {
		return fmt.Errorf("failed to write trust list: %w", err)
	}
	return nil
}

// Keys returns every non-empty line of the list in file order.
func (l *TrustList) Keys() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open trust list: %w", err)
	}
	defer f.Close()

	var keys []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			keys = append(keys, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trust list: %w", err)
	}
	return keys, nil
}
