package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	documentsRootName = "_digital_signatures"
	desktopLinkName   = "digital_signatures"
)

// FolderLayout is the set of work-queue directories under one root.
type FolderLayout struct {
	Root string

	SignIn        string // to-sign
	SignOut       string // to-sign/signed
	VerifyIn      string // to-check
	Quarantine    string // to-check/quarantine
	Verified      string // to-check/verified
	Checked       string // to-check/checked
	CheckedSig    string // to-check/checked/sig
	CheckedBundle string // to-check/checked/bundle
}

// NewFolderLayout returns the tree rooted at ~/Desktop or
// ~/Documents/_digital_signatures.
func NewFolderLayout(homeDir string, loc FoldersLocation) FolderLayout {
	root := filepath.Join(homeDir, "Desktop")
	if loc == FoldersDocuments {
		root = filepath.Join(homeDir, "Documents", documentsRootName)
	}
	return LayoutAt(root)
}

// LayoutAt builds a layout under an arbitrary root.
func LayoutAt(root string) FolderLayout {
	signIn := filepath.Join(root, "to-sign")
	verifyIn := filepath.Join(root, "to-check")
	checked := filepath.Join(verifyIn, "checked")
	return FolderLayout{
		Root:          root,
		SignIn:        signIn,
		SignOut:       filepath.Join(signIn, "signed"),
		VerifyIn:      verifyIn,
		Quarantine:    filepath.Join(verifyIn, "quarantine"),
		Verified:      filepath.Join(verifyIn, "verified"),
		Checked:       checked,
		CheckedSig:    filepath.Join(checked, "sig"),
		CheckedBundle: filepath.Join(checked, "bundle"),
	}
}

// Dirs lists every directory in the layout, parents before children.
func (l FolderLayout) Dirs() []string {
	return []string{
		l.SignIn, l.SignOut,
		l.VerifyIn, l.Quarantine, l.Verified,
		l.Checked, l.CheckedSig, l.CheckedBundle,
	}
}

// FolderChanges records what PrepareFolders did.
type FolderChanges struct {
	Created []string
	Moved   []string
	Linked  string
}

// Changed reports whether any directory was created or moved.
func (c *FolderChanges) Changed() bool {
	return len(c.Created) > 0 || len(c.Moved) > 0
}

// PrepareFolders makes every directory of the layout for loc exist. A
// directory missing at the target that exists under the other root is moved
// rather than recreated. When something changed, a Desktop shortcut to the
// Documents tree is created or the stale one removed.
func PrepareFolders(homeDir string, loc FoldersLocation) (*FolderChanges, error) {
	other := FoldersDocuments
	if loc == FoldersDocuments {
		other = FoldersDesktop
	}
	target := NewFolderLayout(homeDir, loc)
	previous := NewFolderLayout(homeDir, other)

	changes := &FolderChanges{}
	targetDirs := target.Dirs()
	previousDirs := previous.Dirs()

	for i, dir := range targetDirs {
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return changes, fmt.Errorf("%s exists and is not a directory", dir)
			}
			continue
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return changes, fmt.Errorf("failed to inspect %s: %w", dir, err)
		}

		if isDir(previousDirs[i]) {
			if err := moveDir(previousDirs[i], dir); err != nil {
				return changes, fmt.Errorf("failed to move %s to %s: %w", previousDirs[i], dir, err)
			}
			changes.Moved = append(changes.Moved, dir)
			continue
		}

		if err := os.MkdirAll(dir, 0755); err != nil {
			return changes, fmt.Errorf("failed to create %s: %w", dir, err)
		}
		changes.Created = append(changes.Created, dir)
	}

	if !changes.Changed() {
		return changes, nil
	}

	docRoot := filepath.Join(homeDir, "Documents", documentsRootName)
	link := filepath.Join(homeDir, "Desktop", desktopLinkName)

	if loc == FoldersDocuments {
		if _, err := os.Lstat(link); errors.Is(err, fs.ErrNotExist) {
			if err := os.Symlink(docRoot, link); err != nil {
				return changes, fmt.Errorf("failed to create shortcut %s: %w", link, err)
			}
			changes.Linked = link
		}
		return changes, nil
	}

	// Back on the Desktop: drop the empty Documents root and its shortcut.
	_ = os.Remove(docRoot)
	if info, err := os.Lstat(link); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(link); err != nil {
			return changes, fmt.Errorf("failed to remove shortcut %s: %w", link, err)
		}
	}
	return changes, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// moveDir renames src to dst, copying across devices when rename fails.
func moveDir(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyDir(src, dst); err != nil {
		_ = os.RemoveAll(dst)
		return err
	}
	return os.RemoveAll(src)
}

// copyDir recursively copies a directory.
func copyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
		} else {
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}

	return nil
}

func copyFile(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	return os.WriteFile(dst, data, srcInfo.Mode().Perm())
}
