// Package backend provides the file systems the site is read from: a plain
// directory or the tree of a git branch.
package backend

import (
	"io/ioutil"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/gogits/git"
	"github.com/lemmi/ghfs"
	"github.com/pkg/errors"
)

type Backend interface {
	http.FileSystem
}

// CIDer is implemented by backends that are pinned to a commit. CID is the
// commit id.
type CIDer interface {
	CID() string
}

type gitBackend struct {
	http.FileSystem
	cid string
}

func (g gitBackend) CID() string {
	return g.cid
}

// Dir serves the files below root.
func Dir(root string) Backend {
	return http.Dir(root)
}

// GitDir returns the .git directory of the working tree at root, or root
// itself for bare repositories.
func GitDir(root string) string {
	dotgit := filepath.Join(root, ".git")
	if fi, err := os.Stat(dotgit); err == nil && fi.IsDir() {
		return dotgit
	}
	return root
}

// Git serves the tree of the tip of branch in the repository at root.
// root may be a working tree or a bare repository.
func Git(root, branch string) (Backend, error) {
	repo, err := git.OpenRepository(GitDir(root))
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot open repository: %q", root)
	}
	commit, err := repo.GetCommitOfBranch(branch)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot open branch %q in %q", branch, root)
	}
	return gitBackend{
		FileSystem: ghfs.FromCommit(commit),
		cid:        commit.Id.String(),
	}, nil
}

// Clean turns a slash separated relative name into the rooted form
// http.FileSystem expects.
func Clean(name string) string {
	return path.Clean("/" + name)
}

// ReadFile reads the whole file name from b.
func ReadFile(b Backend, name string) ([]byte, error) {
	f, err := b.Open(Clean(name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if stat.IsDir() {
		return nil, &os.PathError{Op: "read", Path: name, Err: errors.New("is a directory")}
	}
	return ioutil.ReadAll(f)
}

// Exists reports whether name can be found in b. Errors other than a
// missing file are returned.
func Exists(b Backend, name string) (bool, error) {
	f, err := b.Open(Clean(name))
	if err != nil {
		if IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	f.Close()
	return true, nil
}

// IsNotExist unwraps err and reports whether it describes a missing file.
func IsNotExist(err error) bool {
	return os.IsNotExist(errors.Cause(err)) || errors.Is(err, os.ErrNotExist)
}
