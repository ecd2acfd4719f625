package gitrepo

import (
	"context"
	"errors"
	"strings"
)

func Init(ctx context.Context, dir string) error {
	_, err := git(ctx, dir, "init")
	return err
}

// SetRemoteURL adds the remote, or updates it when it already exists.
func SetRemoteURL(ctx context.Context, dir, remoteName, remoteURL string) error {
	remoteName = strings.TrimSpace(remoteName)
	remoteURL = strings.TrimSpace(remoteURL)
	if remoteName == "" {
		remoteName = "origin"
	}
	if remoteURL == "" {
		return errors.New("empty remote url")
	}
	if _, err := git(ctx, dir, "remote", "get-url", remoteName); err == nil {
		_, err := git(ctx, dir, "remote", "set-url", remoteName, remoteURL)
		return err
	}
	_, err := git(ctx, dir, "remote", "add", remoteName, remoteURL)
	return err
}

func PullRebase(ctx context.Context, dir string) error {
	_, err := git(ctx, dir, "pull", "--rebase")
	return err
}

func Push(ctx context.Context, dir string) error {
	_, err := git(ctx, dir, "push")
	return err
}

func PushSetUpstream(ctx context.Context, dir, remoteName, branch string) error {
	remoteName = strings.TrimSpace(remoteName)
	branch = strings.TrimSpace(branch)
	if remoteName == "" {
		remoteName = "origin"
	}
	if branch == "" {
		branch = "HEAD"
	}
	_, err := git(ctx, dir, "push", "-u", remoteName, branch)
	return err
}

func IsNonFastForwardPushErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, needle := range []string{
		"non-fast-forward",
		"fetch first",
		"rejected",
	} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
