package cli

import (
	"fmt"
	"strings"

	"repertoire-cli/internal/model"
	"repertoire-cli/internal/repertoire"
)

type usageError struct {
	msg string
}

func (e usageError) Error() string { return e.msg }

func errUsage(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

func errNotFound(kind, id string) error {
	return repertoire.NotFoundError{Kind: kind, ID: id}
}

func requireLine(t *repertoire.Tree, id string) (model.Line, error) {
	l, ok := t.Line(strings.TrimSpace(id))
	if !ok {
		return model.Line{}, errNotFound("line", id)
	}
	return l, nil
}

func requireFolder(t *repertoire.Tree, id string) (model.Folder, error) {
	f, ok := t.Folder(strings.TrimSpace(id))
	if !ok {
		return model.Folder{}, errNotFound("folder", id)
	}
	return f, nil
}
