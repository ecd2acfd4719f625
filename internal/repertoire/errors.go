package repertoire

import "fmt"

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// RefusedError reports a structural refusal surfaced through a Workspace.
type RefusedError struct {
	Op     string
	ID     string
	Reason string
}

func (e RefusedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s refused: %s", e.Op, e.ID)
	}
	return fmt.Sprintf("%s refused for %s: %s", e.Op, e.ID, e.Reason)
}
