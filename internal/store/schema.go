package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"repertoire-cli/internal/model"
	"repertoire-cli/internal/repertoire"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SchemaError lists shape problems found before structural checks run.
type SchemaError struct {
	Problems []string
}

func (e SchemaError) Error() string {
	return "invalid repertoire file: " + strings.Join(e.Problems, "; ")
}

// DecodeRepertoire reads the persisted JSON shape and hydrates a tree from it.
func DecodeRepertoire(r io.Reader) (*repertoire.Tree, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var rep model.Repertoire
	if err := dec.Decode(&rep); err != nil {
		return nil, SchemaError{Problems: []string{err.Error()}}
	}
	if err := ValidateRepertoire(rep); err != nil {
		return nil, err
	}
	return repertoire.FromSnapshot(rep)
}

func ValidateRepertoire(rep model.Repertoire) error {
	err := validate.Struct(rep)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate repertoire: %w", err)
	}
	out := SchemaError{}
	for _, fe := range verrs {
		out.Problems = append(out.Problems, describeFieldError(fe))
	}
	return out
}

func describeFieldError(fe validator.FieldError) string {
	ns := strings.TrimPrefix(fe.Namespace(), "Repertoire.")
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s: %q is not one of [%s]", ns, fmt.Sprint(fe.Value()), fe.Param())
	case "required":
		return ns + ": required"
	case "min":
		return fmt.Sprintf("%s: needs at least %s entries", ns, fe.Param())
	default:
		return fmt.Sprintf("%s: failed %s", ns, fe.Tag())
	}
}

// EncodeRepertoire writes t in the persisted JSON shape. Map keys come out sorted.
func EncodeRepertoire(w io.Writer, t *repertoire.Tree, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(t.Snapshot())
}
