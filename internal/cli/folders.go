package cli

import (
	"strings"

	"repertoire-cli/internal/model"
	"repertoire-cli/internal/repertoire"

	"github.com/spf13/cobra"
)

type folderView struct {
	ID       string         `json:"id" yaml:"id"`
	Name     string         `json:"name" yaml:"name"`
	Contains model.Contains `json:"contains" yaml:"contains"`
	Parent   string         `json:"parent,omitempty" yaml:"parent,omitempty"`
	Path     []string       `json:"path" yaml:"path"`
	Children []string       `json:"children" yaml:"children"`
}

// treeNode is one entry of `folders tree`. Lines are labelled by their moves.
type treeNode struct {
	ID       string         `json:"id" yaml:"id"`
	Kind     string         `json:"kind" yaml:"kind"`
	Name     string         `json:"name,omitempty" yaml:"name,omitempty"`
	Contains model.Contains `json:"contains,omitempty" yaml:"contains,omitempty"`
	Player   model.Colour   `json:"player,omitempty" yaml:"player,omitempty"`
	PGN      string         `json:"pgn,omitempty" yaml:"pgn,omitempty"`
	Children []*treeNode    `json:"children,omitempty" yaml:"children,omitempty"`
}

func newFoldersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "folders",
		Aliases: []string{"folder"},
		Short:   "Folder commands (the roots are 'w' and 'b')",
	}
	cmd.AddCommand(newFoldersCreateCmd(app))
	cmd.AddCommand(newFoldersRenameCmd(app))
	cmd.AddCommand(newFoldersMoveCmd(app))
	cmd.AddCommand(newFoldersDeleteCmd(app))
	cmd.AddCommand(newFoldersListCmd(app))
	cmd.AddCommand(newFoldersTreeCmd(app))
	return cmd
}

func newFoldersCreateCmd(app *App) *cobra.Command {
	var name, parent string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" {
				return writeErr(cmd, errUsage("missing --name"))
			}
			ws, _, err := loadWorkspace(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			id, err := ws.CreateFolder(cmd.Context(), name, parent)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   describeFolder(ws.Tree(), id),
				"_hints": []string{"repertoire lines create --parent " + id + " --player w --pgn \"1. e4\""},
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Folder name")
	cmd.Flags().StringVar(&parent, "parent", model.RootWhite, "Parent folder id")
	return cmd
}

func newFoldersRenameCmd(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "rename <folder-id>",
		Short: "Rename a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" {
				return writeErr(cmd, errUsage("missing --name"))
			}
			ws, _, err := loadWorkspace(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := ws.RenameFolder(cmd.Context(), args[0], name); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": describeFolder(ws.Tree(), args[0])})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New folder name")
	return cmd
}

func newFoldersMoveCmd(app *App) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "move <folder-id>",
		Short: "Move a folder under another folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(to) == "" {
				return writeErr(cmd, errUsage("missing --to"))
			}
			ws, _, err := loadWorkspace(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := ws.MoveFolder(cmd.Context(), args[0], to); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": describeFolder(ws.Tree(), args[0])})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "New parent folder id")
	return cmd
}

func newFoldersDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <folder-id>",
		Short: "Delete an empty folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, _, err := loadWorkspace(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := ws.DeleteFolder(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"id": args[0], "deleted": true}})
		},
	}
}

func newFoldersListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every folder (roots first, depth-first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, _, err := loadWorkspace(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			t := ws.Tree()
			out := []folderView{}
			for _, root := range []model.ID{model.RootWhite, model.RootBlack} {
				t.Walk(root, func(id model.ID, _ int, isLine bool) bool {
					if !isLine {
						out = append(out, describeFolder(t, id))
					}
					return true
				})
			}
			return writeOut(cmd, app, map[string]any{
				"data": out,
				"meta": map[string]any{"count": len(out)},
			})
		},
	}
}

func newFoldersTreeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tree [folder-id]",
		Short: "Show the folder tree (both roots by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, _, err := loadWorkspace(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			t := ws.Tree()
			roots := []model.ID{model.RootWhite, model.RootBlack}
			if len(args) == 1 {
				if _, err := requireFolder(t, args[0]); err != nil {
					return writeErr(cmd, err)
				}
				roots = []model.ID{strings.TrimSpace(args[0])}
			}
			out := make([]*treeNode, 0, len(roots))
			for _, r := range roots {
				out = append(out, buildTree(t, r))
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
}

func describeFolder(t *repertoire.Tree, id model.ID) folderView {
	id = strings.TrimSpace(id)
	f, _ := t.Folder(id)
	parent, _ := t.FindParentFolder(id)
	children := append([]string{}, f.Children...)
	return folderView{
		ID:       id,
		Name:     f.Name,
		Contains: f.Contains,
		Parent:   parent,
		Path:     pathNames(t, id),
		Children: children,
	}
}

func buildTree(t *repertoire.Tree, id model.ID) *treeNode {
	if l, ok := t.Line(id); ok {
		return &treeNode{ID: id, Kind: "line", Player: l.Player, PGN: l.PGN}
	}
	f, ok := t.Folder(id)
	if !ok {
		return nil
	}
	n := &treeNode{ID: id, Kind: "folder", Name: f.Name, Contains: f.Contains}
	for _, ch := range f.Children {
		if c := buildTree(t, ch); c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

// pathNames returns the folder names from the root down to id. A line id
// contributes no name of its own.
func pathNames(t *repertoire.Tree, id model.ID) []string {
	out := []string{}
	for _, p := range t.Path(id) {
		if f, ok := t.Folder(p); ok {
			out = append(out, f.Name)
		}
	}
	return out
}
