// Package web serves a read-only HTML view of a workspace repertoire.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"repertoire-cli/internal/engine"
	"repertoire-cli/internal/model"
	"repertoire-cli/internal/repertoire"
	"repertoire-cli/internal/store"

	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html static/*.css
var assetsFS embed.FS

type ServerConfig struct {
	Addr      string
	Dir       string
	Workspace string
}

type Server struct {
	mu   sync.RWMutex
	cfg  ServerConfig
	tmpl *template.Template
}

func NewServer(cfg ServerConfig) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.Dir = strings.TrimSpace(cfg.Dir)
	cfg.Workspace = strings.TrimSpace(cfg.Workspace)
	if cfg.Addr == "" {
		return nil, errors.New("web: addr is empty")
	}
	if cfg.Dir == "" {
		return nil, errors.New("web: dir is empty")
	}

	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"trim":     strings.TrimSpace,
		"markdown": renderMarkdownHTML,
	}).ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, tmpl: tmpl}, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

func (s *Server) dir() string {
	s.mu.RLock()
	d := s.cfg.Dir
	s.mu.RUnlock()
	return d
}

func (s *Server) workspaceName() string {
	s.mu.RLock()
	w := s.cfg.Workspace
	s.mu.RUnlock()
	return w
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /static/app.css", s.handleAppCSS)
	mux.HandleFunc("GET /api/repertoire", s.handleRepertoireJSON)
	mux.HandleFunc("GET /lines/{lineId}", s.handleLine)
	mux.HandleFunc("GET /{$}", s.handleHome)
	return logRequests(mux)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hs := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- hs.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Dur("took", time.Since(start)).Msg("web request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleAppCSS(w http.ResponseWriter, r *http.Request) {
	b, err := assetsFS.ReadFile("static/app.css")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(b)
}

// loadTree reads the repertoire fresh on every request so CLI edits show up
// without a restart.
func (s *Server) loadTree(ctx context.Context) (*repertoire.Tree, error) {
	return store.Store{Dir: s.dir()}.Load(ctx)
}

func (s *Server) handleRepertoireJSON(w http.ResponseWriter, r *http.Request) {
	t, err := s.loadTree(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := store.EncodeRepertoire(w, t, true); err != nil {
		log.Warn().Err(err).Msg("encode repertoire")
	}
}

type baseVM struct {
	Workspace string
	Dir       string
	Title     string
}

type treeRow struct {
	ID     string
	Label  string
	Depth  int
	IsLine bool
	Empty  bool
}

type homeVM struct {
	baseVM
	Roots   [][]treeRow
	Folders int
	Lines   int
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	t, err := s.loadTree(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	vm := homeVM{
		baseVM:  s.base("Repertoire"),
		Folders: t.FolderCount(),
		Lines:   t.LineCount(),
	}
	for _, root := range []model.ID{model.RootWhite, model.RootBlack} {
		vm.Roots = append(vm.Roots, treeRows(t, root))
	}
	s.writeHTMLTemplate(w, "home.html", vm)
}

func treeRows(t *repertoire.Tree, root model.ID) []treeRow {
	rows := []treeRow{}
	t.Walk(root, func(id model.ID, depth int, isLine bool) bool {
		if isLine {
			l, _ := t.Line(id)
			label := strings.TrimSpace(l.PGN)
			if label == "" {
				label = "(no moves)"
			}
			rows = append(rows, treeRow{ID: id, Label: label, Depth: depth, IsLine: true})
			return true
		}
		f, _ := t.Folder(id)
		rows = append(rows, treeRow{ID: id, Label: f.Name, Depth: depth, Empty: len(f.Children) == 0})
		return true
	})
	return rows
}

type moveVM struct {
	Ply     int
	Label   string
	Current bool
}

type squareVM struct {
	Name   string
	Piece  string
	Light  bool
	Marked bool
}

type lineVM struct {
	baseVM
	ID         string
	Path       []string
	Player     string
	Ply        int
	TotalPlies int
	PrevPly    int
	NextPly    int
	Moves      []moveVM
	Board      [][]squareVM
	Files      []string
	Note       string
}

func (s *Server) handleLine(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("lineId"))
	t, err := s.loadTree(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	l, ok := t.Line(id)
	if !ok {
		http.NotFound(w, r)
		return
	}

	vm := lineVM{
		baseVM: s.base("Line"),
		ID:     id,
		Player: sideName(l.Player),
	}
	for _, p := range t.Path(id) {
		if f, ok := t.Folder(p); ok {
			vm.Path = append(vm.Path, f.Name)
		}
	}
	if len(vm.Path) > 0 {
		vm.Title = strings.Join(vm.Path, " / ")
	}

	g, err := engine.New(l.StartingFEN, l.PGN)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	ply := g.TotalPlies()
	if raw := strings.TrimSpace(r.URL.Query().Get("ply")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid ply", http.StatusBadRequest)
			return
		}
		ply = n
	}
	g.ToNth(ply)
	vm.Ply, vm.TotalPlies = g.Ply(), g.TotalPlies()
	vm.PrevPly, vm.NextPly = max(vm.Ply-1, 0), min(vm.Ply+1, vm.TotalPlies)
	vm.Moves = moveLabels(g.SAN(), l.StartingFEN, vm.Ply)
	if vm.Ply < len(l.Notes) {
		vm.Note = l.Notes[vm.Ply]
	}

	var marked []string
	if mv, ok := g.MoveAt(vm.Ply); ok {
		marked = []string{mv.From, mv.To}
	}
	vm.Board, vm.Files = boardRows(g.FEN(), l.Player, marked)
	s.writeHTMLTemplate(w, "line.html", vm)
}

// moveLabels numbers SAN moves, honouring a start position with black to move.
func moveLabels(san []string, startFEN string, current int) []moveVM {
	num, blackFirst := 1, false
	if fields := strings.Fields(startFEN); len(fields) >= 6 {
		blackFirst = fields[1] == "b"
		if n, err := strconv.Atoi(fields[5]); err == nil && n > 0 {
			num = n
		}
	}
	out := make([]moveVM, 0, len(san))
	for i, m := range san {
		black := (i%2 == 1) != blackFirst
		label := m
		switch {
		case !black:
			label = strconv.Itoa(num) + ". " + m
		case i == 0:
			label = strconv.Itoa(num) + "... " + m
		}
		if black {
			num++
		}
		out = append(out, moveVM{Ply: i + 1, Label: label, Current: i+1 == current})
	}
	return out
}

func boardRows(fen string, bottom model.Colour, marked []string) ([][]squareVM, []string) {
	squares := engine.Squares(fen)
	hit := map[string]bool{}
	for _, sq := range marked {
		hit[sq] = true
	}
	ranks := []int{7, 6, 5, 4, 3, 2, 1, 0}
	files := []int{0, 1, 2, 3, 4, 5, 6, 7}
	if bottom == model.Black {
		ranks = []int{0, 1, 2, 3, 4, 5, 6, 7}
		files = []int{7, 6, 5, 4, 3, 2, 1, 0}
	}
	rows := make([][]squareVM, 0, 8)
	for _, r := range ranks {
		row := make([]squareVM, 0, 8)
		for _, f := range files {
			name := string(rune('a'+f)) + string(rune('1'+r))
			row = append(row, squareVM{
				Name:   name,
				Piece:  pieceGlyph(squares[r][f]),
				Light:  (r+f)%2 == 1,
				Marked: hit[name],
			})
		}
		rows = append(rows, row)
	}
	labels := make([]string, 0, 8)
	for _, f := range files {
		labels = append(labels, string(rune('a'+f)))
	}
	return rows, labels
}

var pieceGlyphs = map[rune]string{
	'K': "♔", 'Q': "♕", 'R': "♖", 'B': "♗", 'N': "♘", 'P': "♙",
	'k': "♚", 'q': "♛", 'r': "♜", 'b': "♝", 'n': "♞", 'p': "♟",
}

func pieceGlyph(p rune) string {
	return pieceGlyphs[p]
}

func sideName(c model.Colour) string {
	if c == model.Black {
		return "Black"
	}
	return "White"
}

func (s *Server) base(title string) baseVM {
	return baseVM{Workspace: s.workspaceName(), Dir: s.dir(), Title: title}
}

func (s *Server) renderTemplate(name string, data any) (string, error) {
	var b strings.Builder
	if err := s.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *Server) writeHTMLTemplate(w http.ResponseWriter, name string, data any) {
	html, err := s.renderTemplate(name, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, html)
}
