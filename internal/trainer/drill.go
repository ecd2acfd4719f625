package trainer

import (
	"math/rand"

	"repertoire-cli/internal/model"
	"repertoire-cli/internal/repertoire"
)

type DrillOptions struct {
	Shuffle bool
	Seed    int64
}

// Skipped records a line the drill could not start.
type Skipped struct {
	LineID model.ID
	Err    error
}

// Drill hands out sessions for every line under a folder, one at a time.
type Drill struct {
	tree    *repertoire.Tree
	queue   []model.ID
	next    int
	skipped []Skipped
}

// NewDrill queues the lines under id in child order, or shuffled with opts.Seed.
// id may name a single line.
func NewDrill(t *repertoire.Tree, id model.ID, opts DrillOptions) *Drill {
	queue := t.LinesUnder(id)
	if opts.Shuffle {
		r := rand.New(rand.NewSource(opts.Seed))
		r.Shuffle(len(queue), func(i, j int) { queue[i], queue[j] = queue[j], queue[i] })
	}
	return &Drill{tree: t, queue: queue}
}

// Next returns the next line that can be trained. Lines that fail to load
// are recorded in Skipped.
func (d *Drill) Next() (*Session, model.ID, bool) {
	for d.next < len(d.queue) {
		id := d.queue[d.next]
		d.next++
		line, ok := d.tree.Line(id)
		if !ok {
			continue
		}
		s, err := New(line)
		if err != nil {
			d.skipped = append(d.skipped, Skipped{LineID: id, Err: err})
			continue
		}
		return s, id, true
	}
	return nil, "", false
}

func (d *Drill) Len() int           { return len(d.queue) }
func (d *Drill) Remaining() int     { return len(d.queue) - d.next }
func (d *Drill) Queue() []model.ID  { return append([]model.ID(nil), d.queue...) }
func (d *Drill) Skipped() []Skipped { return d.skipped }
