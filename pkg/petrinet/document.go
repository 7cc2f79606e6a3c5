package petrinet

import (
	"encoding/json"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// Document is the serialisable view of a net used by the CLI and the cache.
type Document struct {
	Name           string               `json:"name,omitempty" yaml:"name,omitempty"`
	Places         []Place              `json:"places" yaml:"places"`
	Transitions    []TransitionDocument `json:"transitions" yaml:"transitions"`
	InitialMarking map[int]int          `json:"initial_marking,omitempty" yaml:"initial_marking,omitempty"`
	FinalMarking   map[int]int          `json:"final_marking,omitempty" yaml:"final_marking,omitempty"`
}

// TransitionDocument lists a transition with its input and output place ids.
type TransitionDocument struct {
	ID      int    `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Silent  bool   `json:"silent,omitempty" yaml:"silent,omitempty"`
	Inputs  []int  `json:"inputs" yaml:"inputs"`
	Outputs []int  `json:"outputs" yaml:"outputs"`
}

// ToDocument captures n.
func (n *Net) ToDocument(name string) Document {
	doc := Document{Name: name}
	for _, p := range n.places {
		doc.Places = append(doc.Places, *p)
	}
	for _, t := range n.transitions {
		doc.Transitions = append(doc.Transitions, TransitionDocument{
			ID:      t.ID,
			Name:    t.Name,
			Silent:  t.Silent,
			Inputs:  arcPlaces(t.incoming),
			Outputs: arcPlaces(t.outgoing),
		})
	}
	if n.initial != nil {
		doc.InitialMarking = n.initial.Clone()
	}
	if n.final != nil {
		doc.FinalMarking = n.final.Clone()
	}
	return doc
}

func arcPlaces(arcs []Arc) []int {
	ids := make([]int, len(arcs))
	for i, a := range arcs {
		ids[i] = a.placeID
	}
	sort.Ints(ids)
	return ids
}

// FromDocument rebuilds a net. Place and transition ids are reassigned in
// document order, which matches the ids of a net produced by ToDocument.
func FromDocument(doc Document) *Net {
	n := New()
	remap := make(map[int]int, len(doc.Places))
	for _, p := range doc.Places {
		remap[p.ID] = n.AddPlace(p.Name)
	}
	for _, td := range doc.Transitions {
		id := n.AddTransition(td.Name, td.Silent)
		for _, p := range td.Inputs {
			n.AddInputArc(remap[p], id)
		}
		for _, p := range td.Outputs {
			n.AddOutputArc(id, remap[p])
		}
	}
	if doc.InitialMarking != nil {
		n.SetInitialMarking(remapMarking(doc.InitialMarking, remap))
	}
	if doc.FinalMarking != nil {
		n.SetFinalMarking(remapMarking(doc.FinalMarking, remap))
	}
	return n
}

func remapMarking(m map[int]int, remap map[int]int) Marking {
	out := make(Marking, len(m))
	for p, tokens := range m {
		out[remap[p]] = tokens
	}
	return out
}

// WriteJSON encodes the document as indented JSON.
func (d Document) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// WriteYAML encodes the document as YAML.
func (d Document) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return err
	}
	return enc.Close()
}
