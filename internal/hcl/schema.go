package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is the top-level structure of a sweep file.
type fileRoot struct {
	Sweeps []*sweepBlock `hcl:"sweep,block"`
}

// sweepBlock represents a `sweep` block.
type sweepBlock struct {
	Name           string            `hcl:"name,label"`
	Description    string            `hcl:"description,optional"`
	DefaultRepeats hcl.Expression    `hcl:"default_repeats,optional"`
	Joint          hcl.Expression    `hcl:"joint,optional"`
	Parameters     []*parameterBlock `hcl:"parameter,block"`
	Repeats        []*repeatBlock    `hcl:"repeat,block"`
	DeclRange      hcl.Range         `hcl:",def_range"`
}

// parameterBlock represents a `parameter` block inside a sweep.
type parameterBlock struct {
	Name        string         `hcl:"name,label"`
	Description string         `hcl:"description,optional"`
	Values      hcl.Expression `hcl:"values"`
	DeclRange   hcl.Range      `hcl:",def_range"`
}

// repeatBlock represents a `repeat` block inside a sweep.
type repeatBlock struct {
	Count     hcl.Expression `hcl:"count"`
	When      hcl.Expression `hcl:"when,optional"`
	DeclRange hcl.Range      `hcl:",def_range"`
}
