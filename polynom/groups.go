package polynom

import (
	"github.com/florisdf/mathsteps/expr"
	"github.com/florisdf/mathsteps/term"
)

// FactorRef addresses one factor of one term.
type FactorRef struct {
	Term   int
	Factor int
	Value  expr.Node
	Loc    expr.Location
}

// Group is a set of factors that are all equal, together with the factors
// opposite to them. Every (term, factor) pair belongs to at most one group.
type Group struct {
	Equal    []FactorRef
	Opposite []FactorRef
}

// Representative returns the value every member of g is rewritten to when
// the group is aligned.
func (g Group) Representative() expr.Node { return g.Equal[0].Value }

type factorClass struct {
	members []FactorRef
	canon   expr.Node
	negated expr.Node
}

// OpEqFacs partitions the factors of every term of tree's root into
// classes of equal factors and pairs each class with its opposite class.
//
// Classes are built in one left-to-right pass. A paired class with more
// members than its partner becomes Equal, the first found on a tie. An
// unpaired class becomes a group only when it has two or more members.
// Locations in the result point into tree.
func (a *Analyzer) OpEqFacs(tree *expr.Tree) ([]Group, error) {
	var classes []*factorClass
	for ti, t := range term.Terms(tree) {
		for fi, loc := range term.Factors(t.Loc) {
			ref := FactorRef{Term: ti, Factor: fi, Value: loc.Node().Clone(), Loc: loc}
			canon := a.simplified(ref.Value)
			var found *factorClass
			for _, c := range classes {
				if expr.Equal(c.canon, canon) {
					found = c
					break
				}
			}
			if found == nil {
				found = &factorClass{canon: canon, negated: a.simplified(negated(ref.Value))}
				classes = append(classes, found)
			}
			found.members = append(found.members, ref)
		}
	}

	paired := make([]bool, len(classes))
	var groups []Group
	for i, c := range classes {
		if paired[i] {
			continue
		}
		var partners []int
		for j, d := range classes {
			// c is opposite to d when c equals -d.
			if j != i && !paired[j] && expr.Equal(c.canon, d.negated) {
				partners = append(partners, j)
			}
		}
		switch len(partners) {
		case 0:
			if len(c.members) > 1 {
				paired[i] = true
				groups = append(groups, Group{Equal: c.members})
			}
		case 1:
			d := classes[partners[0]]
			paired[i], paired[partners[0]] = true, true
			if len(d.members) > len(c.members) {
				groups = append(groups, Group{Equal: d.members, Opposite: c.members})
			} else {
				groups = append(groups, Group{Equal: c.members, Opposite: d.members})
			}
		default:
			err := &ConsistencyError{Class: c.members[0].Value.Clone()}
			for _, j := range partners {
				err.Opposites = append(err.Opposites, classes[j].members[0].Value.Clone())
			}
			return nil, err
		}
	}
	return groups, nil
}

// OpEqFacs is Analyzer.OpEqFacs with the default simplifier.
func OpEqFacs(tree *expr.Tree) ([]Group, error) { return defaultAnalyzer.OpEqFacs(tree) }

// HasOpposites reports whether any group has opposite members.
func HasOpposites(groups []Group) bool {
	for _, g := range groups {
		if len(g.Opposite) > 0 {
			return true
		}
	}
	return false
}
