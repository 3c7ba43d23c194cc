// Package classify assigns structural element kinds to document nodes.
//
// Classification is an ordered rule table: the first rule whose predicate
// matches a paragraph decides its kind, so precedence is visible in one
// place and every rule can be tested in isolation. Tables are classified
// separately: a table with at least one row becomes a table element and
// empty tables are dropped.
package classify

import "github.com/tsawler/docstruct/model"

// Rule is one entry of the classification table.
type Rule struct {
	// Name identifies the rule in diagnostics and element metadata.
	Name string

	// Match reports whether the rule applies to a paragraph node.
	Match func(model.Node) bool

	// Kind is the element kind assigned when Match succeeds.
	Kind model.ElementKind

	// Confidence (0-1) of the assignment.
	Confidence float64
}

// Result is the outcome of classifying one node.
type Result struct {
	Kind       model.ElementKind
	Rule       string
	Confidence float64
}

// Names of the results that do not come from the rule table.
const (
	RuleTable   = "table"
	RuleDefault = "default-paragraph"
)

// Confidence of the results that do not come from the rule table.
const (
	TableConfidence   = 1.0
	DefaultConfidence = 0.50
)

// Classifier applies an ordered rule table.
type Classifier struct {
	rules []Rule
}

// New creates a classifier with DefaultRules.
func New() *Classifier {
	return NewWithRules(DefaultRules())
}

// NewWithRules creates a classifier with a custom rule table. Rules are
// evaluated in slice order.
func NewWithRules(rules []Rule) *Classifier {
	return &Classifier{rules: append([]Rule(nil), rules...)}
}

// Rules returns a copy of the classifier's rule table.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Classify assigns a kind to a single node. Table nodes are always tables;
// paragraphs take the kind of the first matching rule, or paragraph.
func (c *Classifier) Classify(n model.Node) Result {
	if n.Kind == model.NodeTable {
		return Result{Kind: model.KindTable, Rule: RuleTable, Confidence: TableConfidence}
	}
	for _, r := range c.rules {
		if r.Match != nil && r.Match(n) {
			return Result{Kind: r.Kind, Rule: r.Name, Confidence: r.Confidence}
		}
	}
	return Result{Kind: model.KindParagraph, Rule: RuleDefault, Confidence: DefaultConfidence}
}

// ClassifyAll classifies nodes in order and returns the elements. Tables
// without rows and paragraphs without text are dropped; heading kinds get
// their level.
func (c *Classifier) ClassifyAll(nodes []model.Node) []model.Element {
	elements := make([]model.Element, 0, len(nodes))
	for _, n := range nodes {
		if n.Kind == model.NodeTable && len(n.Rows) == 0 {
			continue
		}
		if n.Kind != model.NodeTable && n.Text == "" {
			continue
		}

		res := c.Classify(n)
		e := model.Element{
			Kind:       res.Kind,
			Text:       n.Text,
			Formatting: n.Formatting,
			Rule:       res.Rule,
			Confidence: res.Confidence,
		}
		if n.StyleName != "" {
			style := n.StyleName
			e.StyleName = &style
		}
		if level := res.Kind.Level(); level > 0 {
			e.Level = &level
		}
		if n.Kind == model.NodeTable {
			e.Rows = cloneRows(n.Rows)
		}
		elements = append(elements, e)
	}
	return elements
}

// Classify classifies a node with the default rules.
func Classify(n model.Node) Result {
	return defaultClassifier.Classify(n)
}

// ClassifyAll classifies nodes with the default rules.
func ClassifyAll(nodes []model.Node) []model.Element {
	return defaultClassifier.ClassifyAll(nodes)
}

var defaultClassifier = New()

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}
