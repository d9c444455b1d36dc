// Package program parses program and palette XML documents into the
// types internal/tree, internal/rulenode, internal/rule, internal/field
// and internal/observe already know how to run: a Model is a root
// alphabet plus a TreeRunner built from the document's node tree.
package program

import (
	"encoding/xml"
	"fmt"
	"io"
	"math/rand"
	"strconv"

	"github.com/mtrimolet/markovjunior/internal/field"
	"github.com/mtrimolet/markovjunior/internal/observe"
	"github.com/mtrimolet/markovjunior/internal/rule"
	"github.com/mtrimolet/markovjunior/internal/rulenode"
	"github.com/mtrimolet/markovjunior/internal/symbol"
	"github.com/mtrimolet/markovjunior/internal/tree"
)

// ParseError names where in the document a parse failed: the element
// it was parsed from, the attribute at fault (empty when the failure
// isn't attribute-specific), a human-readable reason, and the decoder's
// byte offset at the point the enclosing element was opened.
type ParseError struct {
	Element string
	Attr    string
	Reason  string
	Offset  int64
}

func (e ParseError) Error() string {
	if e.Attr != "" {
		return fmt.Sprintf("program: <%s> attribute %q: %s [offset %d]", e.Element, e.Attr, e.Reason, e.Offset)
	}
	return fmt.Sprintf("program: <%s>: %s [offset %d]", e.Element, e.Reason, e.Offset)
}

// Model is a parsed program document: the validated alphabet, its
// top-level unions, whether the grid origin seeds the second symbol,
// and the tree ready to run against a grid of this alphabet.
type Model struct {
	Alphabet string
	Unions   symbol.Unions
	Origin   bool
	Root     *tree.TreeRunner
}

// node is the decoder's own recursive tree of a document, built token
// by token so every node keeps the byte offset its start tag ended at.
type node struct {
	Tag      string
	Attrs    map[string]string
	Children []node
	Offset   int64
}

func (n node) attr(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

func (n node) requireAttr(name string) (string, error) {
	v, ok := n.attr(name)
	if !ok || v == "" {
		return "", ParseError{Element: n.Tag, Attr: name, Reason: "missing or empty", Offset: n.Offset}
	}
	return v, nil
}

func (n node) boolAttr(name string, def bool) bool {
	v, ok := n.attr(name)
	if !ok {
		return def
	}
	return v == "true" || v == "1"
}

func (n node) uintAttr(name string, def uint32) (uint32, error) {
	v, ok := n.attr(name)
	if !ok {
		return def, nil
	}
	out, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, ParseError{Element: n.Tag, Attr: name, Reason: "not an unsigned integer", Offset: n.Offset}
	}
	return uint32(out), nil
}

func (n node) floatAttr(name string, def float64) (float64, error) {
	v, ok := n.attr(name)
	if !ok {
		return def, nil
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, ParseError{Element: n.Tag, Attr: name, Reason: "not a number", Offset: n.Offset}
	}
	return out, nil
}

func (n node) charAttr(name string) (symbol.Symbol, error) {
	v, err := n.requireAttr(name)
	if err != nil {
		return 0, err
	}
	if len(v) != 1 {
		return 0, ParseError{Element: n.Tag, Attr: name, Reason: "must be a single character", Offset: n.Offset}
	}
	return v[0], nil
}

func (n node) optCharAttr(name string) (*symbol.Symbol, error) {
	v, ok := n.attr(name)
	if !ok {
		return nil, nil
	}
	if len(v) != 1 {
		return nil, ParseError{Element: n.Tag, Attr: name, Reason: "must be a single character", Offset: n.Offset}
	}
	c := v[0]
	return &c, nil
}

func (n node) charsetAttr(name string) (symbol.Set, error) {
	v, err := n.requireAttr(name)
	if err != nil {
		return nil, err
	}
	set := make(symbol.Set, len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if set.Contains(c) {
			return nil, ParseError{Element: n.Tag, Attr: name, Reason: fmt.Sprintf("duplicate symbol %q", rune(c)), Offset: n.Offset}
		}
		set[c] = struct{}{}
	}
	return set, nil
}

func (n node) children(tag string) []node {
	var out []node
	for _, c := range n.Children {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

func (n node) childrenExcept(tags ...string) []node {
	skip := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		skip[t] = struct{}{}
	}
	var out []node
	for _, c := range n.Children {
		if _, ok := skip[c.Tag]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// document reads exactly one root element from r into the decoder's
// node tree.
func document(r io.Reader) (node, error) {
	d := xml.NewDecoder(r)
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return node{}, ParseError{Reason: "empty document", Offset: d.InputOffset()}
		}
		if err != nil {
			return node{}, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return parseElement(d, se)
		}
	}
}

func parseElement(d *xml.Decoder, se xml.StartElement) (node, error) {
	n := node{Tag: se.Name.Local, Attrs: make(map[string]string, len(se.Attr)), Offset: d.InputOffset()}
	for _, a := range se.Attr {
		n.Attrs[a.Name.Local] = a.Value
	}

	for {
		tok, err := d.Token()
		if err != nil {
			return node{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := parseElement(d, t)
			if err != nil {
				return node{}, err
			}
			n.Children = append(n.Children, child)
		case xml.EndElement:
			return n, nil
		}
	}
}

// ParseModel parses a program document from r: the root's `values`
// attribute seeds the alphabet and its Unions table, `origin` records
// whether the grid's center cell should start at the alphabet's second
// symbol, and every descendant builds the tree a caller runs.
func ParseModel(r io.Reader, rng *rand.Rand) (Model, error) {
	root, err := document(r)
	if err != nil {
		return Model{}, err
	}

	values, err := root.requireAttr("values")
	if err != nil {
		return Model{}, err
	}
	alphabet, err := symbol.ParseAlphabet(values)
	if err != nil {
		return Model{}, ParseError{Element: root.Tag, Attr: "values", Reason: err.Error(), Offset: root.Offset}
	}
	unions := symbol.NewUnions(alphabet)

	runner, err := parseNodeRunner(root, unions, "", rng)
	if err != nil {
		return Model{}, err
	}

	tr, ok := runner.(*tree.TreeRunner)
	if !ok {
		tr = &tree.TreeRunner{Mode: tree.Markov, Nodes: []tree.NodeRunner{runner}}
	}

	return Model{
		Alphabet: alphabet,
		Unions:   unions,
		Origin:   root.boolAttr("origin", false),
		Root:     tr,
	}, nil
}

// parseNodeRunner builds the NodeRunner a document node describes:
// `<sequence>`/`<markov>` become a TreeRunner over their own children,
// `<one>`/`<all>`/`<prl>` become a RuleRunner around a RuleNode.
// symmetry is the nearest ancestor's symmetry attribute, overridden by
// n's own if it sets one; unions is cloned and extended with n's own
// `<union>` children before being passed down or used to parse rules.
func parseNodeRunner(n node, unions symbol.Unions, symmetry string, rng *rand.Rand) (tree.NodeRunner, error) {
	if s, ok := n.attr("symmetry"); ok {
		symmetry = s
	}

	unions, err := withLocalUnions(n, unions)
	if err != nil {
		return nil, err
	}

	switch n.Tag {
	case "sequence", "markov":
		mode := tree.Sequence
		if n.Tag == "markov" {
			mode = tree.Markov
		}
		var nodes []tree.NodeRunner
		for _, c := range n.childrenExcept("union") {
			child, err := parseNodeRunner(c, unions, symmetry, rng)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, child)
		}
		return &tree.TreeRunner{Mode: mode, Nodes: nodes}, nil

	case "one", "all", "prl":
		rn, err := parseRuleNode(n, unions, symmetry, rng)
		if err != nil {
			return nil, err
		}
		steps, err := n.uintAttr("steps", 0)
		if err != nil {
			return nil, err
		}
		return &tree.RuleRunner{Node: rn, Steps: steps}, nil
	}

	return nil, ParseError{Element: n.Tag, Reason: "unknown tag", Offset: n.Offset}
}

func withLocalUnions(n node, unions symbol.Unions) (symbol.Unions, error) {
	locals := n.children("union")
	if len(locals) == 0 {
		return unions, nil
	}

	out := make(symbol.Unions, len(unions)+len(locals))
	for c, s := range unions {
		out[c] = s
	}
	for _, u := range locals {
		c, err := u.charAttr("symbol")
		if err != nil {
			return nil, err
		}
		set, err := u.charsetAttr("values")
		if err != nil {
			return nil, err
		}
		out[c] = set
	}
	return out, nil
}

// parseRuleNode dispatches among RuleNode's four strategies by the
// priority original_source's parser established: a `search` attribute
// set to "true" or "1" selects SEARCH, else any `<observe>` child selects OBSERVE,
// else any `<field>` child selects DISTANCE, else RANDOM.
func parseRuleNode(n node, unions symbol.Unions, symmetry string, rng *rand.Rand) (*rulenode.RuleNode, error) {
	mode, err := ruleMode(n)
	if err != nil {
		return nil, err
	}

	rules, err := parseRules(n, unions, symmetry)
	if err != nil {
		return nil, err
	}

	if n.boolAttr("search", false) {
		observes, err := parseObserves(n)
		if err != nil {
			return nil, err
		}
		limit, err := n.uintAttr("limit", 0)
		if err != nil {
			return nil, err
		}
		depthCoefficient, err := n.floatAttr("depthCoefficient", 0.5)
		if err != nil {
			return nil, err
		}
		return rulenode.NewSearch(mode, rules, unions, observes, limit, depthCoefficient, rng), nil
	}

	if len(n.children("observe")) > 0 {
		observes, err := parseObserves(n)
		if err != nil {
			return nil, err
		}
		temperature, err := n.floatAttr("temperature", 0.0)
		if err != nil {
			return nil, err
		}
		return rulenode.NewObserve(mode, rules, unions, observes, temperature, rng), nil
	}

	if len(n.children("field")) > 0 {
		fields, err := parseFields(n)
		if err != nil {
			return nil, err
		}
		temperature, err := n.floatAttr("temperature", 0.0)
		if err != nil {
			return nil, err
		}
		return rulenode.NewDistance(mode, rules, unions, fields, temperature, rng), nil
	}

	return rulenode.NewRandom(mode, rules, unions, rng), nil
}

func ruleMode(n node) (rulenode.Mode, error) {
	switch n.Tag {
	case "one":
		return rulenode.One, nil
	case "all":
		return rulenode.All, nil
	case "prl":
		return rulenode.PRL, nil
	}
	return 0, ParseError{Element: n.Tag, Reason: "unknown rule node tag", Offset: n.Offset}
}

// parseRules collects n's explicit `<rule>` children, or treats n's
// own `in`/`out`/`p` attributes as a single rule when there are none,
// then expands every rule into its symmetry's bag of variants.
func parseRules(n node, unions symbol.Unions, symmetry string) ([]rule.RewriteRule, error) {
	ruleNodes := n.children("rule")
	if len(ruleNodes) == 0 {
		ruleNodes = []node{n}
	}

	var out []rule.RewriteRule
	for _, rn := range ruleNodes {
		in, err := rn.requireAttr("in")
		if err != nil {
			return nil, err
		}
		output, err := rn.requireAttr("out")
		if err != nil {
			return nil, err
		}
		p, err := rn.floatAttr("p", 1.0)
		if err != nil {
			return nil, err
		}

		seed, err := rule.Parse(unions, in, output, p)
		if err != nil {
			return nil, ParseError{Element: "rule", Reason: err.Error(), Offset: rn.Offset}
		}
		out = append(out, rule.Symmetries(seed, symmetry)...)
	}
	return out, nil
}

func parseFields(n node) (field.Fields, error) {
	fields := make(field.Fields)
	for _, fn := range n.children("field") {
		c, err := fn.charAttr("for")
		if err != nil {
			return nil, err
		}
		substrate, err := fn.charsetAttr("on")
		if err != nil {
			return nil, err
		}

		to, hasTo := fn.attr("to")
		from, hasFrom := fn.attr("from")
		if hasTo == hasFrom {
			return nil, ParseError{Element: "field", Reason: "exactly one of \"to\" or \"from\" is required", Offset: fn.Offset}
		}
		zeroAttr, inversed := to, false
		if hasFrom {
			zeroAttr, inversed = from, true
		}
		zero := make(symbol.Set, len(zeroAttr))
		for i := 0; i < len(zeroAttr); i++ {
			zero[zeroAttr[i]] = struct{}{}
		}

		fields[c] = field.Field{
			Substrate: substrate,
			Zero:      zero,
			Recompute: fn.boolAttr("recompute", false),
			Essential: fn.boolAttr("essential", false),
			Inversed:  inversed,
		}
	}
	return fields, nil
}

func parseObserves(n node) (observe.Observes, error) {
	observes := make(observe.Observes)
	for _, on := range n.children("observe") {
		c, err := on.charAttr("value")
		if err != nil {
			return nil, err
		}
		from, err := on.optCharAttr("from")
		if err != nil {
			return nil, err
		}
		to, err := on.charsetAttr("to")
		if err != nil {
			return nil, err
		}
		observes[c] = observe.Observe{From: from, To: to}
	}
	return observes, nil
}

// RGB is one palette entry's color, parsed from two hex digits each.
type RGB struct {
	R, G, B byte
}

// ParsePalette parses a `<colors><color symbol=".." value="RRGGBB"/>
// </colors>` document into a symbol-to-color map.
func ParsePalette(r io.Reader) (map[symbol.Symbol]RGB, error) {
	root, err := document(r)
	if err != nil {
		return nil, err
	}

	palette := make(map[symbol.Symbol]RGB)
	for _, cn := range root.children("color") {
		c, err := cn.charAttr("symbol")
		if err != nil {
			return nil, err
		}
		value, err := cn.requireAttr("value")
		if err != nil {
			return nil, err
		}
		if len(value) != 6 {
			return nil, ParseError{Element: "color", Attr: "value", Reason: "must be six hex digits", Offset: cn.Offset}
		}

		var rgb [3]byte
		for i := 0; i < 3; i++ {
			b, err := strconv.ParseUint(value[2*i:2*i+2], 16, 8)
			if err != nil {
				return nil, ParseError{Element: "color", Attr: "value", Reason: "not valid hex", Offset: cn.Offset}
			}
			rgb[i] = byte(b)
		}
		palette[c] = RGB{R: rgb[0], G: rgb[1], B: rgb[2]}
	}
	return palette, nil
}
