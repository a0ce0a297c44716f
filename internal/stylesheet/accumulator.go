package stylesheet

import (
	"sync"
)

// Origin locates the first occurrence of a rule: the page index in the
// run's page order and the position of the occurrence within that page.
type Origin struct {
	Page int
	Seq  int
}

// Rule is one consolidated declaration block.
type Rule struct {
	// Class is the generated class name, without the leading dot.
	Class string

	// Declarations is the normalized declaration text.
	Declarations string

	// Page is the name of the page where the rule was first seen.
	Page string

	Origin Origin
}

// Selector returns the CSS selector of the rule.
func (r Rule) Selector() string {
	return "." + r.Class
}

// Block is a <style> element moved into the shared stylesheet.
type Block struct {
	Hash   string
	Page   string
	CSS    string
	Origin Origin
}

// Accumulator is the run-scoped registry of consolidated rules.
//
// Entries are only ever added. Register is an insert-if-absent keyed by
// the normalized declarations, so the first writer of a block decides its
// class name and later writers receive the same name. All methods are
// safe for concurrent use.
type Accumulator struct {
	mu      sync.Mutex
	prefix  string
	rules   []Rule
	byClass map[string]int
	byDecl  map[string]int
	blocks  []Block
	byBlock map[string]int
}

// NewAccumulator creates an empty accumulator generating class names
// with the given prefix.
func NewAccumulator(prefix string) *Accumulator {
	return &Accumulator{
		prefix:  prefix,
		byClass: make(map[string]int),
		byDecl:  make(map[string]int),
		byBlock: make(map[string]int),
	}
}

// Register records a normalized declaration block and returns its class
// name. added is false when the block was already registered.
// An empty block is never registered and yields an empty class.
func (a *Accumulator) Register(normalized, page string, origin Origin) (class string, added bool) {
	if normalized == "" {
		return "", false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if i, ok := a.byDecl[normalized]; ok {
		return a.rules[i].Class, false
	}

	for _, w := range classWidths {
		class = ClassName(a.prefix, normalized, w)
		if _, taken := a.byClass[class]; !taken {
			break
		}
	}

	a.rules = append(a.rules, Rule{
		Class:        class,
		Declarations: normalized,
		Page:         page,
		Origin:       origin,
	})
	i := len(a.rules) - 1
	a.byClass[class] = i
	a.byDecl[normalized] = i
	return class, true
}

// Lookup returns the class registered for a normalized declaration block.
func (a *Accumulator) Lookup(normalized string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	i, ok := a.byDecl[normalized]
	if !ok {
		return "", false
	}
	return a.rules[i].Class, true
}

// RegisterBlock records the content of a <style> element. Identical
// blocks from different pages are stored once.
func (a *Accumulator) RegisterBlock(text, page string, origin Origin) (hash string, added bool) {
	if text == "" {
		return "", false
	}
	hash = BlockHash(text)

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.byBlock[hash]; ok {
		return hash, false
	}
	a.blocks = append(a.blocks, Block{Hash: hash, Page: page, CSS: text, Origin: origin})
	a.byBlock[hash] = len(a.blocks) - 1
	return hash, true
}

// Rules returns the registered rules in registration order.
func (a *Accumulator) Rules() []Rule {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Rule(nil), a.rules...)
}

// Blocks returns the registered style blocks in registration order.
func (a *Accumulator) Blocks() []Block {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Block(nil), a.blocks...)
}

// Len returns the number of registered rules.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.rules)
}
