package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/sha1n/relic-results/internal/domain"
	"github.com/sha1n/relic-results/internal/workspace"
)

// DefaultMaxResults caps a search when no limit is configured.
const DefaultMaxResults = 1000

// ErrEmptyQuery is returned for blank queries.
var ErrEmptyQuery = errors.New("query must not be empty")

// numberLiteral matches decimal and hexadecimal literals in file text.
var numberLiteral = regexp.MustCompile(`-?\b(?:0[xX][0-9a-fA-F]+|\d+(?:\.\d+)?)\b`)

// Executor runs searches against a resource and its file index.
type Executor struct {
	resource   *workspace.Resource
	index      *Index
	maxResults int
}

// NewExecutor creates an executor. A maxResults below one selects DefaultMaxResults.
func NewExecutor(resource *workspace.Resource, index *Index, maxResults int) *Executor {
	if maxResults < 1 {
		maxResults = DefaultMaxResults
	}
	return &Executor{
		resource:   resource,
		index:      index,
		maxResults: maxResults,
	}
}

// collector accumulates results up to a limit.
type collector struct {
	results []domain.Result
	limit   int
}

func (c *collector) add(r domain.Result) {
	if !c.full() {
		c.results = append(c.results, r)
	}
}

func (c *collector) full() bool {
	return len(c.results) >= c.limit
}

// Run executes s and returns its results in a stable order: file matches
// first, then class matches by class name.
func (e *Executor) Run(ctx context.Context, s domain.Search) ([]domain.Result, error) {
	query := strings.TrimSpace(s.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	c := &collector{limit: e.maxResults}
	var err error
	switch s.Kind {
	case domain.SearchText:
		err = e.searchText(ctx, query, c)
	case domain.SearchNumber:
		err = e.searchNumber(ctx, query, c)
	case domain.SearchMember:
		err = e.searchMember(ctx, query, c)
	case domain.SearchAnnotation:
		err = e.searchAnnotation(ctx, query, c)
	default:
		return nil, fmt.Errorf("unsupported search kind %q", s.Kind)
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("Search completed", "id", s.ID, "kind", s.Kind, "query", query, "results", len(c.results))
	return c.results, nil
}

// eachClass visits every class until visit returns false or the collector is full.
func (e *Executor) eachClass(ctx context.Context, c *collector, visit func(*domain.ClassInfo)) error {
	for _, class := range e.resource.AllClasses() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.full() {
			return nil
		}
		visit(class)
	}
	return nil
}

func (e *Executor) searchText(ctx context.Context, query string, c *collector) error {
	if e.index != nil {
		matches, err := e.index.Match(ctx, query, e.maxResults)
		if err != nil {
			return err
		}
		for _, m := range matches {
			file, ok := e.resource.File(m.Path)
			if !ok {
				continue
			}
			for _, text := range m.Texts {
				c.add(domain.NewTextResult(file, text))
			}
		}
	}

	needle := strings.ToLower(query)
	return e.eachClass(ctx, c, func(class *domain.ClassInfo) {
		for _, method := range class.Methods {
			for _, insn := range method.Instructions {
				if !strings.HasPrefix(insn.Opcode, "const-string") {
					continue
				}
				if strings.Contains(strings.ToLower(insn.Operands), needle) {
					c.add(domain.NewClassResult(&domain.ClassLocation{Class: class, Method: method, Instruction: insn}))
				}
			}
		}
	})
}

func (e *Executor) searchNumber(ctx context.Context, query string, c *collector) error {
	want, ok := ParseNumber(query)
	if !ok {
		return fmt.Errorf("invalid number %q", query)
	}

	for _, file := range e.resource.Files() {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, literal := range numberLiteral.FindAllString(string(file.Content), -1) {
			if n, ok := ParseNumber(literal); ok && n == want {
				c.add(domain.NewNumberResult(file, n))
			}
		}
	}

	return e.eachClass(ctx, c, func(class *domain.ClassInfo) {
		for _, method := range class.Methods {
			for _, insn := range method.Instructions {
				if n, ok := constLiteral(insn); ok && n == want {
					c.add(domain.NewClassResult(&domain.ClassLocation{Class: class, Method: method, Instruction: insn}))
				}
			}
		}
	})
}

func (e *Executor) searchMember(ctx context.Context, name string, c *collector) error {
	invoke := "->" + name + "("
	access := "->" + name + ":"
	return e.eachClass(ctx, c, func(class *domain.ClassInfo) {
		for _, field := range class.Fields {
			if field.Name == name {
				c.add(domain.NewClassResult(&domain.ClassLocation{Class: class, Field: field}))
			}
		}
		for _, method := range class.Methods {
			if method.Name == name {
				c.add(domain.NewClassResult(&domain.ClassLocation{Class: class, Method: method}))
			}
			for _, insn := range method.Instructions {
				if strings.Contains(insn.Operands, invoke) || strings.Contains(insn.Operands, access) {
					c.add(domain.NewClassResult(&domain.ClassLocation{Class: class, Method: method, Instruction: insn}))
				}
			}
		}
	})
}

func (e *Executor) searchAnnotation(ctx context.Context, query string, c *collector) error {
	typeName := NormalizeTypeName(query)
	return e.eachClass(ctx, c, func(class *domain.ClassInfo) {
		for _, a := range class.Annotations {
			if a.Type == typeName {
				c.add(domain.NewClassResult(&domain.ClassLocation{Class: class, Annotation: a}))
			}
		}
		for _, field := range class.Fields {
			for _, a := range field.Annotations {
				if a.Type == typeName {
					c.add(domain.NewClassResult(&domain.ClassLocation{Class: class, Field: field, Annotation: a}))
				}
			}
		}
		for _, method := range class.Methods {
			for _, a := range method.Annotations {
				if a.Type == typeName {
					c.add(domain.NewClassResult(&domain.ClassLocation{Class: class, Method: method, Annotation: a}))
				}
			}
		}
	})
}

// ParseNumber parses decimal, hexadecimal and floating point literals,
// including smali's wide and narrow suffixes.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	body, negative := strings.CutPrefix(s, "-")
	if hex, ok := strings.CutPrefix(strings.ToLower(body), "0x"); ok {
		n, err := strconv.ParseUint(strings.TrimRight(hex, "lst"), 16, 64)
		if err != nil {
			return 0, false
		}
		if negative {
			return -float64(n), true
		}
		return float64(n), true
	}

	n, err := strconv.ParseFloat(strings.TrimRight(s, "LlSsTtFfDd"), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// constLiteral extracts the literal operand of a numeric const instruction.
func constLiteral(insn *domain.Instruction) (float64, bool) {
	if !strings.HasPrefix(insn.Opcode, "const") ||
		strings.HasPrefix(insn.Opcode, "const-string") ||
		strings.HasPrefix(insn.Opcode, "const-class") ||
		strings.HasPrefix(insn.Opcode, "const-method") {
		return 0, false
	}
	i := strings.LastIndex(insn.Operands, ",")
	if i < 0 {
		return 0, false
	}
	return ParseNumber(insn.Operands[i+1:])
}

// NormalizeTypeName converts "com.app.Keep" or "Lcom/app/Keep;" to "com/app/Keep".
func NormalizeTypeName(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "L") && strings.HasSuffix(s, ";") {
		s = s[1 : len(s)-1]
	}
	return strings.ReplaceAll(s, ".", "/")
}
