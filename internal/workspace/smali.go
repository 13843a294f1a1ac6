package workspace

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sha1n/relic-results/internal/domain"
)

// ErrNotSmali is returned when content has no .class directive.
var ErrNotSmali = errors.New("not a smali class")

var (
	classDirective      = regexp.MustCompile(`^\.class\s+((?:[\w-]+\s+)*)L([^;\s]+);`)
	superDirective      = regexp.MustCompile(`^\.super\s+L([^;\s]+);`)
	annotationDirective = regexp.MustCompile(`^\.annotation\s+\w+\s+L([^;\s]+);`)
)

// smaliParser tracks the member that indented directives belong to.
type smaliParser struct {
	class  *domain.ClassInfo
	field  *domain.FieldInfo
	method *domain.MethodInfo
	// skipUntil is the directive closing a block whose body is ignored.
	skipUntil string
	line      int
}

// ParseSmali parses a baksmali class listing. source is recorded on the
// returned class as the workspace-relative path it was read from.
func ParseSmali(source string, content []byte) (*domain.ClassInfo, error) {
	p := &smaliParser{}
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		p.line++
		if err := p.parseLine(scanner.Text()); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", source, p.line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}

	if p.class == nil {
		return nil, fmt.Errorf("%s: %w", source, ErrNotSmali)
	}
	if p.method != nil {
		return nil, fmt.Errorf("%s: method %s has no .end method", source, p.method.Key())
	}
	p.class.Source = source
	return p.class, nil
}

func (p *smaliParser) parseLine(raw string) error {
	line := strings.TrimSpace(raw)
	if line == "" || line[0] == '#' {
		return nil
	}
	indented := line != raw && (raw[0] == ' ' || raw[0] == '\t')

	if p.skipUntil != "" {
		if line == p.skipUntil {
			p.skipUntil = ""
		}
		return nil
	}

	if p.class == nil {
		m := classDirective.FindStringSubmatch(line)
		if m == nil {
			return nil
		}
		p.class = &domain.ClassInfo{
			Name:   m[2],
			Access: strings.Fields(m[1]),
		}
		return nil
	}

	switch {
	case strings.HasPrefix(line, ".super"):
		if m := superDirective.FindStringSubmatch(line); m != nil {
			p.class.SuperName = m[1]
		}
	case strings.HasPrefix(line, ".annotation"):
		p.parseAnnotation(line, indented)
	case strings.HasPrefix(line, ".field"):
		return p.parseField(line)
	case line == ".end field":
		p.field = nil
	case strings.HasPrefix(line, ".method"):
		return p.parseMethod(line)
	case line == ".end method":
		if p.method == nil {
			return errors.New(".end method outside a method")
		}
		p.method = nil
	case p.method != nil:
		p.parseMethodBody(line)
	}
	return nil
}

func (p *smaliParser) parseAnnotation(line string, indented bool) {
	p.skipUntil = ".end annotation"
	m := annotationDirective.FindStringSubmatch(line)
	if m == nil {
		return
	}
	a := &domain.AnnotationInfo{Type: m[1]}

	switch {
	case indented && p.method != nil:
		p.method.Annotations = append(p.method.Annotations, a)
	case indented && p.field != nil:
		p.field.Annotations = append(p.field.Annotations, a)
	default:
		p.class.Annotations = append(p.class.Annotations, a)
	}
}

// parseField handles ".field <flags> name:descriptor [= value]".
func (p *smaliParser) parseField(line string) error {
	decl, _, _ := strings.Cut(line, " = ")
	tokens := strings.Fields(decl)
	if len(tokens) < 2 {
		return fmt.Errorf("malformed field %q", line)
	}
	name, descriptor, ok := strings.Cut(tokens[len(tokens)-1], ":")
	if !ok || name == "" || descriptor == "" {
		return fmt.Errorf("malformed field %q", line)
	}

	p.method = nil
	p.field = &domain.FieldInfo{Name: name, Descriptor: descriptor}
	p.class.Fields = append(p.class.Fields, p.field)
	return nil
}

// parseMethod handles ".method <flags> name(params)return".
func (p *smaliParser) parseMethod(line string) error {
	if p.method != nil {
		return fmt.Errorf("method %s has no .end method", p.method.Key())
	}
	tokens := strings.Fields(line)
	if len(tokens) < 2 {
		return fmt.Errorf("malformed method %q", line)
	}
	sig := tokens[len(tokens)-1]
	i := strings.IndexByte(sig, '(')
	if i <= 0 {
		return fmt.Errorf("malformed method %q", line)
	}

	p.field = nil
	p.method = &domain.MethodInfo{Name: sig[:i], Descriptor: sig[i:]}
	p.class.Methods = append(p.class.Methods, p.method)
	return nil
}

// blockEnds maps directives opening a data block to their closing directive.
var blockEnds = map[string]string{
	".packed-switch": ".end packed-switch",
	".sparse-switch": ".end sparse-switch",
	".array-data":    ".end array-data",
}

func (p *smaliParser) parseMethodBody(line string) {
	switch line[0] {
	case ':':
		return
	case '.':
		directive, _, _ := strings.Cut(line, " ")
		if end, ok := blockEnds[directive]; ok {
			p.skipUntil = end
		}
		return
	}

	// Strip a trailing comment unless the '#' sits inside a string literal.
	if i := strings.LastIndex(line, " #"); i >= 0 && strings.Count(line[:i], `"`)%2 == 0 {
		line = strings.TrimSpace(line[:i])
	}
	opcode, operands, _ := strings.Cut(line, " ")
	p.method.Instructions = append(p.method.Instructions, &domain.Instruction{
		Index:    len(p.method.Instructions),
		Opcode:   opcode,
		Operands: strings.TrimSpace(operands),
	})
}
