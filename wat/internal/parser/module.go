package parser

import (
	"fmt"
	"strings"

	"github.com/wippyai/ownership/wat/internal/ast"
	"github.com/wippyai/ownership/wat/internal/token"
)

func (p *Parser) parseModule() (*ast.Module, error) {
	p.mod = &ast.Module{}

	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	t, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if t.Value != "module" {
		return nil, fmt.Errorf("line %d: expected 'module', got %q", t.Line, t.Value)
	}
	p.optionalID()
	p.prescanFuncs()

	for {
		t := p.peek()
		if t == nil {
			return nil, fmt.Errorf("unexpected end of input")
		}
		if t.Type == token.RParen {
			p.next()
			break
		}
		if _, err := p.expect(token.LParen); err != nil {
			return nil, err
		}
		kw, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		switch kw.Value {
		case "import":
			err = p.parseImport()
		case "func":
			err = p.parseFunc()
		case "export":
			err = p.parseExport()
		default:
			err = fmt.Errorf("line %d: unsupported module field %q", kw.Line, kw.Value)
		}
		if err != nil {
			return nil, err
		}
	}

	if t := p.peek(); t != nil {
		return nil, fmt.Errorf("line %d: unexpected %q after module", t.Line, t.Value)
	}
	return p.mod, nil
}

// prescanFuncs assigns indices to every named function before parsing so
// calls can refer forward. Imports come first in the index space.
func (p *Parser) prescanFuncs() {
	var imported, defined []string
	depth := 0

scan:
	for i := p.pos; i < len(p.tokens); i++ {
		switch p.tokens[i].Type {
		case token.LParen:
			depth++
			if depth != 1 || i+1 >= len(p.tokens) {
				continue
			}
			switch p.tokens[i+1].Value {
			case "import":
				imported = append(imported, p.importedFuncName(i))
			case "func":
				name := ""
				if i+2 < len(p.tokens) && strings.HasPrefix(p.tokens[i+2].Value, "$") {
					name = p.tokens[i+2].Value
				}
				defined = append(defined, name)
			}
		case token.RParen:
			depth--
			if depth < 0 {
				break scan
			}
		}
	}

	for i, name := range append(imported, defined...) {
		if name != "" {
			p.funcMap[name] = uint32(i)
		}
	}
}

// importedFuncName finds the $name of the func descriptor in the import
// field opening at start.
func (p *Parser) importedFuncName(start int) string {
	depth := 0
	for i := start; i < len(p.tokens); i++ {
		switch p.tokens[i].Type {
		case token.LParen:
			depth++
			if depth == 2 && i+2 < len(p.tokens) && p.tokens[i+1].Value == "func" &&
				strings.HasPrefix(p.tokens[i+2].Value, "$") {
				return p.tokens[i+2].Value
			}
		case token.RParen:
			depth--
			if depth == 0 {
				return ""
			}
		}
	}
	return ""
}

// (import "module" "name" (func $id? (param ...)* (result ...)*))
func (p *Parser) parseImport() error {
	if p.defined {
		return fmt.Errorf("imports must precede function definitions")
	}
	mod, err := p.expect(token.String)
	if err != nil {
		return err
	}
	name, err := p.expect(token.String)
	if err != nil {
		return err
	}
	if !p.field("func") {
		return fmt.Errorf("line %d: only function imports are supported", mod.Line)
	}
	p.pos += 2
	p.optionalID()

	ft, _, err := p.parseSignature()
	if err != nil {
		return err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return err
	}

	p.mod.Imports = append(p.mod.Imports, ast.Import{
		Module:  mod.Value,
		Name:    name.Value,
		TypeIdx: p.findOrAddType(ft),
	})
	return nil
}

// (func $id? (export "name")* (param ...)* (result ...)* (local ...)* instr*)
func (p *Parser) parseFunc() error {
	p.defined = true
	idx := uint32(len(p.mod.Imports) + len(p.mod.Funcs))
	p.optionalID()

	for p.field("export") {
		p.pos += 2
		name, err := p.expect(token.String)
		if err != nil {
			return err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return err
		}
		p.mod.Exports = append(p.mod.Exports, ast.Export{Name: name.Value, Kind: ast.KindFunc, Idx: idx})
	}

	ft, names, err := p.parseSignature()
	if err != nil {
		return err
	}
	p.locals = names

	body := ast.FuncBody{}
	for p.field("local") {
		p.pos += 2
		if id := p.optionalID(); id != "" {
			p.locals[id] = uint32(len(ft.Params) + len(body.Locals))
		}
		for {
			t := p.peek()
			if t == nil || t.Type != token.Ident {
				break
			}
			vt, err := p.parseValType()
			if err != nil {
				return err
			}
			body.Locals = append(body.Locals, vt)
		}
		if _, err := p.expect(token.RParen); err != nil {
			return err
		}
	}

	if err := p.parseInstrs(&body.Code); err != nil {
		return err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return err
	}

	p.mod.Funcs = append(p.mod.Funcs, ast.FuncEntry{TypeIdx: p.findOrAddType(ft)})
	p.mod.Code = append(p.mod.Code, body)
	return nil
}

// (export "name" (func idx))
func (p *Parser) parseExport() error {
	name, err := p.expect(token.String)
	if err != nil {
		return err
	}
	if !p.field("func") {
		return fmt.Errorf("line %d: only function exports are supported", name.Line)
	}
	p.pos += 2
	idx, err := p.parseIdx(p.funcMap)
	if err != nil {
		return err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return err
	}
	p.mod.Exports = append(p.mod.Exports, ast.Export{Name: name.Value, Kind: ast.KindFunc, Idx: idx})
	return nil
}

// parseSignature reads (param ...) and (result ...) lists. Named params are
// returned as local indices.
func (p *Parser) parseSignature() (ast.FuncType, map[string]uint32, error) {
	var ft ast.FuncType
	names := make(map[string]uint32)

	for p.field("param") {
		p.pos += 2
		if id := p.optionalID(); id != "" {
			names[id] = uint32(len(ft.Params))
		}
		for {
			t := p.peek()
			if t == nil || t.Type != token.Ident {
				break
			}
			vt, err := p.parseValType()
			if err != nil {
				return ft, nil, err
			}
			ft.Params = append(ft.Params, vt)
		}
		if _, err := p.expect(token.RParen); err != nil {
			return ft, nil, err
		}
	}

	for p.field("result") {
		p.pos += 2
		for {
			t := p.peek()
			if t == nil || t.Type != token.Ident {
				break
			}
			vt, err := p.parseValType()
			if err != nil {
				return ft, nil, err
			}
			ft.Results = append(ft.Results, vt)
		}
		if _, err := p.expect(token.RParen); err != nil {
			return ft, nil, err
		}
	}

	return ft, names, nil
}
