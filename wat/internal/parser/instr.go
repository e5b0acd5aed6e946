package parser

import (
	"fmt"

	"github.com/wippyai/ownership/wat/internal/ast"
	"github.com/wippyai/ownership/wat/internal/token"
)

var plainOps = map[string]byte{
	"unreachable": ast.OpUnreachable,
	"nop":         ast.OpNop,
	"return":      ast.OpReturn,
	"drop":        ast.OpDrop,
	"i32.eqz":     ast.OpI32Eqz,
	"i32.eq":      ast.OpI32Eq,
	"i32.ne":      ast.OpI32Ne,
	"i32.add":     ast.OpI32Add,
	"i32.sub":     ast.OpI32Sub,
}

// parseInstrs reads flat and folded instructions up to the closing paren of
// the enclosing list, which it leaves unconsumed.
func (p *Parser) parseInstrs(code *[]ast.Instr) error {
	for {
		t := p.peek()
		if t == nil {
			return fmt.Errorf("unexpected end of input")
		}
		switch t.Type {
		case token.RParen:
			return nil
		case token.LParen:
			p.next()
			if err := p.parseFolded(code); err != nil {
				return err
			}
		default:
			ins, err := p.parseInstr()
			if err != nil {
				return err
			}
			*code = append(*code, ins)
		}
	}
}

// parseFolded handles (op imm* operand*): operands are emitted before op.
func (p *Parser) parseFolded(code *[]ast.Instr) error {
	ins, err := p.parseInstr()
	if err != nil {
		return err
	}
	if err := p.parseInstrs(code); err != nil {
		return err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return err
	}
	*code = append(*code, ins)
	return nil
}

func (p *Parser) parseInstr() (ast.Instr, error) {
	t, err := p.expect(token.Ident)
	if err != nil {
		return ast.Instr{}, err
	}

	if op, ok := plainOps[t.Value]; ok {
		return ast.Instr{Opcode: op}, nil
	}

	switch t.Value {
	case "local.get", "local.set", "local.tee":
		idx, err := p.parseIdx(p.locals)
		if err != nil {
			return ast.Instr{}, err
		}
		op := map[string]byte{"local.get": ast.OpLocalGet, "local.set": ast.OpLocalSet, "local.tee": ast.OpLocalTee}[t.Value]
		return ast.Instr{Opcode: op, Imm: idx}, nil

	case "call":
		idx, err := p.parseIdx(p.funcMap)
		if err != nil {
			return ast.Instr{}, err
		}
		return ast.Instr{Opcode: ast.OpCall, Imm: idx}, nil

	case "i32.const":
		v, err := p.parseInt(32)
		if err != nil {
			return ast.Instr{}, err
		}
		return ast.Instr{Opcode: ast.OpI32Const, Imm: int32(v)}, nil

	case "i64.const":
		v, err := p.parseInt(64)
		if err != nil {
			return ast.Instr{}, err
		}
		return ast.Instr{Opcode: ast.OpI64Const, Imm: v}, nil
	}

	return ast.Instr{}, fmt.Errorf("line %d: unknown instruction: %s", t.Line, t.Value)
}
