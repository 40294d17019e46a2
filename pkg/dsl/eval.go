// Package dsl 提供基于 CEL (Common Expression Language) 的样本筛选表达式。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/diffkit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("example", cel.MapType(cel.StringType, cel.DynType)),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Program 是编译好的样本筛选表达式，可对多条样本重复求值。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：example.diff > 0.3 / example.diff <= 0.8
//   - 长度：size(example.content) > 5 / size(example.tokens) < 200
//   - 包含："not" in example.question
//   - 逻辑：example.diff > 0.3 && size(example.option) > 0
//
// 可用字段：id, content, question, option, tokens, diff。
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式。空表达式匹配所有样本。
func Compile(expr string) (*Program, error) {
	if expr == "" {
		return &Program{}, nil
	}

	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType && ast.OutputType() != cel.DynType {
		return nil, fmt.Errorf("expression must return bool, got %s", ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式。
func (p *Program) String() string { return p.expr }

// Match 对单条样本求值。
func (p *Program) Match(ex *core.Example) (bool, error) {
	if p.prg == nil {
		return true, nil
	}

	out, _, err := p.prg.Eval(map[string]interface{}{
		"example": buildInput(ex),
	})
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(ex *core.Example) map[string]interface{} {
	return map[string]interface{}{
		"id":       ex.ID,
		"content":  orEmpty(ex.Content),
		"question": orEmpty(ex.Question),
		"option":   orEmpty(ex.Option),
		"tokens":   ex.Tokens(),
		"diff":     ex.Diff,
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
