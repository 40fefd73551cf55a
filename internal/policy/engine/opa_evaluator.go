package engine

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/open-policy-agent/opa/v1/rego"

	"phone-verification/internal/verification/domain"
)

const methodQuery = "data.phoneverify.method.method"

// DefaultRegoPolicy keeps the configured method.
const DefaultRegoPolicy = `package phoneverify.method

method := input.configured_method
`

// OPAEvaluator resolves the verification method with an OPA Rego policy. The policy reads
// input.phone (normalized, "+" and digits), input.country_code (the digits after "+", up to
// three) and input.configured_method, and defines data.phoneverify.method.method.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles policy. An empty policy means DefaultRegoPolicy.
func NewOPAEvaluator(ctx context.Context, policy string) (*OPAEvaluator, error) {
	if strings.TrimSpace(policy) == "" {
		policy = DefaultRegoPolicy
	}
	pq, err := rego.New(
		rego.Query(methodQuery),
		rego.Module("method.rego", policy),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("policy: compile: %w", err)
	}
	return &OPAEvaluator{query: pq}, nil
}

// NewOPAEvaluatorFromFile compiles the policy stored at path. An empty path means DefaultRegoPolicy.
func NewOPAEvaluatorFromFile(ctx context.Context, path string) (*OPAEvaluator, error) {
	if path == "" {
		return NewOPAEvaluator(ctx, "")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policy: read %s: %w", path, err)
	}
	return NewOPAEvaluator(ctx, string(b))
}

// ResolveMethod evaluates the policy. An undefined result keeps configured; a result that is not
// a known method name is an error.
func (e *OPAEvaluator) ResolveMethod(ctx context.Context, phone string, configured domain.Method) (domain.Method, error) {
	rs, err := e.query.Eval(ctx, rego.EvalInput(buildInput(phone, configured)))
	if err != nil {
		return configured, fmt.Errorf("policy: eval: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return configured, nil
	}
	s, ok := rs[0].Expressions[0].Value.(string)
	if !ok {
		return configured, fmt.Errorf("policy: method is %T, want string", rs[0].Expressions[0].Value)
	}
	m, err := domain.ParseMethod(s)
	if err != nil {
		return configured, fmt.Errorf("policy: %w", err)
	}
	return m, nil
}

// HealthCheck evaluates the compiled policy against a sample number.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	if _, err := e.query.Eval(ctx, rego.EvalInput(buildInput("+10000000000", domain.DefaultMethod))); err != nil {
		return fmt.Errorf("eval policy: %w", err)
	}
	return nil
}

func buildInput(phone string, configured domain.Method) map[string]interface{} {
	digits := strings.TrimPrefix(phone, "+")
	cc := digits
	if len(cc) > 3 {
		cc = cc[:3]
	}
	return map[string]interface{}{
		"phone":             phone,
		"country_code":      cc,
		"configured_method": configured.String(),
	}
}
