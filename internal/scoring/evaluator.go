package scoring

import "certify-service/internal/domain"

// Engine evaluates an ordered rule list against a context. It is stateless
// and safe for concurrent use.
type Engine struct {
	rules []Rule
}

func NewEngine(rules []Rule) *Engine {
	return &Engine{rules: rules}
}

// Evaluate runs the rules in order. In CombineFirstMatch mode evaluation
// stops after the first rule that produced points or a badge; the default
// additive mode lets every rule contribute.
func (e *Engine) Evaluate(ctx Context, mode CombineMode) Result {
	var res Result
	seen := make(map[string]struct{})

	for _, rule := range e.rules {
		out, ok := rule.Evaluate(ctx)
		if !ok {
			continue
		}

		produced := false
		if out.Points != 0 {
			typ := out.PointType
			if typ == "" {
				typ = rule.Code()
			}
			res.Awards = append(res.Awards, domain.PointAward{
				Type:        typ,
				Points:      out.Points,
				Description: out.Description,
			})
			res.Total += out.Points
			produced = true
		}
		for _, code := range out.Badges {
			if code == "" {
				continue
			}
			produced = true
			if _, dup := seen[code]; dup {
				continue
			}
			seen[code] = struct{}{}
			res.Badges = append(res.Badges, code)
		}
		if out.StreakMilestone > res.StreakMilestone {
			res.StreakMilestone = out.StreakMilestone
		}

		if mode == CombineFirstMatch && produced {
			break
		}
	}
	return res
}
