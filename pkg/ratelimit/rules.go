package ratelimit

import (
	"fmt"
	"strings"

	"floodgate-hq/floodgate/pkg/config"
)

// Ruleset is the static lookup from scope name to Rule. It is built once at
// startup and never mutated afterwards, so lookups are lock-free.
type Ruleset struct {
	rules       map[string]Rule
	defaultRule Rule
	hasDefault  bool
}

// NewRuleset builds a ruleset from explicit rules and an optional default
// applied to scopes without an explicit rule. A nil default means unknown
// scopes are unlimited.
func NewRuleset(rules []Rule, defaultRule *Rule) (*Ruleset, error) {
	rs := &Ruleset{
		rules: make(map[string]Rule, len(rules)),
	}

	for _, rule := range rules {
		scope := strings.TrimSpace(rule.Scope)
		if scope == "" {
			return nil, fmt.Errorf("rule scope must not be empty")
		}
		if _, dup := rs.rules[scope]; dup {
			return nil, fmt.Errorf("duplicate rule for scope %q", scope)
		}
		if err := checkRule(rule); err != nil {
			return nil, fmt.Errorf("invalid rule for scope %q: %w", scope, err)
		}
		rule.Scope = scope
		if rule.Action == "" {
			rule.Action = ActionReject
		}
		rs.rules[scope] = rule
	}

	if defaultRule != nil {
		if err := checkRule(*defaultRule); err != nil {
			return nil, fmt.Errorf("invalid default rule: %w", err)
		}
		rs.defaultRule = *defaultRule
		if rs.defaultRule.Action == "" {
			rs.defaultRule.Action = ActionReject
		}
		rs.hasDefault = true
	}

	return rs, nil
}

// NewRulesetFromConfig builds a ruleset from the rate limit configuration
// section.
func NewRulesetFromConfig(cfg *config.RateLimitConfig) (*Ruleset, error) {
	rules := make([]Rule, 0, len(cfg.Rules))
	for scope, rc := range cfg.Rules {
		rules = append(rules, Rule{
			Scope:  scope,
			Limit:  rc.Limit,
			Window: rc.Window,
			Action: Action(rc.Action),
		})
	}

	var defaultRule *Rule
	if cfg.DefaultRule != nil {
		defaultRule = &Rule{
			Limit:  cfg.DefaultRule.Limit,
			Window: cfg.DefaultRule.Window,
			Action: Action(cfg.DefaultRule.Action),
		}
	}

	return NewRuleset(rules, defaultRule)
}

// Resolve returns the rule for a scope. The second return value is false
// when no rule applies and the scope is unlimited.
func (rs *Ruleset) Resolve(scope string) (Rule, bool) {
	if rule, ok := rs.rules[scope]; ok {
		return rule, true
	}
	if rs.hasDefault {
		rule := rs.defaultRule
		rule.Scope = scope
		return rule, true
	}
	return Rule{}, false
}

// Len returns the number of explicit scope rules.
func (rs *Ruleset) Len() int {
	return len(rs.rules)
}

// HasDefault reports whether a default rule covers unknown scopes.
func (rs *Ruleset) HasDefault() bool {
	return rs.hasDefault
}

func checkRule(rule Rule) error {
	if rule.Limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", rule.Limit)
	}
	if rule.Window <= 0 {
		return fmt.Errorf("window must be positive, got %s", rule.Window)
	}
	switch rule.Action {
	case "", ActionReject, ActionLog:
		return nil
	default:
		return fmt.Errorf("unsupported action %q", rule.Action)
	}
}
