package terminology

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Condition maps a canonical condition token to the lexical variants that
// count as a mention of it in free text.
type Condition struct {
	Display  string   `yaml:"display" json:"display"`
	Variants []string `yaml:"variants" json:"variants"`
}

type Catalog struct {
	Conditions map[string]Condition `yaml:"conditions" json:"conditions"`
}

func Load(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultCatalog(), err
	}
	var cat Catalog
	if err := yaml.Unmarshal(content, &cat); err != nil {
		return Catalog{}, err
	}
	if len(cat.Conditions) == 0 {
		return Catalog{}, fmt.Errorf("synonym catalog empty")
	}
	return cat, nil
}

// Canonical returns the canonical token for a single term, matching the
// token itself or any of its variants case-insensitively.
func (c Catalog) Canonical(term string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return "", false
	}
	if _, ok := c.Conditions[needle]; ok {
		return needle, true
	}
	for token, cond := range c.Conditions {
		if strings.EqualFold(cond.Display, needle) {
			return token, true
		}
		for _, v := range cond.Variants {
			if strings.EqualFold(v, needle) {
				return token, true
			}
		}
	}
	return "", false
}

// Expand scans free text and returns the sorted set of canonical tokens
// whose name or variants appear in it.
func (c Catalog) Expand(text string) []string {
	haystack := strings.ToLower(text)
	if haystack == "" {
		return nil
	}
	found := map[string]struct{}{}
	for token, cond := range c.Conditions {
		if strings.Contains(haystack, token) {
			found[token] = struct{}{}
			continue
		}
		for _, v := range cond.Variants {
			if strings.Contains(haystack, strings.ToLower(v)) {
				found[token] = struct{}{}
				break
			}
		}
	}
	tokens := make([]string, 0, len(found))
	for token := range found {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

// DefaultCatalog covers the mental-health conditions the referral service
// screens for.
func DefaultCatalog() Catalog {
	return Catalog{Conditions: map[string]Condition{
		"depression": {
			Display:  "Depression",
			Variants: []string{"major depressive disorder", "mdd", "depressive", "depressed"},
		},
		"anxiety": {
			Display:  "Anxiety",
			Variants: []string{"generalized anxiety disorder", "gad", "anxious", "panic disorder"},
		},
		"ptsd": {
			Display:  "PTSD",
			Variants: []string{"post-traumatic stress disorder", "posttraumatic stress", "post traumatic stress"},
		},
		"bipolar": {
			Display:  "Bipolar Disorder",
			Variants: []string{"bipolar i", "bipolar ii", "bipolar 2", "manic depression"},
		},
		"adhd": {
			Display:  "ADHD",
			Variants: []string{"attention deficit", "attention-deficit"},
		},
		"ocd": {
			Display:  "OCD",
			Variants: []string{"obsessive compulsive", "obsessive-compulsive"},
		},
		"insomnia": {
			Display:  "Insomnia",
			Variants: []string{"sleep disorder", "trouble sleeping", "sleeplessness"},
		},
		"substance use": {
			Display:  "Substance Use",
			Variants: []string{"substance abuse", "drug use", "addiction", "opioid"},
		},
		"alcohol": {
			Display:  "Alcohol Use",
			Variants: []string{"alcohol use disorder", "alcoholism", "drinking problem"},
		},
		"schizophrenia": {
			Display:  "Schizophrenia",
			Variants: []string{"schizoaffective", "psychosis", "psychotic"},
		},
		"eating disorder": {
			Display:  "Eating Disorder",
			Variants: []string{"anorexia", "bulimia", "binge eating"},
		},
	}}
}
