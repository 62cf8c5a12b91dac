package attribute

import "strings"

// ClassTokens derives the visual-encoding tokens for attrs, led by prefix.
//
// Boolean attributes contribute their name only when true. Every other kind
// contributes "name" and "name-value". Attribute order is kept; tokens are
// neither sorted nor de-duplicated.
func ClassTokens(prefix string, attrs []Attribute) []string {
	tokens := make([]string, 0, 1+2*len(attrs))
	if prefix != "" {
		tokens = append(tokens, prefix)
	}
	for _, a := range attrs {
		if a.Kind == Boolean {
			if b, ok := a.Value.(bool); ok && b {
				tokens = append(tokens, a.Name)
			}
			continue
		}
		tokens = append(tokens, a.Name, a.Name+"-"+Format(a.Value))
	}
	return tokens
}

// ClassName joins ClassTokens with single spaces.
func ClassName(prefix string, attrs []Attribute) string {
	return strings.Join(ClassTokens(prefix, attrs), " ")
}
