package internal

import (
	"strings"
	"unicode"
)

// SplitWords breaks an identifier written in snake_case, kebab-case,
// camelCase or PascalCase into lower-case words.
// "dataChanged" and "data_changed" both yield ["data", "changed"].
func SplitWords(identifier string) []string {
	words := make([]string, 0, 4)
	runes := []rune(identifier)
	var current []rune

	flush := func() {
		if len(current) > 0 {
			words = append(words, strings.ToLower(string(current)))
			current = current[:0]
		}
	}

	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r):
			if i > 0 && len(current) > 0 {
				prev := runes[i-1]
				nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextIsLower) {
					flush()
				}
			}
			current = append(current, r)
		default:
			current = append(current, r)
		}
	}
	flush()

	return words
}

// ToPascal converts an identifier to PascalCase.
func ToPascal(identifier string) string {
	var builder strings.Builder
	for _, word := range SplitWords(identifier) {
		builder.WriteString(capitalize(word))
	}
	return builder.String()
}

// ToCamel converts an identifier to camelCase.
func ToCamel(identifier string) string {
	var builder strings.Builder
	for i, word := range SplitWords(identifier) {
		if i == 0 {
			builder.WriteString(word)
			continue
		}
		builder.WriteString(capitalize(word))
	}
	return builder.String()
}

// ToSnake converts an identifier to snake_case.
func ToSnake(identifier string) string {
	return strings.Join(SplitWords(identifier), "_")
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	runes := []rune(word)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
