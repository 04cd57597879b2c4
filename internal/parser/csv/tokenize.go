package csv

import "strings"

// Tokenize splits line on every occurrence of sep. An empty line yields one
// empty field. An empty sep splits on DefaultFieldSeparator.
func Tokenize(line, sep string) []string {
	if sep == "" {
		sep = DefaultFieldSeparator
	}
	return strings.Split(line, sep)
}
