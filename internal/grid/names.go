package grid

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	petname "github.com/dustinkirkland/golang-petname"
)

var seedOnce sync.Once

// GroupName generates a three-word PascalCase name such as
// "QuicklyBraveOtter" for a new group.
func GroupName() string {
	seedOnce.Do(petname.NonDeterministicMode)

	words := strings.Fields(petname.Generate(3, " "))
	var b strings.Builder
	for _, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(w[size:])
	}
	return b.String()
}
