package python

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/kolah/damascus/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	wordBoundary  = regexp.MustCompile(`(.)([A-Z][a-z]+)`)
	lowerToUpper  = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	nonWordRun    = regexp.MustCompile(`\W+`)
	digitSplit    = regexp.MustCompile(`[0-9]+|[^0-9]+`)
	nonIdentifier = regexp.MustCompile(`[^A-Za-z0-9_]`)
	// separatorRun is a run of punctuation holding at least one character
	// that is not "_", such as the "-_" SnakeCase leaves in "X-Trace".
	separatorRun = regexp.MustCompile(`[^A-Za-z0-9]*[^A-Za-z0-9_][^A-Za-z0-9]*`)
)

// SnakeCase inserts "_" before a capitalized word that follows any character
// and before an uppercase letter that follows a lowercase letter or digit,
// then lowercases. Already snake_cased input is returned unchanged.
func SnakeCase(s string) string {
	s = wordBoundary.ReplaceAllString(s, "${1}_${2}")
	s = lowerToUpper.ReplaceAllString(s, "${1}_${2}")
	return strings.ToLower(s)
}

// dtoSuffix is stripped from component names to form model type names.
const dtoSuffix = "DTO"

// TypeName derives the generated type name for a component schema.
func TypeName(schemaName string) string {
	if trimmed := strings.TrimSuffix(schemaName, dtoSuffix); trimmed != "" {
		return trimmed
	}
	return schemaName
}

// ModuleName is the file stem holding the given type.
func ModuleName(typeName string) string {
	return Identifier(SnakeCase(typeName))
}

// FieldName converts an API property name into a Python field name.
func FieldName(name string) string {
	return EscapeKeyword(Identifier(separatorRun.ReplaceAllString(SnakeCase(name), "_")))
}

// Identifier replaces characters Python does not allow in names.
func Identifier(s string) string {
	s = nonIdentifier.ReplaceAllString(s, "_")
	if s == "" {
		return "field"
	}
	if unicode.IsDigit(rune(s[0])) {
		return "_" + s
	}
	return s
}

// operationDelimiter separates the meaningful part of framework-generated
// operation ids ("get_user_api_v1_users_get") from the route suffix.
const operationDelimiter = "_api_"

// ResponseSuffix is appended to synthesized response type names.
const ResponseSuffix = "Response"

// ResponseTypeName derives the synthesized response type name for an
// operation id, e.g. "getUser" -> "GetUserResponse".
func ResponseTypeName(operationID string) string {
	prefix, _, _ := strings.Cut(operationID, operationDelimiter)
	prefix = nonWordRun.ReplaceAllString(prefix, "_")

	caser := cases.Title(language.English)
	var b strings.Builder
	for _, part := range strings.Split(SnakeCase(prefix), "_") {
		// A digit ends a word, so "v2beta" titles as "V2Beta".
		for _, run := range digitSplit.FindAllString(part, -1) {
			b.WriteString(caser.String(run))
		}
	}
	name := Identifier(b.String())
	return name + ResponseSuffix
}

// MethodName is the client method name for an operation. Operations without
// an id are named from their method and path.
func MethodName(op *model.Operation) string {
	if op.ID != "" {
		return EscapeKeyword(Identifier(SnakeCase(nonWordRun.ReplaceAllString(op.ID, "_"))))
	}

	parts := []string{strings.ToLower(string(op.Method))}
	for _, segment := range strings.Split(op.Path, "/") {
		if segment == "" {
			continue
		}
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			parts = append(parts, "by", strings.Trim(segment, "{}"))
			continue
		}
		parts = append(parts, segment)
	}
	name := SnakeCase(nonWordRun.ReplaceAllString(strings.Join(parts, "_"), "_"))
	return EscapeKeyword(Identifier(strings.Trim(name, "_")))
}

// ClassName strips spaces from an API title to form the client class prefix.
func ClassName(title string) string {
	return strings.ReplaceAll(title, " ", "")
}

// reservedNames are Python keywords plus "self", which would shadow the
// method receiver in generated clients.
var reservedNames = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
	"self": true,
}

func EscapeKeyword(s string) string {
	if reservedNames[s] {
		return s + "_"
	}
	return s
}
