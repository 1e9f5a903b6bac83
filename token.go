package loxvm

// tokenKind enumerates the closed set of lexical categories the scanner
// produces. It mirrors the punctuation/literal/keyword/error/EOF taxonomy of
// spec.md §3.
type tokenKind int

const (
	tokenError tokenKind = iota
	tokenEOF

	// single/double-character punctuation
	tokenLeftParen
	tokenRightParen
	tokenLeftBrace
	tokenRightBrace
	tokenComma
	tokenDot
	tokenMinus
	tokenPlus
	tokenSemicolon
	tokenSlash
	tokenStar
	tokenBang
	tokenBangEqual
	tokenEqual
	tokenEqualEqual
	tokenGreater
	tokenGreaterEqual
	tokenLess
	tokenLessEqual
	tokenArrow // ->

	// literals
	tokenIdentifier
	tokenString
	tokenNumber

	// keywords
	tokenAnd
	tokenBreak
	tokenClass
	tokenElse
	tokenFalse
	tokenFor
	tokenFun
	tokenIf
	tokenMatch
	tokenNil
	tokenOr
	tokenPrint
	tokenReturn
	tokenSuper
	tokenThis
	tokenTrue
	tokenUnless
	tokenUntil
	tokenVar
	tokenWhile
)

var tokenKindNames = [...]string{
	tokenError:        "error",
	tokenEOF:          "EOF",
	tokenLeftParen:    "(",
	tokenRightParen:   ")",
	tokenLeftBrace:    "{",
	tokenRightBrace:   "}",
	tokenComma:        ",",
	tokenDot:          ".",
	tokenMinus:        "-",
	tokenPlus:         "+",
	tokenSemicolon:    ";",
	tokenSlash:        "/",
	tokenStar:         "*",
	tokenBang:         "!",
	tokenBangEqual:    "!=",
	tokenEqual:        "=",
	tokenEqualEqual:   "==",
	tokenGreater:      ">",
	tokenGreaterEqual: ">=",
	tokenLess:         "<",
	tokenLessEqual:    "<=",
	tokenArrow:        "->",
	tokenIdentifier:   "identifier",
	tokenString:       "string",
	tokenNumber:       "number",
	tokenAnd:          "and",
	tokenBreak:        "break",
	tokenClass:        "class",
	tokenElse:         "else",
	tokenFalse:        "false",
	tokenFor:          "for",
	tokenFun:          "fun",
	tokenIf:           "if",
	tokenMatch:        "match",
	tokenNil:          "nil",
	tokenOr:           "or",
	tokenPrint:        "print",
	tokenReturn:       "return",
	tokenSuper:        "super",
	tokenThis:         "this",
	tokenTrue:         "true",
	tokenUnless:       "unless",
	tokenUntil:        "until",
	tokenVar:          "var",
	tokenWhile:        "while",
}

func (k tokenKind) String() string {
	if int(k) >= 0 && int(k) < len(tokenKindNames) {
		if name := tokenKindNames[k]; name != "" {
			return name
		}
	}
	return "unknown"
}

// token is a transient lexical unit: it borrows its lexeme directly out of
// the source string and must not outlive the compilation step that produced
// it (spec.md §3).
type token struct {
	kind   tokenKind
	lexeme string
	line   int
}

func (t token) String() string {
	if t.kind == tokenError {
		return t.lexeme
	}
	return t.lexeme
}
