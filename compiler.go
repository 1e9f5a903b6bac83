package loxvm

import "strconv"

// precedence enumerates the Pratt parser's climbing levels, low to high
// (spec.md §4.6). `joined` sits between `none` and `assignment` as a named
// rung reserved for a future comma/sequencing operator; no token maps to it
// today (see DESIGN.md).
type precedence int

const (
	precNone precedence = iota
	precJoined
	precAssignment
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

type parseFn func(c *compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

// parserState is the three-state error discriminator of spec.md §4.6/§9:
// normal -> panic on the first error, panic -> error at a synchronization
// point. It never transitions back to normal.
type parserState int

const (
	stateNormal parserState = iota
	stateError
	statePanic
)

const maxLocals = 256

// localVar is one LocalVariables entry (spec.md §3): depth of -1 means
// "declared, initializer not yet compiled."
type localVar struct {
	name  string
	depth int
}

const localDepthNone = -1

// compiler drives the scanner and emits bytecode into a growing Chunk via a
// single-pass Pratt parser (spec.md §4.6). It borrows the heap, string
// interner, and globals store from the VM that constructed it, mutating
// them under the same exclusive-borrow discipline spec.md §5 describes.
type compiler struct {
	scanner *scanner
	current token
	prev    token

	chunk *Chunk

	locals     []localVar
	scopeDepth int

	// loopBreaks holds one slice of pending `break` jump offsets per
	// enclosing loop, innermost last; breakStatement appends to the top
	// entry, and each loop patches and pops its own entry once it finishes
	// compiling (spec.md §9's compiler extension points -- `break` is
	// scanned as a keyword but left unimplemented by the distilled spec).
	loopBreaks [][]int

	state parserState

	mem     *MemoryManager
	strings *stringInterner
	globals *GlobalVariables

	logf func(mark, format string, args ...interface{})

	errs []compileError
}

func newCompiler(source string, mem *MemoryManager, strings *stringInterner, globals *GlobalVariables) *compiler {
	c := &compiler{
		scanner: newScanner(source),
		chunk:   &Chunk{},
		mem:     mem,
		strings: strings,
		globals: globals,
	}
	return c
}

// compile drives the whole source to completion, returning the finished
// chunk only if the parser state is still `normal` (no error was ever
// reported; the `error` state reached after synchronizing yields no chunk
// either) -- spec.md §4.6/§7: "A chunk is returned only if state is normal
// at end-of-compile."
func (c *compiler) compile() (*Chunk, []compileError) {
	c.advance()
	for !c.check(tokenEOF) {
		c.declaration()
	}
	c.consume(tokenEOF, "Expected end of expression.")
	c.emitOp(opReturn)

	if c.state != stateNormal {
		return nil, c.errs
	}
	return c.chunk, nil
}

//// token stream plumbing

func (c *compiler) advance() {
	c.prev = c.current
	for {
		c.current = c.scanner.scanToken()
		if c.current.kind != tokenError {
			break
		}
		c.errorAtCurrent(c.current.lexeme, true)
	}
}

func (c *compiler) check(kind tokenKind) bool { return c.current.kind == kind }

func (c *compiler) matchToken(kind tokenKind) bool {
	if !c.check(kind) {
		return false
	}
	c.advance()
	return true
}

func (c *compiler) consume(kind tokenKind, message string) {
	if c.current.kind == kind {
		c.advance()
		return
	}
	c.errorAtCurrent(message, false)
}

//// error reporting & synchronization (spec.md §4.6/§7/§9)

func (c *compiler) errorAtCurrent(message string, isScanError bool) {
	c.errorAt(c.current, message, isScanError)
}

func (c *compiler) errorAtPrev(message string) {
	c.errorAt(c.prev, message, false)
}

func (c *compiler) errorAt(t token, message string, isScanError bool) {
	if c.state == statePanic {
		return
	}
	c.state = statePanic
	c.errs = append(c.errs, compileError{
		line:    t.line,
		atEnd:   t.kind == tokenEOF,
		lexeme:  t.lexeme,
		isError: isScanError,
		message: message,
	})
}

// synchronize discards tokens until after a semicolon or the start of a new
// statement-like keyword, then resumes parsing in the `error` state
// (spec.md §4.6).
func (c *compiler) synchronize() {
	c.state = stateError
	for c.current.kind != tokenEOF {
		if c.prev.kind == tokenSemicolon {
			return
		}
		switch c.current.kind {
		case tokenClass, tokenFun, tokenVar, tokenFor, tokenIf, tokenWhile, tokenPrint, tokenReturn:
			return
		}
		c.advance()
	}
}

//// bytecode emission helpers

func (c *compiler) emitOp(op opCode) { c.chunk.writeOp(op, c.prev.line) }

func (c *compiler) emitByte(b byte) { c.chunk.write(b, c.prev.line) }

func (c *compiler) emitConstant(v value) {
	idx := c.chunk.addConstant(v)
	if !c.chunk.writeConstantOp(opConstant, idx, c.prev.line) {
		c.errorAtPrev(msgConstantLimitExceeded)
	}
}

func (c *compiler) emitJump(op opCode) int {
	at := c.chunk.emitJump(op, c.prev.line)
	c.trace("jump", "emit %s at %d", op, at)
	return at
}

func (c *compiler) patchJump(at int) {
	c.chunk.patchJump(at)
	c.trace("jump", "patch %d -> %d", at, len(c.chunk.code))
}

// trace reports a single compiler decision through the same leveled sink
// vm.go wires its own dispatch trace through (spec.md §0/§10.2); it is a
// no-op when no trace sink is attached (c.logf is left nil by default).
func (c *compiler) trace(mark, format string, args ...interface{}) {
	if c.logf != nil {
		c.logf(mark, format, args...)
	}
}

// emitLoop emits an unconditional backward jump to loopStart, the
// "loop is jump backward" rule of spec.md §4.5.
func (c *compiler) emitLoop(loopStart int) {
	c.chunk.writeOp(opJumpLong, c.prev.line)
	c.chunk.writeUint24(loopStart, c.prev.line)
}

//// declarations & statements (spec.md §4.6)

func (c *compiler) declaration() {
	if c.matchToken(tokenVar) {
		c.varDeclaration()
	} else {
		c.statement()
	}
	if c.state == statePanic {
		c.synchronize()
	}
}

func (c *compiler) varDeclaration() {
	global, localSlot := c.parseVariable("Expected variable name.")

	if c.matchToken(tokenEqual) {
		c.expression()
	} else {
		c.emitOp(opNil)
	}
	c.consume(tokenSemicolon, msgExpectSemicolon)

	c.defineVariable(global, localSlot)
}

// parseVariable consumes an identifier and declares it, returning either a
// global-store index with isLocal false (scopeDepth == 0), or 0 with isLocal
// true if it was declared as a local (in which case the local bookkeeping,
// not a bytecode operand, tracks it).
func (c *compiler) parseVariable(errMessage string) (global int, isLocal bool) {
	c.consume(tokenIdentifier, errMessage)
	name := c.prev.lexeme

	if c.scopeDepth > 0 {
		c.declareLocal(name)
		return 0, true
	}
	return c.globals.index(name), false
}

func (c *compiler) declareLocal(name string) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.depth != localDepthNone && l.depth < c.scopeDepth {
			break
		}
		if l.name == name {
			c.errorAtPrev(msgIllegalRedefinition(name))
			return
		}
	}
	if len(c.locals) >= maxLocals {
		c.errorAtPrev(msgLocalLimitExceeded)
		return
	}
	c.trace("local", "declare %q at depth %d slot %d", name, c.scopeDepth, len(c.locals))
	c.locals = append(c.locals, localVar{name: name, depth: localDepthNone})
}

func (c *compiler) defineVariable(global int, isLocal bool) {
	if isLocal {
		c.markLocalInitialized()
		return
	}
	if !c.chunk.writeConstantOp(opDefineGlobal, global, c.prev.line) {
		c.errorAtPrev(msgConstantLimitExceeded)
	}
}

func (c *compiler) markLocalInitialized() {
	if len(c.locals) == 0 {
		return
	}
	c.locals[len(c.locals)-1].depth = c.scopeDepth
}

func (c *compiler) statement() {
	switch {
	case c.matchToken(tokenPrint):
		c.printStatement()
	case c.matchToken(tokenIf):
		c.ifStatement(false)
	case c.matchToken(tokenUnless):
		c.ifStatement(true)
	case c.matchToken(tokenWhile):
		c.whileStatement(false)
	case c.matchToken(tokenUntil):
		c.whileStatement(true)
	case c.matchToken(tokenFor):
		c.forStatement()
	case c.matchToken(tokenMatch):
		c.matchStatement()
	case c.matchToken(tokenBreak):
		c.breakStatement()
	case c.matchToken(tokenLeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *compiler) printStatement() {
	c.expression()
	c.consume(tokenSemicolon, msgExpectSemicolon)
	c.emitOp(opPrint)
}

func (c *compiler) expressionStatement() {
	c.expression()
	c.consume(tokenSemicolon, msgExpectSemicolon)
	c.emitOp(opPop)
}

// breakStatement emits a forward jump registered against the innermost
// enclosing loop, patched once that loop finishes compiling.
func (c *compiler) breakStatement() {
	c.consume(tokenSemicolon, msgExpectSemicolon)
	if len(c.loopBreaks) == 0 {
		c.errorAtPrev("Cannot use 'break' outside of a loop.")
		return
	}
	top := len(c.loopBreaks) - 1
	c.loopBreaks[top] = append(c.loopBreaks[top], c.emitJump(opJumpLong))
}

func (c *compiler) beginLoop() { c.loopBreaks = append(c.loopBreaks, nil) }

// endLoop patches every break registered against the current loop to land
// here: the point normal loop exit reaches after popping its own condition,
// so a break skips only the loop body, not any enclosing scope cleanup.
func (c *compiler) endLoop() {
	top := len(c.loopBreaks) - 1
	for _, at := range c.loopBreaks[top] {
		c.patchJump(at)
	}
	c.loopBreaks = c.loopBreaks[:top]
}

func (c *compiler) block() {
	for !c.check(tokenRightBrace) && !c.check(tokenEOF) {
		c.declaration()
	}
	c.consume(tokenRightBrace, "Expected '}' after block.")
}

func (c *compiler) beginScope() { c.scopeDepth++ }

// endScope decrements the scope depth and emits one `pop` per local
// declared at the departing depth, enforcing scope hygiene (spec.md §4.6,
// §8's "Scope hygiene" property).
func (c *compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		c.emitOp(opPop)
		c.locals = c.locals[:len(c.locals)-1]
	}
}

// ifStatement compiles both `if` and `unless`, inverting branch polarity for
// the latter per spec.md §4.6/§9. `unless` rejects an `else` clause.
func (c *compiler) ifStatement(inverted bool) {
	c.consume(tokenLeftParen, "Expected '(' after condition keyword.")
	c.expression()
	c.consume(tokenRightParen, msgExpectRightParen)

	branchOp := opJumpIfFalse
	if inverted {
		branchOp = opJumpIfTrue
	}
	thenJump := c.emitJump(branchOp)
	c.emitOp(opPop)
	c.statement()

	elseJump := c.emitJump(opJumpLong)
	c.patchJump(thenJump)
	c.emitOp(opPop)

	if c.matchToken(tokenElse) {
		if inverted {
			c.errorAtPrev(msgUnlessWithElse)
		}
		c.statement()
	}
	c.patchJump(elseJump)
}

// whileStatement compiles both `while` and `until`, inverting branch
// polarity for the latter (spec.md §4.6/§9).
func (c *compiler) whileStatement(inverted bool) {
	c.beginLoop()
	loopStart := len(c.chunk.code)
	c.consume(tokenLeftParen, "Expected '(' after condition keyword.")
	c.expression()
	c.consume(tokenRightParen, msgExpectRightParen)

	branchOp := opJumpIfFalse
	if inverted {
		branchOp = opJumpIfTrue
	}
	exitJump := c.emitJump(branchOp)
	c.emitOp(opPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(opPop)
	c.endLoop()
}

// forStatement compiles a C-style for loop with all three clauses optional,
// desugaring into the jump diagram of spec.md §4.7.
func (c *compiler) forStatement() {
	c.beginScope()
	c.beginLoop()
	c.consume(tokenLeftParen, "Expected '(' after 'for'.")

	switch {
	case c.matchToken(tokenSemicolon):
		// no initializer
	case c.matchToken(tokenVar):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk.code)
	exitJump := -1
	if !c.matchToken(tokenSemicolon) {
		c.expression()
		c.consume(tokenSemicolon, msgExpectSemicolon)
		exitJump = c.emitJump(opJumpIfFalse)
		c.emitOp(opPop)
	}

	if !c.matchToken(tokenRightParen) {
		bodyJump := c.emitJump(opJumpLong)

		incrementStart := len(c.chunk.code)
		c.expression()
		c.emitOp(opPop)
		c.consume(tokenRightParen, msgExpectRightParen)

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(opPop)
	}

	c.endLoop()
	c.endScope()
}

// matchStatement compiles `match (expr) { pattern -> stmt ... (_ -> stmt)? }`
// (spec.md §4.6/§4.7/§11). The scrutinee is evaluated once and left on the
// stack for every arm's `match` opcode, which compares without popping on
// mismatch; a final wildcard arm, if present, must come last and consumes
// the scrutinee unconditionally.
func (c *compiler) matchStatement() {
	c.consume(tokenLeftParen, "Expected '(' after 'match'.")
	c.expression()
	c.consume(tokenRightParen, msgExpectRightParen)
	c.consume(tokenLeftBrace, "Expected '{' before match arms.")

	var exitJumps []int
	armCount := 0
	sawWildcard := false

	for !c.check(tokenRightBrace) && !c.check(tokenEOF) {
		if sawWildcard {
			c.errorAtCurrent(msgMatchWildcardNotLast, false)
		}
		armCount++

		if c.check(tokenIdentifier) && c.current.lexeme == "_" {
			c.advance()
			sawWildcard = true
			c.emitOp(opPop) // drop the scrutinee unconditionally
			c.consume(tokenArrow, "Expected '->' after match pattern.")
			c.statement()
		} else {
			c.expression()
			c.consume(tokenArrow, "Expected '->' after match pattern.")
			failJump := c.emitJump(opMatch)
			c.emitOp(opPop)
			c.statement()
			exitJumps = append(exitJumps, c.emitJump(opJumpLong))
			c.patchJump(failJump)
		}
	}

	if armCount == 0 {
		c.errorAtPrev(msgEmptyMatch)
	}

	c.consume(tokenRightBrace, "Expected '}' after match arms.")

	if !sawWildcard {
		c.emitOp(opPop) // no arm matched: drop the scrutinee
	}
	for _, j := range exitJumps {
		c.patchJump(j)
	}
}

//// expressions (Pratt parser, spec.md §4.6)

func (c *compiler) expression() { c.parsePrecedence(precAssignment) }

func (c *compiler) parsePrecedence(min precedence) {
	c.advance()
	rule := ruleFor(c.prev.kind)
	if rule.prefix == nil {
		c.errorAtPrev(msgExpectExpression)
		return
	}
	canAssign := min <= precAssignment
	rule.prefix(c, canAssign)

	for ruleFor(c.current.kind).precedence >= min {
		c.advance()
		infix := ruleFor(c.prev.kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.matchToken(tokenEqual) {
		c.errorAtPrev(msgInvalidAssignTarget)
	}
}

func grouping(c *compiler, _ bool) {
	c.expression()
	c.consume(tokenRightParen, msgExpectRightParen)
}

func unary(c *compiler, _ bool) {
	op := c.prev.kind
	c.parsePrecedence(precUnary)
	switch op {
	case tokenMinus:
		c.emitOp(opNegate)
	case tokenBang:
		c.emitOp(opNot)
	}
}

func binary(c *compiler, _ bool) {
	op := c.prev.kind
	rule := ruleFor(op)
	c.parsePrecedence(rule.precedence + 1)
	switch op {
	case tokenPlus:
		c.emitOp(opAdd)
	case tokenMinus:
		c.emitOp(opSubtract)
	case tokenStar:
		c.emitOp(opMultiply)
	case tokenSlash:
		c.emitOp(opDivide)
	case tokenEqualEqual:
		c.emitOp(opEqual)
	case tokenBangEqual:
		c.emitOp(opEqual)
		c.emitOp(opNot)
	case tokenLess:
		c.emitOp(opLess)
	case tokenLessEqual:
		c.emitOp(opGreater)
		c.emitOp(opNot)
	case tokenGreater:
		c.emitOp(opGreater)
	case tokenGreaterEqual:
		c.emitOp(opLess)
		c.emitOp(opNot)
	}
}

func and_(c *compiler, _ bool) {
	endJump := c.emitJump(opJumpIfFalse)
	c.emitOp(opPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func or_(c *compiler, _ bool) {
	endJump := c.emitJump(opJumpIfTrue)
	c.emitOp(opPop)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func literal(c *compiler, _ bool) {
	switch c.prev.kind {
	case tokenNil:
		c.emitOp(opNil)
	case tokenTrue:
		c.emitOp(opTrue)
	case tokenFalse:
		c.emitOp(opFalse)
	}
}

func number(c *compiler, _ bool) {
	n, err := strconv.ParseFloat(c.prev.lexeme, 64)
	if err != nil {
		c.errorAtPrev("Invalid number literal.")
		return
	}
	c.emitConstant(numberValue(n))
}

func str(c *compiler, _ bool) {
	raw := c.prev.lexeme
	interior := raw[1 : len(raw)-1] // strip enclosing quotes
	decoded, err := decodeEscapes(interior)
	if err != nil {
		c.errorAtPrev(err.Error())
		return
	}
	obj := c.strings.intern(c.mem, decoded)
	c.emitConstant(objectValue(obj))
}

func variable(c *compiler, canAssign bool) {
	c.namedVariable(c.prev.lexeme, canAssign)
}

func (c *compiler) namedVariable(name string, canAssign bool) {
	slot, found := c.resolveLocal(name)

	if found {
		if canAssign && c.matchToken(tokenEqual) {
			c.expression()
			c.emitOp(opSetLocal)
			c.emitByte(byte(slot))
		} else {
			c.emitOp(opReadLocal)
			c.emitByte(byte(slot))
		}
		return
	}

	idx := c.globals.index(name)
	if canAssign && c.matchToken(tokenEqual) {
		c.expression()
		if !c.chunk.writeConstantOp(opSetGlobal, idx, c.prev.line) {
			c.errorAtPrev(msgConstantLimitExceeded)
		}
	} else {
		if !c.chunk.writeConstantOp(opReadGlobal, idx, c.prev.line) {
			c.errorAtPrev(msgConstantLimitExceeded)
		}
	}
}

// resolveLocal searches the locals stack from most recently added backward
// (spec.md §4.6). A match whose depth is still `none` means the variable is
// being read from within its own initializer, which is an error.
func (c *compiler) resolveLocal(name string) (slot int, found bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.name != name {
			continue
		}
		if l.depth == localDepthNone {
			c.trace("local", "resolve %q -> own initializer", name)
			c.errorAtPrev(msgOwnInitializer(name))
			return 0, true
		}
		c.trace("local", "resolve %q -> slot %d", name, i)
		return i, true
	}
	c.trace("local", "resolve %q -> global", name)
	return 0, false
}

//// Pratt rule table (spec.md §4.6/§9: "static table of function pointers")

var rules [tokenWhile + 1]parseRule

func ruleFor(kind tokenKind) parseRule {
	if int(kind) >= 0 && int(kind) < len(rules) {
		return rules[kind]
	}
	return parseRule{}
}

func init() {
	rules[tokenLeftParen] = parseRule{prefix: grouping}
	rules[tokenMinus] = parseRule{prefix: unary, infix: binary, precedence: precTerm}
	rules[tokenPlus] = parseRule{infix: binary, precedence: precTerm}
	rules[tokenSlash] = parseRule{infix: binary, precedence: precFactor}
	rules[tokenStar] = parseRule{infix: binary, precedence: precFactor}
	rules[tokenBang] = parseRule{prefix: unary}
	rules[tokenBangEqual] = parseRule{infix: binary, precedence: precEquality}
	rules[tokenEqualEqual] = parseRule{infix: binary, precedence: precEquality}
	rules[tokenGreater] = parseRule{infix: binary, precedence: precComparison}
	rules[tokenGreaterEqual] = parseRule{infix: binary, precedence: precComparison}
	rules[tokenLess] = parseRule{infix: binary, precedence: precComparison}
	rules[tokenLessEqual] = parseRule{infix: binary, precedence: precComparison}
	rules[tokenIdentifier] = parseRule{prefix: variable}
	rules[tokenString] = parseRule{prefix: str}
	rules[tokenNumber] = parseRule{prefix: number}
	rules[tokenAnd] = parseRule{infix: and_, precedence: precAnd}
	rules[tokenOr] = parseRule{infix: or_, precedence: precOr}
	rules[tokenFalse] = parseRule{prefix: literal}
	rules[tokenTrue] = parseRule{prefix: literal}
	rules[tokenNil] = parseRule{prefix: literal}
}
