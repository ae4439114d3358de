package catalog

import (
	"fmt"
	"strings"
	"unicode"
)

// TokenType represents the type of a lexical token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError
	TokenIdent
	TokenString

	// Keywords
	TokenAlter
	TokenTable
	TokenAdd
	TokenDrop
	TokenIf
	TokenNot
	TokenExists
	TokenPartition
	TokenLocation
	TokenShow
	TokenPartitions

	// Operators
	TokenEq     // =
	TokenComma  // ,
	TokenLParen // (
	TokenRParen // )
)

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int // Position in input
}

// String returns the string representation of a TokenType.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return "ERROR"
	case TokenIdent:
		return "IDENT"
	case TokenString:
		return "STRING"
	case TokenAlter:
		return "ALTER"
	case TokenTable:
		return "TABLE"
	case TokenAdd:
		return "ADD"
	case TokenDrop:
		return "DROP"
	case TokenIf:
		return "IF"
	case TokenNot:
		return "NOT"
	case TokenExists:
		return "EXISTS"
	case TokenPartition:
		return "PARTITION"
	case TokenLocation:
		return "LOCATION"
	case TokenShow:
		return "SHOW"
	case TokenPartitions:
		return "PARTITIONS"
	case TokenEq:
		return "="
	case TokenComma:
		return ","
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	default:
		return "UNKNOWN"
	}
}

// keywords maps DDL keywords to their token types.
var keywords = map[string]TokenType{
	"ALTER":      TokenAlter,
	"TABLE":      TokenTable,
	"ADD":        TokenAdd,
	"DROP":       TokenDrop,
	"IF":         TokenIf,
	"NOT":        TokenNot,
	"EXISTS":     TokenExists,
	"PARTITION":  TokenPartition,
	"LOCATION":   TokenLocation,
	"SHOW":       TokenShow,
	"PARTITIONS": TokenPartitions,
}

// Lexer tokenizes partition DDL input.
type Lexer struct {
	input   string
	pos     int  // Current position in input
	readPos int  // Reading position (after current char)
	ch      byte // Current character
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar reads the next character and advances the position.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

// skipWhitespace skips whitespace characters.
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	startPos := l.pos
	var tok Token

	switch l.ch {
	case '=':
		tok = Token{Type: TokenEq, Literal: "=", Pos: startPos}
	case ',':
		tok = Token{Type: TokenComma, Literal: ",", Pos: startPos}
	case '(':
		tok = Token{Type: TokenLParen, Literal: "(", Pos: startPos}
	case ')':
		tok = Token{Type: TokenRParen, Literal: ")", Pos: startPos}
	case '\'':
		tok = l.readString()
	case 0:
		tok = Token{Type: TokenEOF, Literal: "", Pos: startPos}
	default:
		if isLetter(l.ch) || l.ch == '_' || isDigit(l.ch) {
			return l.readIdentifier()
		}
		tok = Token{Type: TokenError, Literal: string(l.ch), Pos: startPos}
	}

	l.readChar()
	return tok
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier() Token {
	startPos := l.pos
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' || l.ch == '-' || l.ch == '.' {
		l.readChar()
	}
	literal := l.input[start:l.pos]
	upper := strings.ToUpper(literal)

	// Check for keywords
	if tokType, ok := keywords[upper]; ok {
		return Token{Type: tokType, Literal: upper, Pos: startPos}
	}

	return Token{Type: TokenIdent, Literal: literal, Pos: startPos}
}

// readString reads a string literal enclosed in single quotes.
func (l *Lexer) readString() Token {
	startPos := l.pos
	l.readChar() // Skip opening quote
	start := l.pos

	for l.ch != '\'' && l.ch != 0 {
		l.readChar()
	}

	if l.ch == 0 {
		return Token{Type: TokenError, Literal: "unterminated string", Pos: startPos}
	}

	literal := l.input[start:l.pos]
	// Don't call readChar here - it will be called by NextToken
	return Token{Type: TokenString, Literal: literal, Pos: startPos}
}

// Tokenize returns all tokens in the input.
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			break
		}
	}
	return tokens
}

// isLetter returns true if the character is a letter.
func isLetter(ch byte) bool {
	return unicode.IsLetter(rune(ch))
}

// isDigit returns true if the character is a digit.
func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// ParseError represents a parsing error with location information.
type ParseError struct {
	Message  string
	Position int
	Token    Token
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at position %d: %s (got %q)", e.Position, e.Message, e.Token.Literal)
}

// Statement is a parsed catalog statement.
type Statement interface {
	statement()
}

// KeyValue is one dimension/value pair of a PARTITION clause, in
// statement order.
type KeyValue struct {
	Name  string
	Value string
}

// AlterPartitionStatement is an ALTER TABLE ADD/DROP PARTITION statement.
type AlterPartitionStatement struct {
	Table    string
	Drop     bool
	Guarded  bool // IF NOT EXISTS on add, IF EXISTS on drop
	Pairs    []KeyValue
	Location string // add only
}

func (*AlterPartitionStatement) statement() {}

// ShowPartitionsStatement is a SHOW PARTITIONS scan.
type ShowPartitionsStatement struct {
	Table string
}

func (*ShowPartitionsStatement) statement() {}

// Parser parses partition DDL statements.
type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token
}

// NewParser creates a new Parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	// Read two tokens to initialize curToken and peekToken
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses the input and returns a Statement.
func Parse(input string) (Statement, error) {
	return NewParser(input).ParseStatement()
}

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
}

// expect consumes the current token if it matches, otherwise errors.
func (p *Parser) expect(t TokenType) error {
	if p.curToken.Type != t {
		return &ParseError{
			Message:  fmt.Sprintf("expected %s", t.String()),
			Position: p.curToken.Pos,
			Token:    p.curToken,
		}
	}
	p.nextToken()
	return nil
}

// ParseStatement parses one catalog statement.
func (p *Parser) ParseStatement() (Statement, error) {
	switch p.curToken.Type {
	case TokenAlter:
		return p.parseAlterPartition()
	case TokenShow:
		return p.parseShowPartitions()
	default:
		return nil, &ParseError{
			Message:  "expected ALTER or SHOW",
			Position: p.curToken.Pos,
			Token:    p.curToken,
		}
	}
}

// parseAlterPartition parses
//
//	ALTER TABLE <t> ADD [IF NOT EXISTS] PARTITION (k='v',...) [LOCATION '<path>']
//	ALTER TABLE <t> DROP [IF EXISTS] PARTITION (k='v',...)
func (p *Parser) parseAlterPartition() (*AlterPartitionStatement, error) {
	stmt := &AlterPartitionStatement{}

	if err := p.expect(TokenAlter); err != nil {
		return nil, err
	}
	if err := p.expect(TokenTable); err != nil {
		return nil, err
	}

	if p.curToken.Type != TokenIdent {
		return nil, &ParseError{Message: "expected table name", Position: p.curToken.Pos, Token: p.curToken}
	}
	stmt.Table = p.curToken.Literal
	p.nextToken()

	switch p.curToken.Type {
	case TokenAdd:
		stmt.Drop = false
	case TokenDrop:
		stmt.Drop = true
	default:
		return nil, &ParseError{Message: "expected ADD or DROP", Position: p.curToken.Pos, Token: p.curToken}
	}
	p.nextToken()

	if p.curToken.Type == TokenIf {
		p.nextToken()
		if !stmt.Drop {
			if err := p.expect(TokenNot); err != nil {
				return nil, err
			}
		}
		if err := p.expect(TokenExists); err != nil {
			return nil, err
		}
		stmt.Guarded = true
	}

	if err := p.expect(TokenPartition); err != nil {
		return nil, err
	}
	if err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	for {
		if p.curToken.Type != TokenIdent {
			return nil, &ParseError{Message: "expected dimension name", Position: p.curToken.Pos, Token: p.curToken}
		}
		name := p.curToken.Literal
		p.nextToken()

		if err := p.expect(TokenEq); err != nil {
			return nil, err
		}

		if p.curToken.Type != TokenString {
			return nil, &ParseError{Message: "expected quoted value", Position: p.curToken.Pos, Token: p.curToken}
		}
		stmt.Pairs = append(stmt.Pairs, KeyValue{Name: name, Value: p.curToken.Literal})
		p.nextToken()

		if p.curToken.Type == TokenComma {
			p.nextToken()
			continue
		}
		break
	}

	if err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	if p.curToken.Type == TokenLocation {
		if stmt.Drop {
			return nil, &ParseError{Message: "DROP PARTITION does not take a location", Position: p.curToken.Pos, Token: p.curToken}
		}
		p.nextToken()
		if p.curToken.Type != TokenString {
			return nil, &ParseError{Message: "expected quoted location", Position: p.curToken.Pos, Token: p.curToken}
		}
		stmt.Location = p.curToken.Literal
		p.nextToken()
	}

	if p.curToken.Type != TokenEOF {
		return nil, &ParseError{Message: "unexpected trailing input", Position: p.curToken.Pos, Token: p.curToken}
	}

	return stmt, nil
}

// parseShowPartitions parses SHOW PARTITIONS <t>.
func (p *Parser) parseShowPartitions() (*ShowPartitionsStatement, error) {
	if err := p.expect(TokenShow); err != nil {
		return nil, err
	}
	if err := p.expect(TokenPartitions); err != nil {
		return nil, err
	}

	if p.curToken.Type != TokenIdent {
		return nil, &ParseError{Message: "expected table name", Position: p.curToken.Pos, Token: p.curToken}
	}
	stmt := &ShowPartitionsStatement{Table: p.curToken.Literal}
	p.nextToken()

	if p.curToken.Type != TokenEOF {
		return nil, &ParseError{Message: "unexpected trailing input", Position: p.curToken.Pos, Token: p.curToken}
	}

	return stmt, nil
}
