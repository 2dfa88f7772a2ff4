package html

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/atom"
)

// TokenType enumerates the kinds of token the Tokenizer emits.
type TokenType int

const (
	// EOFToken is returned once the input is exhausted.
	EOFToken TokenType = iota
	TextToken
	StartTagToken
	EndTagToken
	CommentToken
	DoctypeToken
)

// isRawTextElement reports whether name never decodes entities and never
// tokenizes nested markup, running verbatim until the matching end tag
// (spec.md §4.2, "RawText (entered for <script>/<style>)"). Classification
// goes through golang.org/x/net/html/atom's static tag table rather than a
// hand-rolled map; atom's table is compile-time static, so no lazy
// initialization is involved (SPEC_FULL.md §3).
func isRawTextElement(name string) bool {
	switch atom.Lookup([]byte(name)) {
	case atom.Script, atom.Style:
		return true
	}
	return false
}

// isRCDATAElement reports whether name decodes entities but does not
// tokenize nested markup, same as raw text except for entity handling.
// Supplemented per SPEC_FULL.md §6 from original_source, since HTML5
// <textarea>/<title> are RCDATA, not raw text, and no spec.md Non-goal
// excludes them.
func isRCDATAElement(name string) bool {
	switch atom.Lookup([]byte(name)) {
	case atom.Textarea, atom.Title:
		return true
	}
	return false
}

// isVoidElement reports whether name is in the closed set of elements that
// never push onto the open element stack (spec.md §4.3).
func isVoidElement(name string) bool {
	switch atom.Lookup([]byte(name)) {
	case atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr,
		atom.Img, atom.Input, atom.Link, atom.Meta, atom.Param,
		atom.Source, atom.Track, atom.Wbr:
		return true
	}
	return false
}

// Tokenizer converts HTML source text into a stream of Tokens. It is
// synchronous and pull-based (Next, then the TagName/Attrs/SelfClosing/Text
// accessors), mirroring the golang.org/x/net/html
// Tokenizer API the teacher wraps, rather than the channel-driven
// state-function lexers elsewhere in the retrieval pack — spec.md §5
// forbids suspension points inside a single parsing call.
type Tokenizer struct {
	src string
	i   int

	diags *[]Diagnostic

	tt          TokenType
	tagName     string
	attrs       []Attribute
	selfClosing bool
	text        string

	// rawMode is the lowercase tag name of the raw-text/RCDATA element
	// currently being scanned, or "" when not in such a mode.
	rawMode   string
	rawIsRCD  bool
}

// NewTokenizer returns a Tokenizer over src, recording recoverable problems
// into diags.
func NewTokenizer(src string, diags *[]Diagnostic) *Tokenizer {
	return &Tokenizer{src: src, diags: diags}
}

func (z *Tokenizer) emit(kind DiagnosticKind, msg string) {
	if z.diags == nil {
		return
	}
	*z.diags = append(*z.diags, Diagnostic{Kind: kind, Message: msg, Offset: z.i})
}

// TagName returns the lower-cased tag name of the most recent Start/EndTag
// token.
func (z *Tokenizer) TagName() string { return z.tagName }

// Attrs returns the attributes of the most recent StartTag token, in
// first-occurrence source order with duplicates dropped.
func (z *Tokenizer) Attrs() []Attribute { return z.attrs }

// SelfClosing reports whether the most recent StartTag token used the
// "/>" syntax.
func (z *Tokenizer) SelfClosing() bool { return z.selfClosing }

// Text returns the decoded text of the most recent Text token, the raw body
// of the most recent Comment token, or the name of the most recent Doctype
// token.
func (z *Tokenizer) Text() string { return z.text }

func (z *Tokenizer) eof() bool { return z.i >= len(z.src) }

func (z *Tokenizer) peekByte() byte {
	if z.eof() {
		return 0
	}
	return z.src[z.i]
}

// Next scans and returns the next token's type; token details are available
// via TagName/Attrs/SelfClosing/Text until the next call to Next.
func (z *Tokenizer) Next() TokenType {
	z.attrs = nil
	z.selfClosing = false
	z.text = ""

	if z.eof() {
		return EOFToken
	}

	if z.rawMode != "" {
		return z.scanRawText()
	}

	if z.peekByte() == '<' {
		if t, handled := z.scanMarkup(); handled {
			return t
		}
	}
	return z.scanText()
}

// scanMarkup handles the TagOpen state: '<' followed by a tag name,
// '/', or '!'. It returns handled=false if '<' turns out to be stray text
// (e.g. "1 < 2"), in which case the caller falls through to scanText.
func (z *Tokenizer) scanMarkup() (TokenType, bool) {
	start := z.i
	j := z.i + 1
	if j >= len(z.src) {
		return 0, false
	}
	switch {
	case z.src[j] == '/':
		return z.scanEndTag(), true
	case z.src[j] == '!':
		return z.scanMarkupDeclaration(), true
	case isASCIILetter(z.src[j]):
		return z.scanStartTag(), true
	default:
		_ = start
		return 0, false
	}
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

// scanText implements the Data state: everything up to the next '<' (or a
// stray lone '<') is text, with entities decoded.
func (z *Tokenizer) scanText() TokenType {
	start := z.i
	for !z.eof() {
		if z.peekByte() == '<' {
			if _, handled := z.scanMarkupPeek(); handled {
				break
			}
		}
		z.advanceRune()
	}
	z.text = decodeEntities(strings.ToValidUTF8(z.src[start:z.i], "�"))
	return TextToken
}

// scanMarkupPeek reports whether the '<' at the current position begins
// real markup (so scanText should stop there) without consuming input.
func (z *Tokenizer) scanMarkupPeek() (TokenType, bool) {
	j := z.i + 1
	if j >= len(z.src) {
		return 0, false
	}
	if z.src[j] == '/' || z.src[j] == '!' || isASCIILetter(z.src[j]) {
		return 0, true
	}
	return 0, false
}

func (z *Tokenizer) advanceRune() {
	r, size := utf8.DecodeRuneInString(z.src[z.i:])
	if r == utf8.RuneError && size <= 1 {
		z.emit(InvalidUTF8, "invalid utf-8 sequence")
		z.i++
		return
	}
	z.i += size
}

// scanRawText implements the RawText state: content is copied verbatim
// (RCDATA decodes entities) until the matching "</tag" end tag.
func (z *Tokenizer) scanRawText() TokenType {
	tag := z.rawMode
	closeSeq := "</" + tag
	idx := indexFold(z.src[z.i:], closeSeq)
	var body string
	if idx < 0 {
		body = z.src[z.i:]
		z.i = len(z.src)
		z.emit(UnexpectedEOF, "unterminated raw text element <"+tag+">")
	} else {
		body = z.src[z.i : z.i+idx]
		z.i += idx
	}
	z.rawMode = ""
	if z.rawIsRCD {
		z.text = decodeEntities(body)
	} else {
		z.text = body
	}
	return TextToken
}

func indexFold(s, sub string) int {
	ls := strings.ToLower(s)
	lsub := strings.ToLower(sub)
	return strings.Index(ls, lsub)
}

// scanStartTag implements TagName/BeforeAttrName/AttrName/AfterAttrName/
// BeforeAttrValue/AttrValue*/SelfClosingStart.
func (z *Tokenizer) scanStartTag() TokenType {
	z.i++ // consume '<'
	start := z.i
	for !z.eof() && isTagNameChar(z.peekByte()) {
		z.i++
	}
	z.tagName = strings.ToLower(z.src[start:z.i])

	for {
		z.skipSpace()
		if z.eof() {
			z.emit(UnexpectedEOF, "unexpected eof in tag <"+z.tagName+">")
			break
		}
		switch z.peekByte() {
		case '>':
			z.i++
			z.afterStartTag()
			return StartTagToken
		case '/':
			z.i++
			z.skipSpace()
			if !z.eof() && z.peekByte() == '>' {
				z.i++
				z.selfClosing = true
				z.afterStartTag()
				return StartTagToken
			}
			// lone '/' inside a tag: ignore and continue scanning attrs.
			continue
		default:
			z.scanAttribute()
		}
	}
	z.afterStartTag()
	return StartTagToken
}

// afterStartTag enters raw-text/RCDATA mode if the just-opened tag requires
// it, unless it was self-closing (e.g. <script/>, which has no content).
func (z *Tokenizer) afterStartTag() {
	if z.selfClosing || isVoidElement(z.tagName) {
		return
	}
	if isRawTextElement(z.tagName) {
		z.rawMode, z.rawIsRCD = z.tagName, false
	} else if isRCDATAElement(z.tagName) {
		z.rawMode, z.rawIsRCD = z.tagName, true
	}
}

func isTagNameChar(b byte) bool {
	return isASCIILetter(b) || (b >= '0' && b <= '9') || b == '-' || b == ':' || b == '_'
}

func (z *Tokenizer) skipSpace() {
	for !z.eof() && isSpace(z.peekByte()) {
		z.i++
	}
}

// scanAttribute implements BeforeAttrName/AttrName/AfterAttrName/
// BeforeAttrValue/AttrValueDoubleQuoted/AttrValueSingleQuoted/
// AttrValueUnquoted.
func (z *Tokenizer) scanAttribute() {
	start := z.i
	for !z.eof() && !isSpace(z.peekByte()) && z.peekByte() != '=' && z.peekByte() != '>' && z.peekByte() != '/' {
		z.i++
	}
	name := strings.ToLower(z.src[start:z.i])
	if name == "" {
		// Malformed: a stray '=', '>' or similar with no name; consume one
		// byte to guarantee forward progress and recover.
		z.i++
		return
	}

	z.skipSpace()
	value := ""
	if !z.eof() && z.peekByte() == '=' {
		z.i++
		z.skipSpace()
		value = z.scanAttrValue()
	}

	for _, a := range z.attrs {
		if a.Name == name {
			z.emit(DuplicateAttribute, "duplicate attribute "+name)
			return
		}
	}
	z.attrs = append(z.attrs, Attribute{Name: name, Value: value})
}

func (z *Tokenizer) scanAttrValue() string {
	if z.eof() {
		return ""
	}
	switch z.peekByte() {
	case '"', '\'':
		quote := z.peekByte()
		z.i++
		start := z.i
		for !z.eof() && z.peekByte() != quote {
			z.i++
		}
		val := z.src[start:z.i]
		if !z.eof() {
			z.i++ // consume closing quote
		} else {
			z.emit(UnexpectedEOF, "unterminated attribute value")
		}
		return decodeEntities(val)
	default:
		start := z.i
		for !z.eof() && !isSpace(z.peekByte()) && z.peekByte() != '>' {
			z.i++
		}
		// Unquoted values are not entity-decoded by this implementation's
		// contract mirrors quoted values only per spec.md §4.2 ("quoted
		// attribute values"); unquoted values rarely contain references in
		// practice, so the raw text is kept as-is.
		return z.src[start:z.i]
	}
}

// scanEndTag implements EndTagOpen.
func (z *Tokenizer) scanEndTag() TokenType {
	z.i += 2 // consume "</"
	start := z.i
	for !z.eof() && isTagNameChar(z.peekByte()) {
		z.i++
	}
	z.tagName = strings.ToLower(z.src[start:z.i])
	z.skipSpace()
	for !z.eof() && z.peekByte() != '>' {
		z.i++
	}
	if !z.eof() {
		z.i++
	} else {
		z.emit(UnexpectedEOF, "unterminated end tag </"+z.tagName+">")
	}
	return EndTagToken
}

// scanMarkupDeclaration implements MarkupDeclarationOpen, dispatching to
// Comment, Doctype, or CDATA handling.
func (z *Tokenizer) scanMarkupDeclaration() TokenType {
	rest := z.src[z.i:]
	switch {
	case strings.HasPrefix(rest, "<!--"):
		return z.scanComment()
	case len(rest) >= 9 && strings.EqualFold(rest[:9], "<![CDATA["):
		return z.scanCDATA()
	case len(rest) >= 2 && strings.EqualFold(rest[:2], "<!") &&
		(len(rest) < 9 || !strings.EqualFold(rest[:9], "<!DOCTYPE")):
		// Unknown declaration (e.g. a raw "<!foo>"): treat as a comment body
		// per common tag-soup handling, recoverable.
		z.emit(UnterminatedComment, "unrecognized markup declaration")
		return z.scanBogusComment()
	default:
		return z.scanDoctype()
	}
}

// scanComment implements CommentStart/Comment/CommentEnd.
func (z *Tokenizer) scanComment() TokenType {
	z.i += len("<!--")
	start := z.i
	idx := strings.Index(z.src[z.i:], "-->")
	if idx < 0 {
		z.text = z.src[start:]
		z.i = len(z.src)
		z.emit(UnterminatedComment, "unterminated comment")
		return CommentToken
	}
	z.text = z.src[start : start+idx]
	z.i = start + idx + len("-->")
	return CommentToken
}

// scanBogusComment consumes an unrecognized "<!...>" declaration up to '>'.
func (z *Tokenizer) scanBogusComment() TokenType {
	z.i += 2
	start := z.i
	for !z.eof() && z.peekByte() != '>' {
		z.i++
	}
	z.text = z.src[start:z.i]
	if !z.eof() {
		z.i++
	}
	return CommentToken
}

// scanCDATA implements CDATA: content between "<![CDATA[" and "]]>" is
// emitted as a text token verbatim (no entity decoding, matching XML CDATA
// semantics).
func (z *Tokenizer) scanCDATA() TokenType {
	z.i += len("<![CDATA[")
	start := z.i
	idx := strings.Index(z.src[z.i:], "]]>")
	if idx < 0 {
		z.text = z.src[start:]
		z.i = len(z.src)
		z.emit(UnexpectedEOF, "unterminated CDATA section")
		return TextToken
	}
	z.text = z.src[start : start+idx]
	z.i = start + idx + len("]]>")
	return TextToken
}

// scanDoctype implements Doctype: "<!DOCTYPE html ...>".
func (z *Tokenizer) scanDoctype() TokenType {
	z.i += 2 // consume "<!"
	start := z.i
	for !z.eof() && z.peekByte() != '>' {
		z.i++
	}
	raw := strings.TrimSpace(z.src[start:z.i])
	raw = strings.TrimPrefix(raw, "DOCTYPE")
	raw = strings.TrimPrefix(raw, "doctype")
	z.text = strings.TrimSpace(raw)
	if !z.eof() {
		z.i++
	} else {
		z.emit(UnexpectedEOF, "unterminated doctype")
	}
	return DoctypeToken
}
