package html

import "strconv"

// entity is the named-character-reference table used to decode text and
// quoted attribute values. It covers the subset of HTML5 named references
// that the original Skyscraper decoder recognized, per SPEC_FULL.md §5 —
// not the full ~2200-entry HTML5 table, since spec.md's scope is scraping
// extraction, not round-trip-faithful re-serialization.
var entity = map[string]rune{
	"amp":     '&',
	"lt":      '<',
	"gt":      '>',
	"quot":    '"',
	"apos":    '\'',
	"nbsp":    ' ',
	"copy":    '©',
	"reg":     '®',
	"trade":   '™',
	"mdash":   '—',
	"ndash":   '–',
	"hellip":  '…',
	"lsquo":   '‘',
	"rsquo":   '’',
	"ldquo":   '“',
	"rdquo":   '”',
	"laquo":   '«',
	"raquo":   '»',
	"middot":  '·',
	"bull":    '•',
	"deg":     '°',
	"plusmn":  '±',
	"times":   '×',
	"divide":  '÷',
	"euro":    '€',
	"pound":   '£',
	"yen":     '¥',
	"cent":    '¢',
	"sect":    '§',
	"para":    '¶',
	"copysr":  '℗',
	"shy":     '­',
	"sbquo":   '‚',
	"bdquo":   '„',
	"dagger":  '†',
	"Dagger":  '‡',
	"permil":  '‰',
	"rarr":    '→',
	"larr":    '←',
	"uarr":    '↑',
	"darr":    '↓',
	"harr":    '↔',
	"infin":   '∞',
	"ne":      '≠',
	"le":      '≤',
	"ge":      '≥',
}

const replacementChar = '�'

// decodeCharRef decodes a single character reference starting right after
// '&' at s[i:]. It returns the decoded text, whether a reference was
// recognized at all (if not, '&' is literal), and the number of input bytes
// consumed from s[i:] (including any trailing ';').
func decodeCharRef(s string, i int) (decoded string, ok bool, consumed int) {
	n := len(s)
	if i >= n {
		return "", false, 0
	}
	if s[i] == '#' {
		j := i + 1
		if j < n && (s[j] == 'x' || s[j] == 'X') {
			k := j + 1
			start := k
			for k < n && isHexDigit(s[k]) {
				k++
			}
			if k == start {
				return "", false, 0
			}
			v, err := strconv.ParseInt(s[start:k], 16, 32)
			if err != nil {
				return "", false, 0
			}
			end := k
			if k < n && s[k] == ';' {
				end = k + 1
			}
			return string(sanitizeCodepoint(rune(v))), true, end - i
		}
		k := j
		start := k
		for k < n && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		if k == start {
			return "", false, 0
		}
		v, err := strconv.ParseInt(s[start:k], 10, 32)
		if err != nil {
			return "", false, 0
		}
		end := k
		if k < n && s[k] == ';' {
			end = k + 1
		}
		return string(sanitizeCodepoint(rune(v))), true, end - i
	}

	// Named reference: longest match terminated by ';', falling back to the
	// longest known prefix without a trailing ';' (browser-compatible
	// leniency for historical references like &amp without a semicolon).
	end := i
	for end < n && end-i < 32 && isNameChar(s[end]) {
		end++
	}
	if end < n && s[end] == ';' {
		if r, found := entity[s[i:end]]; found {
			return string(r), true, end - i + 1
		}
	}
	// Try progressively shorter prefixes for the no-semicolon legacy forms.
	for l := end - i; l > 0; l-- {
		if r, found := entity[s[i:i+l]]; found {
			return string(r), true, l
		}
	}
	return "", false, 0
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isNameChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func sanitizeCodepoint(r rune) rune {
	if r == 0 || r > 0x10FFFF || (r >= 0xD800 && r <= 0xDFFF) {
		return replacementChar
	}
	return r
}

// decodeEntities decodes all character references in s. Used for text nodes
// and quoted attribute values; RawText content is passed through untouched.
func decodeEntities(s string) string {
	i := 0
	amp := -1
	for j := 0; j < len(s); j++ {
		if s[j] == '&' {
			amp = j
			break
		}
	}
	if amp == -1 {
		return s
	}
	var b []byte
	b = append(b, s[:amp]...)
	i = amp
	for i < len(s) {
		if s[i] != '&' {
			b = append(b, s[i])
			i++
			continue
		}
		dec, ok, n := decodeCharRef(s, i+1)
		if !ok {
			b = append(b, '&')
			i++
			continue
		}
		b = append(b, dec...)
		i += 1 + n
	}
	return string(b)
}
