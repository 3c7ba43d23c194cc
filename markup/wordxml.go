package markup

import (
	"html"
	"regexp"
	"strings"
)

// wordXMLRule removes one kind of WordprocessingML noise.
type wordXMLRule struct {
	name    string
	pattern *regexp.Regexp
}

// Element-level noise. Order matters: runs emptied by earlier rules are
// caught by the empty-run rules at the end.
var wordXMLRules = []wordXMLRule{
	{"comment", regexp.MustCompile(`(?s)<!--.*?-->`)},
	{"w:proofErr", regexp.MustCompile(`<w:proofErr\b[^>]*/>`)},
	{"w:bookmarkStart", regexp.MustCompile(`<w:bookmarkStart\b[^>]*/>`)},
	{"w:bookmarkEnd", regexp.MustCompile(`<w:bookmarkEnd\b[^>]*/>`)},
	{"w:lastRenderedPageBreak", regexp.MustCompile(`<w:lastRenderedPageBreak\s*/>`)},
	{"w:noProof", regexp.MustCompile(`<w:noProof\s*/>`)},
	{"w:lang", regexp.MustCompile(`<w:lang\b[^>]*/>`)},
	{"w:permStart", regexp.MustCompile(`<w:permStart\b[^>]*/>`)},
	{"w:permEnd", regexp.MustCompile(`<w:permEnd\b[^>]*/>`)},
	{"w:rPr", regexp.MustCompile(`<w:rPr>\s*</w:rPr>`)},
	{"w:r", regexp.MustCompile(`<w:r(?:\s[^>]*)?>\s*(?:<w:rPr>(?:\s*<w:[A-Za-z0-9]+\b[^>]*/>)*\s*</w:rPr>)?\s*</w:r>`)},
	{"w:r", regexp.MustCompile(`<w:r(?:\s[^>]*)?/>`)},
}

// Revision-tracking and editor-session attributes.
var wordXMLAttrNoise = regexp.MustCompile(`\s(?:w:rsid[A-Za-z]*|w14:paraId|w14:textId)="[^"]*"`)

// Text runs, whose whitespace is significant.
var wordXMLTextRun = regexp.MustCompile(`(?s)<w:t(?:\s[^>]*)?>.*?</w:t>`)

var wordXMLInterTagSpace = regexp.MustCompile(`>\s+<`)

// cleanWordXML removes WordprocessingML noise.
func cleanWordXML(src string) (string, *removals) {
	removed := newRemovals()

	out := wordXMLAttrNoise.ReplaceAllString(src, "")
	out = collapseOutsideText(out)

	for _, rule := range wordXMLRules {
		n := len(rule.pattern.FindAllStringIndex(out, -1))
		if n == 0 {
			continue
		}
		out = rule.pattern.ReplaceAllString(out, "")
		removed.add(rule.name, n)
	}

	return strings.TrimSpace(out), removed
}

// collapseOutsideText removes whitespace between tags everywhere except
// inside <w:t> elements.
func collapseOutsideText(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	last := 0
	for _, loc := range wordXMLTextRun.FindAllStringIndex(s, -1) {
		sb.WriteString(wordXMLInterTagSpace.ReplaceAllString(s[last:loc[0]], "><"))
		sb.WriteString(s[loc[0]:loc[1]])
		last = loc[1]
	}
	sb.WriteString(wordXMLInterTagSpace.ReplaceAllString(s[last:], "><"))
	return sb.String()
}

// wordXMLText returns the concatenated content of all text runs.
func wordXMLText(s string) string {
	var sb strings.Builder
	for _, m := range wordXMLTextRun.FindAllString(s, -1) {
		start := strings.IndexByte(m, '>')
		end := strings.LastIndex(m, "</w:t>")
		if start < 0 || end <= start {
			continue
		}
		sb.WriteString(html.UnescapeString(m[start+1 : end]))
	}
	return sb.String()
}
