// Package docx renders generated resume text into an in-memory Word
// document. The writer emits the OOXML package by hand: the docx library the
// project already uses can only read or template existing documents, not
// build one with heading and list styles from scratch.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"unicode"
)

// MIMEType is the content type offered with the download.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Lines entirely upper-case and shorter than this render as headings.
const headingMaxLen = 50

// Render converts text into a .docx binary. Every input line maps to exactly
// one paragraph: ALL-CAPS lines under the threshold become level-1 headings,
// bullet-marked lines become list items, everything else (including blank
// lines) stays a plain paragraph.
func Render(text string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := map[string]string{
		"[Content_Types].xml":          contentTypesXML,
		"_rels/.rels":                  packageRelsXML,
		"word/_rels/document.xml.rels": documentRelsXML,
		"word/styles.xml":              stylesXML,
		"word/numbering.xml":           numberingXML,
		"word/document.xml":            buildDocumentXML(text),
	}

	// Fixed order keeps output deterministic.
	for _, name := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"word/_rels/document.xml.rels",
		"word/styles.xml",
		"word/numbering.xml",
		"word/document.xml",
	} {
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", name, err)
		}
		if _, err := w.Write([]byte(parts[name])); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close docx archive: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename derives the attachment name from the target region, e.g.
// "CareerFlow_USA.docx".
func Filename(region string) string {
	token := strings.FieldsFunc(region, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	suffix := "CV"
	if len(token) > 0 {
		suffix = token[0]
	}
	return "CareerFlow_" + suffix + ".docx"
}

func buildDocumentXML(text string) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		writeParagraph(&b, line)
	}

	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

func writeParagraph(b *strings.Builder, line string) {
	trimmed := strings.TrimSpace(line)
	switch {
	case isHeading(trimmed):
		b.WriteString(`<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr>`)
		writeRun(b, trimmed)
		b.WriteString(`</w:p>`)
	case isBullet(trimmed):
		b.WriteString(`<w:p><w:pPr><w:pStyle w:val="ListParagraph"/><w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr></w:pPr>`)
		writeRun(b, stripBullet(trimmed))
		b.WriteString(`</w:p>`)
	default:
		b.WriteString(`<w:p>`)
		if line != "" {
			writeRun(b, line)
		}
		b.WriteString(`</w:p>`)
	}
}

func writeRun(b *strings.Builder, text string) {
	b.WriteString(`<w:r><w:t xml:space="preserve">`)
	_ = xml.EscapeText(b, []byte(text))
	b.WriteString(`</w:t></w:r>`)
}

func isHeading(line string) bool {
	if line == "" || len(line) >= headingMaxLen {
		return false
	}
	hasLetter := false
	for _, r := range line {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

func isBullet(line string) bool {
	return strings.HasPrefix(line, "- ") ||
		strings.HasPrefix(line, "* ") ||
		strings.HasPrefix(line, "• ") ||
		line == "-" || line == "*" || line == "•"
}

func stripBullet(line string) string {
	for _, marker := range []string{"- ", "* ", "• ", "-", "*", "•"} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(strings.TrimPrefix(line, marker))
		}
	}
	return line
}
