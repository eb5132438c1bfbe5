package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	docxDefaultPart  = "word/document.xml"
	contentTypesPart = "[Content_Types].xml"
	docxMainType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

var (
	// Both attribute orders occur in the wild.
	docxPartRe = []*regexp.Regexp{
		regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainType) + `"`),
		regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainType) + `"[^>]+PartName="([^"]+)"`),
	}
	slideRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

	wordRules = textRules{
		text:      map[string]bool{"t": true},
		paragraph: map[string]bool{"p": true},
		inline:    map[string]string{"tab": "\t", "br": "\n"},
	}
)

// extractDOCX reads the main document part named in [Content_Types].xml,
// falling back to word/document.xml.
func extractDOCX(content []byte) (string, error) {
	zr, err := openZip(content, "DOCX")
	if err != nil {
		return "", err
	}
	part := docxDefaultPart
	types, err := readPart(zr, contentTypesPart)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	for _, re := range docxPartRe {
		if m := re.FindSubmatch(types); m != nil {
			part = strings.TrimPrefix(string(m[1]), "/")
			break
		}
	}
	doc, err := readPart(zr, part)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	if doc == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", part)
	}
	return xmlText(doc, wordRules)
}

// extractPPTX reads every slide in slide-number order, one paragraph per line.
func extractPPTX(content []byte) (string, error) {
	zr, err := openZip(content, "PPTX")
	if err != nil {
		return "", err
	}
	type slide struct {
		n    int
		name string
	}
	var slides []slide
	for _, f := range zr.File {
		if m := slideRe.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			slides = append(slides, slide{n: n, name: f.Name})
		}
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	var parts []string
	for _, s := range slides {
		data, err := readPart(zr, s.name)
		if err != nil {
			return "", fmt.Errorf("extract PPTX: %w", err)
		}
		text, err := xmlText(data, wordRules)
		if err != nil {
			return "", fmt.Errorf("extract PPTX: %s: %w", s.name, err)
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}
