package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxPartBytes caps how much of a single zip member is read.
const maxPartBytes = 32 << 20

func openZip(content []byte, kind string) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract %s: not a zip: %w", kind, err)
	}
	return zr, nil
}

// readPart returns the named member, or nil when it is absent.
func readPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(io.LimitReader(rc, maxPartBytes))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, nil
}

// textRules says which elements hold text and which end a paragraph, by local name.
type textRules struct {
	text      map[string]bool
	paragraph map[string]bool
	// inline maps empty elements such as <text:s/> to the text they stand for.
	inline map[string]string
}

// xmlText collects character data inside text elements, one line per paragraph.
func xmlText(data []byte, rules textRules) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	var (
		out    strings.Builder
		line   strings.Builder
		inText int
	)
	flush := func() {
		if s := strings.TrimSpace(line.String()); s != "" {
			if out.Len() > 0 {
				out.WriteByte('\n')
			}
			out.WriteString(s)
		}
		line.Reset()
	}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if rules.text[t.Name.Local] {
				inText++
			}
			if s, ok := rules.inline[t.Name.Local]; ok {
				line.WriteString(s)
			}
		case xml.EndElement:
			if rules.text[t.Name.Local] && inText > 0 {
				inText--
			}
			if rules.paragraph[t.Name.Local] {
				flush()
			}
		case xml.CharData:
			if inText > 0 {
				line.Write(t)
			}
		}
	}
	flush()
	return out.String(), nil
}
