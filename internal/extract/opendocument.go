package extract

import "fmt"

const odfContentPart = "content.xml"

var odfRules = textRules{
	text:      map[string]bool{"p": true, "h": true},
	paragraph: map[string]bool{"p": true, "h": true},
	inline:    map[string]string{"s": " ", "tab": "\t", "line-break": "\n"},
}

// extractOpenDocument handles text documents, presentations and spreadsheets,
// which all keep their body in content.xml.
func extractOpenDocument(content []byte) (string, error) {
	zr, err := openZip(content, "OpenDocument")
	if err != nil {
		return "", err
	}
	data, err := readPart(zr, odfContentPart)
	if err != nil {
		return "", fmt.Errorf("extract OpenDocument: %w", err)
	}
	if data == nil {
		return "", fmt.Errorf("extract OpenDocument: %s not found", odfContentPart)
	}
	return xmlText(data, odfRules)
}
