package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// zipOf builds an archive from name/content pairs.
func zipOf(t *testing.T, files ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for i := 0; i+1 < len(files); i += 2 {
		fw, err := w.Create(files[i])
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(files[i+1])); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func TestExtractBytes_plain(t *testing.T) {
	tests := []struct {
		name    string
		content string
		ext     string
		want    string
	}{
		{"text", "Hello world\nLine 2", ".txt", "Hello world\nLine 2"},
		{"markdown utf8", "caf\xc3\xa9", ".md", "café"},
		{"invalid utf8", "hello\x80world", ".TXT", "hello\uFFFDworld"},
		{"bom dropped", "\xef\xbb\xbfnotes", ".csv", "notes"},
		{"unknown extension", "raw content", ".xyz", "raw content"},
		{"no extension", "raw", "", "raw"},
	}
	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ExtractBytes([]byte(tt.content), tt.ext)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractBytes_unsupported(t *testing.T) {
	for _, ext := range []string{".png", ".JPG", ".mp4", ".zip"} {
		if _, err := NewExtractor().ExtractBytes([]byte{0x89, 'P', 'N', 'G'}, ext); !errors.Is(err, ErrUnsupported) {
			t.Errorf("%s: expected ErrUnsupported, got %v", ext, err)
		}
		if Supported(ext) {
			t.Errorf("Supported(%s) = true", ext)
		}
	}
	if !Supported(".pdf") || !Supported(".txt") {
		t.Error("documents should be supported")
	}
}

func TestExtractBytes_spreadsheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Year")
	f.SetCellValue("Sheet1", "B1", "Event")
	f.SetCellValue("Sheet1", "A2", "1868")
	f.SetCellValue("Sheet1", "B2", "Boshin War")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got, err := NewExtractor().ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Year\tEvent\n1868\tBoshin War" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_spreadsheetSheetHeadings(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "first")
	if _, err := f.NewSheet("Rulers"); err != nil {
		t.Fatal(err)
	}
	f.SetCellValue("Rulers", "A1", "Meiji")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := NewExtractor().ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatal(err)
	}
	if got != "# Sheet1\nfirst\n# Rulers\nMeiji" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docx(t *testing.T) {
	doc := `<w:document ` + wordNS + `><w:body>` +
		`<w:p w:rsidR="00A1"><w:r><w:t>The </w:t></w:r><w:r><w:t xml:space="preserve">Charter Oath</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Second</w:t><w:tab/><w:t>para</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	got, err := NewExtractor().ExtractBytes(zipOf(t, "word/document.xml", doc), ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "The Charter Oath\nSecond\tpara" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxContentTypes(t *testing.T) {
	tests := []struct {
		name     string
		override string
	}{
		{"part name first", `<Override PartName="/word/document2.xml" ContentType="` + docxMainType + `"/>`},
		{"content type first", `<Override ContentType="` + docxMainType + `" PartName="/word/document2.xml"/>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := zipOf(t,
				"[Content_Types].xml", `<Types>`+tt.override+`</Types>`,
				"word/document2.xml", `<w:document `+wordNS+`><w:body><w:p><w:r><w:t>From document2</w:t></w:r></w:p></w:body></w:document>`,
			)
			got, err := NewExtractor().ExtractBytes(content, ".docx")
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != "From document2" {
				t.Errorf("got %q", got)
			}
		})
	}
}

func TestExtractBytes_docxMissingPart(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes(zipOf(t, "other.xml", "<x/>"), ".docx"); err == nil {
		t.Error("expected error when the document part is missing")
	}
	if _, err := NewExtractor().ExtractBytes([]byte("not a zip"), ".docx"); err == nil {
		t.Error("expected error for non-zip content")
	}
}

func TestExtractBytes_pptxSlideOrder(t *testing.T) {
	slide := func(text string) string {
		return `<p:sld><p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>` + text + `</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
	}
	content := zipOf(t,
		"ppt/slides/slide10.xml", slide("Tenth"),
		"ppt/slides/slide2.xml", slide("Second"),
		"ppt/slides/slide1.xml", slide("First"),
		"ppt/slides/_rels/slide1.xml.rels", "<Relationships/>",
	)
	got, err := NewExtractor().ExtractBytes(content, ".pptx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "First\nSecond\nTenth" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_openDocument(t *testing.T) {
	content := `<office:document-content><office:body><office:text>` +
		`<text:h>Bakumatsu</text:h>` +
		`<text:p>Late <text:span>Edo</text:span><text:s/>period</text:p>` +
		`</office:text></office:body></office:document-content>`
	for _, ext := range []string{".odt", ".odp", ".ods"} {
		t.Run(ext, func(t *testing.T) {
			got, err := NewExtractor().ExtractBytes(zipOf(t, "content.xml", content), ext)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != "Bakumatsu\nLate Edo period" {
				t.Errorf("got %q", got)
			}
		})
	}
}

func TestExtract_file(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("File content"), 0600); err != nil {
		t.Fatal(err)
	}
	got, err := NewExtractor().Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "File content" {
		t.Errorf("got %q", got)
	}
	if _, err := NewExtractor().Extract(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
