// Package document extracts plain text from user-uploaded files so it can
// be injected into a chat turn. Supported types are .txt, .pdf and .docx;
// long documents are truncated with a visible marker. Failures are returned
// as descriptive in-band text, never as Go errors, so the result can always
// be placed in the input box.
package document

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/simplifiedchinese"
)

const (
	// maxPDFPages caps how many PDF pages are extracted.
	maxPDFPages = 10

	// maxDocxChars caps extracted .docx text length.
	maxDocxChars = 5000

	pdfTruncationMarker  = "\n... (文档较长，只显示前10页) ..."
	docxTruncationMarker = "\n... (文档较长，只显示部分内容) ..."
)

// Extract returns the text content of the file at path, dispatching on its
// extension. Unsupported types and extraction failures yield descriptive
// strings rather than errors.
func Extract(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt":
		return extractTxt(path)
	case ".pdf":
		return extractPDF(path)
	case ".docx":
		return extractDocx(path)
	default:
		return fmt.Sprintf("不支持的文件类型: %s", ext)
	}
}

// extractTxt reads the file as UTF-8, falling back to GBK when the content
// is not valid UTF-8.
func extractTxt(path string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("提取文本时出错: %v", err)
	}
	if utf8.Valid(raw) {
		return string(raw)
	}
	decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(raw)
	if err != nil {
		return fmt.Sprintf("提取文本时出错: %v", err)
	}
	return string(decoded)
}

func extractPDF(path string) string {
	f, r, err := pdf.Open(path)
	if err != nil {
		return fmt.Sprintf("提取文本时出错: %v", err)
	}
	defer f.Close()

	var b strings.Builder
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return fmt.Sprintf("提取文本时出错: %v", err)
		}
		b.WriteString(text)
		b.WriteString("\n")
		if i >= maxPDFPages && numPages > maxPDFPages {
			b.WriteString(pdfTruncationMarker)
			break
		}
	}
	return b.String()
}

func extractDocx(path string) string {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Sprintf("提取文本时出错: %v", err)
	}
	defer zr.Close()

	var docXML []byte
	for _, zf := range zr.File {
		if zf.Name == "word/document.xml" {
			rc, err := zf.Open()
			if err != nil {
				return fmt.Sprintf("提取文本时出错: %v", err)
			}
			docXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return fmt.Sprintf("提取文本时出错: %v", err)
			}
			break
		}
	}
	if docXML == nil {
		return fmt.Sprintf("提取文本时出错: %s 中缺少 word/document.xml", filepath.Base(path))
	}

	paragraphs, err := parseDocxParagraphs(docXML)
	if err != nil {
		return fmt.Sprintf("提取文本时出错: %v", err)
	}

	var b strings.Builder
	for _, p := range paragraphs {
		b.WriteString(p)
		b.WriteString("\n")
		if b.Len() > maxDocxChars {
			b.WriteString(docxTruncationMarker)
			break
		}
	}
	return b.String()
}

// parseDocxParagraphs walks the WordprocessingML token stream and collects
// the text of each w:p element in document order.
func parseDocxParagraphs(docXML []byte) ([]string, error) {
	dec := xml.NewDecoder(strings.NewReader(string(docXML)))
	var paragraphs []string
	var current strings.Builder
	inParagraph := false
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("document: parse docx xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				current.Reset()
			case "t":
				inText = inParagraph
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if inParagraph {
					paragraphs = append(paragraphs, current.String())
					inParagraph = false
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}
