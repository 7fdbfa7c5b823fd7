package report

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractLimit caps the text taken from one document so the prompt size
// stays bounded no matter how large the upload is.
const extractLimit = 3000

// ExtractFileContent pulls plain text out of an uploaded document for
// prompt embedding. Word and PDF files are parsed; plain text is read
// directly; anything else gets a bracketed marker instead of content.
// Extraction problems never fail the caller, they become markers too.
func ExtractFileContent(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return extractText(path)
	case ".docx":
		return extractDocx(path)
	case ".pdf":
		return extractPDF(path)
	case ".jpg", ".jpeg", ".png", ".gif":
		return "[이미지 파일 - 텍스트 추출 불가]"
	case ".xlsx", ".xls":
		return "[Excel 파일 - 현재 미지원 (Word/PDF만 지원)]"
	default:
		return extractText(path)
	}
}

func capText(s string) string {
	runes := []rune(s)
	if len(runes) > extractLimit {
		return string(runes[:extractLimit])
	}
	return s
}

func extractText(path string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("[파일 내용 읽기 실패: %v]", err)
	}
	return capText(string(raw))
}

// docx body schema, reduced to the paragraph and table text we need.
type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
		Tables     []struct {
			Rows []struct {
				Cells []struct {
					Paragraphs []docxParagraph `xml:"p"`
				} `xml:"tc"`
			} `xml:"tr"`
		} `xml:"tbl"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []struct {
		Text string `xml:"t"`
	} `xml:"r"`
}

func (p docxParagraph) text() string {
	var b strings.Builder
	for _, run := range p.Runs {
		b.WriteString(run.Text)
	}
	return strings.TrimSpace(b.String())
}

// extractDocx reads word/document.xml straight out of the docx zip
// container.
func extractDocx(path string) string {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Sprintf("[Word 파일 읽기 오류: %v]", err)
	}
	defer archive.Close()

	for _, entry := range archive.File {
		if entry.Name != "word/document.xml" {
			continue
		}
		src, err := entry.Open()
		if err != nil {
			return fmt.Sprintf("[Word 파일 읽기 오류: %v]", err)
		}
		defer src.Close()

		var doc docxDocument
		if err := xml.NewDecoder(src).Decode(&doc); err != nil {
			return fmt.Sprintf("[Word 파일 읽기 오류: %v]", err)
		}

		var lines []string
		for _, p := range doc.Body.Paragraphs {
			if text := p.text(); text != "" {
				lines = append(lines, text)
			}
		}
		for _, table := range doc.Body.Tables {
			for _, row := range table.Rows {
				for _, cell := range row.Cells {
					for _, p := range cell.Paragraphs {
						if text := p.text(); text != "" {
							lines = append(lines, "[표] "+text)
						}
					}
				}
			}
		}
		if len(lines) == 0 {
			return "[Word 파일이 비어있음]"
		}
		return capText(strings.Join(lines, "\n"))
	}
	return "[Word 파일이 비어있음]"
}

func extractPDF(path string) string {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return fmt.Sprintf("[PDF 파일 읽기 오류: %v]", err)
	}
	defer file.Close()

	content, err := reader.GetPlainText()
	if err != nil {
		return fmt.Sprintf("[PDF 파일 읽기 오류: %v]", err)
	}

	var b strings.Builder
	if _, err := io.Copy(&b, content); err != nil {
		return fmt.Sprintf("[PDF 파일 읽기 오류: %v]", err)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "[PDF 파일에서 텍스트 추출 실패]"
	}
	return capText(text)
}
