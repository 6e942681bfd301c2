package loader

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/studykit/corpus/schema"
)

func (l *Loader) loadDOCX(ctx context.Context, path string) (*Result, error) {
	data, err := l.download(ctx, path)
	if err != nil {
		return nil, err
	}
	sections, err := extractDOCXSections(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	result := &Result{FileType: schema.FileTypeDOCX, PagesTotal: len(sections)}
	for i, section := range sections {
		result.Pages = append(result.Pages, RawPage{Text: section, Page: i + 1, Source: path})
	}
	return result, nil
}

// extractDOCXSections walks word/document.xml and splits the text on
// explicit page breaks. A document without page breaks is one section.
func extractDOCXSections(data []byte) ([]string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	var docFile *zip.File
	for _, f := range reader.File {
		if strings.EqualFold(f.Name, "word/document.xml") {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("word/document.xml not present")
	}
	rc, err := docFile.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return docxSectionsFromXML(rc), nil
}

func docxSectionsFromXML(r io.Reader) []string {
	dec := xml.NewDecoder(r)
	var sections []string
	var buf bytes.Buffer
	var lastWasNewline bool

	flush := func() {
		if text := strings.TrimSpace(buf.String()); text != "" {
			sections = append(sections, text)
		}
		buf.Reset()
		lastWasNewline = false
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t", "instrText":
				var text string
				if err := dec.DecodeElement(&text, &t); err == nil {
					buf.WriteString(text)
					lastWasNewline = false
				}
			case "tab":
				buf.WriteByte('\t')
				lastWasNewline = false
			case "br", "cr":
				if isPageBreak(t) {
					flush()
					continue
				}
				buf.WriteByte('\n')
				lastWasNewline = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p", "tr":
				if !lastWasNewline {
					buf.WriteByte('\n')
					lastWasNewline = true
				}
			case "tc":
				if !lastWasNewline {
					buf.WriteByte('\t')
					lastWasNewline = false
				}
			}
		}
	}
	flush()
	return sections
}

func isPageBreak(element xml.StartElement) bool {
	for _, attr := range element.Attr {
		if attr.Name.Local == "type" && attr.Value == "page" {
			return true
		}
	}
	return false
}
