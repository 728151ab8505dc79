package extractor

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"strings"

	dslipakpdf "github.com/dslipak/pdf"
	ledongthucpdf "github.com/ledongthuc/pdf"

	"genai-studio/chat-api/internal/infrastructure/logger"
)

// pdfStrategy is one independent way of pulling text out of a PDF. Strategies
// run in fixed order; the first non-empty result wins.
type pdfStrategy struct {
	name string
	fn   func(data []byte) (string, error)
}

var pdfStrategies = []pdfStrategy{
	{name: "ledongthuc", fn: pdfPlainText},
	{name: "dslipak", fn: pdfPageText},
	{name: "rawstream", fn: pdfRawStreamText},
}

func extractPDF(data []byte) (string, error) {
	log := logger.WithComponent("extractor")

	var lastErr error
	for _, strategy := range pdfStrategies {
		text, err := runPDFStrategy(strategy, data)
		if err != nil {
			log.Debug().Str("strategy", strategy.name).Err(err).Msg("pdf strategy failed")
			lastErr = err
			continue
		}
		if strings.TrimSpace(text) == "" {
			log.Debug().Str("strategy", strategy.name).Msg("pdf strategy returned empty text")
			continue
		}
		return text, nil
	}

	return "", &ExtractionError{Kind: KindUnreadable, Err: lastErr}
}

// runPDFStrategy isolates a strategy call. Both PDF readers descend from
// rsc.io/pdf and panic on some damaged inputs, so a recover is required to
// let the next strategy run.
func runPDFStrategy(strategy pdfStrategy, data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%s strategy panicked: %v", strategy.name, r)
		}
	}()
	return strategy.fn(data)
}

func pdfPlainText(data []byte) (string, error) {
	reader, err := ledongthucpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func pdfPageText(data []byte) (string, error) {
	reader, err := dslipakpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("no extractable page text")
	}
	return strings.Join(pages, "\n"), nil
}

// pdfRawStreamText is the last resort: inflate content streams and scan for
// text-show operators directly. Runs only after both libraries have failed,
// typically on files with a damaged xref table.
func pdfRawStreamText(data []byte) (string, error) {
	var out strings.Builder

	rest := data
	for {
		start := bytes.Index(rest, []byte("stream"))
		if start < 0 {
			break
		}
		block := rest[start+len("stream"):]
		block = bytes.TrimPrefix(block, []byte("\r\n"))
		block = bytes.TrimPrefix(block, []byte("\n"))

		end := bytes.Index(block, []byte("endstream"))
		if end < 0 {
			break
		}
		content := inflateStream(block[:end])
		if bytes.Contains(content, []byte("BT")) {
			scanTextOperators(content, &out)
		}
		rest = block[end+len("endstream"):]
	}

	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", fmt.Errorf("no text operators found in content streams")
	}
	return text, nil
}

func inflateStream(block []byte) []byte {
	reader, err := zlib.NewReader(bytes.NewReader(block))
	if err != nil {
		return block
	}
	defer reader.Close()

	inflated, err := io.ReadAll(reader)
	if err != nil && len(inflated) == 0 {
		return block
	}
	return inflated
}

// scanTextOperators collects parenthesised literal strings from a content
// stream. Escape sequences for parentheses and backslashes are honoured;
// anything else is passed through as-is.
func scanTextOperators(content []byte, out *strings.Builder) {
	depth := 0
	var current strings.Builder

	for i := 0; i < len(content); i++ {
		c := content[i]
		switch {
		case c == '\\' && depth > 0 && i+1 < len(content):
			i++
			switch content[i] {
			case '(', ')', '\\':
				current.WriteByte(content[i])
			case 'n':
				current.WriteByte('\n')
			}
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 && current.Len() > 0 {
				if writePrintable(out, current.String()) {
					out.WriteByte(' ')
				}
				current.Reset()
			}
		case depth > 0:
			current.WriteByte(c)
		case c == 'T' && i+1 < len(content) && (content[i+1] == '*' || content[i+1] == 'd' || content[i+1] == 'D'):
			out.WriteByte('\n')
		}
	}
}

func writePrintable(out *strings.Builder, s string) bool {
	wrote := false
	for _, r := range s {
		if r == '\n' || (r >= 0x20 && r < 0x7f) {
			out.WriteRune(r)
			wrote = true
		}
	}
	return wrote
}
