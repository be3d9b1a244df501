package scraper

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	apperrors "github.com/abitbot/itmo-tgbot-go/internal/errors"
)

// academicPlanRe finds the academic plan document URL in the program page.
// The page embeds its props as JSON, the plan URL sits under the
// "academic_plan" key.
var academicPlanRe = regexp.MustCompile(`"academic_plan"\s*:\s*"([^"]+)"`)

// ProgramDocument is a fetched academic plan: the raw PDF bytes plus the
// display name resolved from the program page.
type ProgramDocument struct {
	Name string
	PDF  []byte
}

// FetchProgram downloads a program's academic plan document.
// fallbackName is used when the page exposes no usable heading; the
// document itself may still override the name during parsing.
func (c *Client) FetchProgram(ctx context.Context, pageURL, fallbackName string) (*ProgramDocument, error) {
	page, err := c.GetBody(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch program page: %w", err)
	}

	m := academicPlanRe.FindSubmatch(page)
	if m == nil {
		return nil, fmt.Errorf("%w at %s", apperrors.ErrAcademicPlanNotFound, pageURL)
	}
	planURL := unescapeJSONString(string(m[1]))

	name := fallbackName
	if title := pageTitle(page); title != "" {
		name = title
	}

	pdf, err := c.GetBody(ctx, planURL)
	if err != nil {
		return nil, fmt.Errorf("fetch academic plan: %w", err)
	}

	return &ProgramDocument{Name: name, PDF: pdf}, nil
}

// pageTitle extracts the program heading from the page HTML.
func pageTitle(page []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

// unescapeJSONString undoes the escaping of a URL embedded in page JSON.
func unescapeJSONString(s string) string {
	s = strings.ReplaceAll(s, `\/`, `/`)
	s = strings.ReplaceAll(s, `&`, `&`)
	return s
}
