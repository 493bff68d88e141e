package appium

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Bounds is an element's on-screen rectangle.
type Bounds struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Center returns the midpoint of the rectangle.
func (b Bounds) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// ParsedElement represents an element from page source XML.
// Handles both iOS and Android formats.
type ParsedElement struct {
	Bounds    Bounds
	Enabled   bool
	Displayed bool
	Clickable bool
	Depth     int
	Children  []*ParsedElement
	Parent    *ParsedElement

	// Android
	Text        string
	ResourceID  string
	ContentDesc string
	HintText    string
	ClassName   string

	// iOS
	Type             string // XCUIElementType
	Name             string // accessibility identifier
	Label            string // accessibility label
	Value            string
	PlaceholderValue string
}

// Texts returns the user-visible strings of the element for a platform.
func (e *ParsedElement) Texts(platform string) []string {
	if platform == "ios" {
		return []string{e.Label, e.Name, e.Value, e.PlaceholderValue}
	}
	return []string{e.Text, e.ContentDesc, e.HintText}
}

// ParsePageSource parses page source XML into a flat element list.
// Auto-detects iOS vs Android format and returns the platform name.
func ParsePageSource(xmlData string) ([]*ParsedElement, string, error) {
	isIOS := strings.Contains(xmlData, "XCUIElementType") ||
		strings.Contains(xmlData, "AppiumAUT")

	if isIOS {
		elements, err := parseTree(xmlData, "AppiumAUT", false, iosElement)
		if err == nil && len(elements) == 0 {
			err = fmt.Errorf("no elements found in page source")
		}
		return elements, "ios", err
	}

	elements, err := parseTree(xmlData, "hierarchy", true, androidElement)
	if err == nil && elements == nil {
		err = fmt.Errorf("invalid page source: no hierarchy element found")
	}
	return elements, "android", err
}

// parseTree decodes nested elements below the named root element. With
// requireRoot, elements outside the root are ignored and a nil slice means
// the root never appeared.
func parseTree(xmlData, root string, requireRoot bool, build func(xml.StartElement) *ParsedElement) ([]*ParsedElement, error) {
	decoder := xml.NewDecoder(strings.NewReader(xmlData))

	var (
		elements  []*ParsedElement
		foundRoot bool
		parse     func() (*ParsedElement, error)
	)

	parse = func() (*ParsedElement, error) {
		for {
			token, err := decoder.Token()
			if err != nil {
				return nil, err
			}
			switch t := token.(type) {
			case xml.StartElement:
				if t.Name.Local == root {
					foundRoot = true
					continue
				}
				elem := build(t)
				for {
					child, err := parse()
					if err != nil {
						return elem, err
					}
					if child == nil {
						break
					}
					elem.Children = append(elem.Children, child)
				}
				return elem, nil
			case xml.EndElement:
				return nil, nil
			}
		}
	}

	var parseErr error
	for {
		elem, err := parse()
		if elem != nil && (foundRoot || !requireRoot) {
			elements = append(elements, flattenElement(elem, 0)...)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				parseErr = err
			}
			break
		}
	}

	if parseErr != nil && len(elements) == 0 {
		return nil, parseErr
	}
	if requireRoot && !foundRoot {
		return nil, nil
	}
	if elements == nil {
		elements = []*ParsedElement{}
	}
	return elements, nil
}

func androidElement(t xml.StartElement) *ParsedElement {
	elem := &ParsedElement{ClassName: t.Name.Local, Displayed: true}
	for _, attr := range t.Attr {
		switch attr.Name.Local {
		case "text":
			elem.Text = attr.Value
		case "resource-id":
			elem.ResourceID = attr.Value
		case "content-desc":
			elem.ContentDesc = attr.Value
		case "hint":
			elem.HintText = attr.Value
		case "class":
			elem.ClassName = attr.Value
		case "bounds":
			elem.Bounds = parseBounds(attr.Value)
		case "enabled":
			elem.Enabled = attr.Value == "true"
		case "displayed":
			elem.Displayed = attr.Value != "false"
		case "clickable":
			elem.Clickable = attr.Value == "true"
		}
	}
	return elem
}

func iosElement(t xml.StartElement) *ParsedElement {
	elem := &ParsedElement{Type: t.Name.Local, Enabled: true, Displayed: true}
	for _, attr := range t.Attr {
		switch attr.Name.Local {
		case "type":
			elem.Type = attr.Value
		case "name":
			elem.Name = attr.Value
		case "label":
			elem.Label = attr.Value
		case "value":
			elem.Value = attr.Value
		case "placeholderValue":
			elem.PlaceholderValue = attr.Value
		case "enabled":
			elem.Enabled = attr.Value == "true"
		case "visible":
			elem.Displayed = attr.Value == "true"
		case "accessible":
			elem.Clickable = attr.Value == "true"
		case "x":
			elem.Bounds.X = atoi(attr.Value)
		case "y":
			elem.Bounds.Y = atoi(attr.Value)
		case "width":
			elem.Bounds.Width = atoi(attr.Value)
		case "height":
			elem.Bounds.Height = atoi(attr.Value)
		}
	}
	return elem
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

// flattenElement flattens a tree of elements into a list, setting depth and parent.
func flattenElement(elem *ParsedElement, depth int) []*ParsedElement {
	elem.Depth = depth
	result := []*ParsedElement{elem}
	for _, child := range elem.Children {
		child.Parent = elem
		result = append(result, flattenElement(child, depth+1)...)
	}
	return result
}

// parseBounds parses Android bounds string "[x1,y1][x2,y2]".
func parseBounds(s string) Bounds {
	s = strings.ReplaceAll(s, "][", ",")
	s = strings.Trim(s, "[]")
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Bounds{}
	}

	x1, y1 := atoi(parts[0]), atoi(parts[1])
	x2, y2 := atoi(parts[2]), atoi(parts[3])
	return Bounds{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// FindByText returns the displayed elements whose text matches. An exact
// search compares trimmed text case-insensitively; a partial search accepts
// substrings and regular expressions.
func FindByText(elements []*ParsedElement, platform, text string, partial bool) []*ParsedElement {
	var result []*ParsedElement
	for _, elem := range elements {
		if !elem.Displayed {
			continue
		}
		texts := elem.Texts(platform)
		if partial {
			if matchesText(text, texts...) {
				result = append(result, elem)
			}
			continue
		}
		for _, t := range texts {
			if t != "" && strings.EqualFold(strings.TrimSpace(t), strings.TrimSpace(text)) {
				result = append(result, elem)
				break
			}
		}
	}
	return result
}

// DeepestMatchingElement returns the most nested element of the list.
func DeepestMatchingElement(elements []*ParsedElement) *ParsedElement {
	if len(elements) == 0 {
		return nil
	}

	deepest := elements[0]
	for _, elem := range elements[1:] {
		if elem.Depth > deepest.Depth {
			deepest = elem
		}
	}
	return deepest
}

// GetClickableElement returns the element to tap on: the element itself when
// clickable, else its nearest clickable ancestor, else the element.
func GetClickableElement(elem *ParsedElement) *ParsedElement {
	if elem == nil {
		return nil
	}
	for cur := elem; cur != nil; cur = cur.Parent {
		if cur.Clickable {
			return cur
		}
	}
	return elem
}

func matchesText(pattern string, texts ...string) bool {
	if looksLikeRegex(pattern) {
		if re, err := regexp.Compile("(?i)" + pattern); err == nil {
			for _, text := range texts {
				if text == "" {
					continue
				}
				if re.MatchString(text) || re.MatchString(strings.ReplaceAll(text, "\n", " ")) {
					return true
				}
			}
			return false
		}
	}

	for _, text := range texts {
		if containsIgnoreCase(text, pattern) {
			return true
		}
	}
	return false
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// looksLikeRegex checks if text contains regex metacharacters.
// A standalone period (like in "example.com") is not treated as regex.
func looksLikeRegex(text string) bool {
	for i := 0; i < len(text); i++ {
		c := text[i]
		if i > 0 && text[i-1] == '\\' {
			continue
		}
		switch c {
		case '.':
			if i+1 < len(text) {
				next := text[i+1]
				if next == '*' || next == '+' || next == '?' {
					return true
				}
			}
		case '*', '+', '?', '[', ']', '{', '}', '|', '(', ')':
			return true
		case '^':
			if i == 0 {
				return true
			}
		case '$':
			if i == len(text)-1 {
				return true
			}
		}
	}
	return false
}
