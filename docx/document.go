package docx

import (
	"encoding/xml"
	"errors"
	"io"
)

// documentXML represents the structure of word/document.xml
type documentXML struct {
	XMLName xml.Name `xml:"document"`
	Body    *bodyXML `xml:"body"`
}

// bodyXML represents the document body. Paragraphs and tables are kept
// in document order; content controls (w:sdt) and custom XML wrappers are
// flattened into the sequence.
type bodyXML struct {
	Elements []bodyElement
}

// bodyElement is either a paragraph or a table.
type bodyElement struct {
	Paragraph *paragraphXML
	Table     *tableXML
}

// UnmarshalXML decodes the body children in order.
func (b *bodyXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	elems, err := decodeBlocks(d)
	if err != nil {
		return err
	}
	b.Elements = elems
	return nil
}

// decodeBlocks reads block-level content until the end of the current
// element.
func decodeBlocks(d *xml.Decoder) ([]bodyElement, error) {
	var elems []bodyElement
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				var p paragraphXML
				if err := d.DecodeElement(&p, &t); err != nil {
					return nil, err
				}
				elems = append(elems, bodyElement{Paragraph: &p})
			case "tbl":
				var tbl tableXML
				if err := d.DecodeElement(&tbl, &t); err != nil {
					return nil, err
				}
				elems = append(elems, bodyElement{Table: &tbl})
			case "sdt", "sdtContent", "customXml":
				inner, err := decodeBlocks(d)
				if err != nil {
					return nil, err
				}
				elems = append(elems, inner...)
			default:
				if err := d.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			return elems, nil
		}
	}
}

// paragraphXML represents a paragraph element (<w:p>). Runs are collected
// in order, including runs nested in hyperlinks, tracked insertions and
// inline content controls.
type paragraphXML struct {
	Properties paragraphPropsXML
	Runs       []runXML
}

// UnmarshalXML decodes paragraph properties and runs in order.
func (p *paragraphXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "pPr" {
				if err := d.DecodeElement(&p.Properties, &t); err != nil {
					return err
				}
				continue
			}
			if err := decodeInline(d, t, &p.Runs); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

// decodeInline handles one inline child of a paragraph.
func decodeInline(d *xml.Decoder, t xml.StartElement, runs *[]runXML) error {
	switch t.Name.Local {
	case "r":
		var r runXML
		if err := d.DecodeElement(&r, &t); err != nil {
			return err
		}
		*runs = append(*runs, r)
		return nil
	case "hyperlink", "ins", "smartTag", "fldSimple", "sdt", "sdtContent", "customXml":
		for {
			tok, err := d.Token()
			if err != nil {
				return err
			}
			switch inner := tok.(type) {
			case xml.StartElement:
				if err := decodeInline(d, inner, runs); err != nil {
					return err
				}
			case xml.EndElement:
				return nil
			}
		}
	default:
		// Deleted text (w:del), properties and drawing anchors carry no
		// reading-order text.
		return d.Skip()
	}
}

// paragraphPropsXML represents paragraph properties (<w:pPr>).
type paragraphPropsXML struct {
	Style         styleRefXML       `xml:"pStyle"`
	NumPr         numberingPropsXML `xml:"numPr"`
	Justification justificationXML  `xml:"jc"`
	OutlineLvl    outlineLvlXML     `xml:"outlineLvl"`
}

// styleRefXML represents a style reference.
type styleRefXML struct {
	Val string `xml:"val,attr"`
}

// numberingPropsXML represents numbering properties for lists.
type numberingPropsXML struct {
	ILvl  valXML `xml:"ilvl"`
	NumID valXML `xml:"numId"`
}

// valXML is an element whose only content is a w:val attribute.
type valXML struct {
	Val string `xml:"val,attr"`
}

// justificationXML represents text justification.
type justificationXML struct {
	Val string `xml:"val,attr"` // left, center, right, both
}

// outlineLvlXML represents outline level.
type outlineLvlXML struct {
	Val string `xml:"val,attr"`
}

// runXML represents a text run (<w:r>). Content children are kept in
// order so that tabs and breaks land where they occur.
type runXML struct {
	Properties runPropsXML
	Content    []runContent
}

// runContent is one text-bearing child of a run.
type runContent struct {
	Kind string // t, tab, br, cr, sym, noBreakHyphen
	Text string
}

// UnmarshalXML decodes run properties and content in order.
func (r *runXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "rPr":
				if err := d.DecodeElement(&r.Properties, &t); err != nil {
					return err
				}
			case "t":
				var text textXML
				if err := d.DecodeElement(&text, &t); err != nil {
					return err
				}
				r.Content = append(r.Content, runContent{Kind: "t", Text: text.Value})
			case "tab", "br", "cr", "noBreakHyphen":
				r.Content = append(r.Content, runContent{Kind: t.Name.Local})
				if err := d.Skip(); err != nil {
					return err
				}
			case "AlternateContent":
				var ac alternateContentXML
				if err := d.DecodeElement(&ac, &t); err != nil {
					return err
				}
				for _, text := range ac.Fallback.Text {
					r.Content = append(r.Content, runContent{Kind: "t", Text: text.Value})
				}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

// Text returns the run text with tabs and breaks expanded.
func (r runXML) Text() string {
	var out []byte
	for _, c := range r.Content {
		switch c.Kind {
		case "t":
			out = append(out, c.Text...)
		case "tab":
			out = append(out, '\t')
		case "br", "cr":
			out = append(out, '\n')
		case "noBreakHyphen":
			out = append(out, '-')
		}
	}
	return string(out)
}

// alternateContentXML represents mc:AlternateContent for emoji fallbacks.
type alternateContentXML struct {
	Fallback fallbackXML `xml:"Fallback"`
}

// fallbackXML represents mc:Fallback containing text.
type fallbackXML struct {
	Text []textXML `xml:"r>t"`
}

// runPropsXML represents run properties (<w:rPr>).
type runPropsXML struct {
	Style     styleRefXML  `xml:"rStyle"`
	Bold      boolXML      `xml:"b"`
	Italic    boolXML      `xml:"i"`
	Underline underlineXML `xml:"u"`
	FontSize  valXML       `xml:"sz"`
	Caps      boolXML      `xml:"caps"`
}

// boolXML represents a toggle property. Presence without w:val means true.
type boolXML struct {
	XMLName xml.Name
	Val     string `xml:"val,attr"`
}

// Set reports whether the property is present.
func (b boolXML) Set() bool {
	return b.XMLName.Local != ""
}

// On reports whether the property is present and not switched off.
func (b boolXML) On() bool {
	return b.Set() && b.Val != "false" && b.Val != "0" && b.Val != "off"
}

// underlineXML represents underline style.
type underlineXML struct {
	XMLName xml.Name
	Val     string `xml:"val,attr"` // single, double, none, etc.
}

// Set reports whether the property is present.
func (u underlineXML) Set() bool {
	return u.XMLName.Local != ""
}

// On reports whether the underline is visible.
func (u underlineXML) On() bool {
	return u.Set() && u.Val != "none" && u.Val != "0" && u.Val != "false"
}

// textXML represents text content (<w:t>).
type textXML struct {
	Space string `xml:"space,attr"` // preserve
	Value string `xml:",chardata"`
}

// tableXML represents a table (<w:tbl>).
type tableXML struct {
	Properties tablePropsXML `xml:"tblPr"`
	Rows       []tableRowXML `xml:"tr"`
}

// tablePropsXML represents table properties.
type tablePropsXML struct {
	Style styleRefXML `xml:"tblStyle"`
}

// tableRowXML represents a table row (<w:tr>).
type tableRowXML struct {
	Properties rowPropsXML    `xml:"trPr"`
	Cells      []tableCellXML `xml:"tc"`
}

// rowPropsXML represents row properties.
type rowPropsXML struct {
	Header boolXML `xml:"tblHeader"` // repeat as header row
}

// tableCellXML represents a table cell (<w:tc>).
type tableCellXML struct {
	Properties cellPropsXML   `xml:"tcPr"`
	Paragraphs []paragraphXML `xml:"p"`
	Tables     []tableXML     `xml:"tbl"`
}

// cellPropsXML represents cell properties.
type cellPropsXML struct {
	GridSpan valXML    `xml:"gridSpan"`
	VMerge   vMergeXML `xml:"vMerge"`
}

// vMergeXML represents vertical merge.
type vMergeXML struct {
	XMLName xml.Name
	Val     string `xml:"val,attr"` // "restart" or empty (continue)
}

// continues reports whether the cell continues a vertical merge.
func (v vMergeXML) continues() bool {
	return v.XMLName.Local != "" && v.Val != "restart"
}

// Errors returned when the markup is not a usable WordprocessingML body.
var (
	ErrNoBody      = errors.New("docx: document has no body")
	ErrUnknownRoot = errors.New("docx: root element is neither w:document nor w:body")
)

// decodeBody decodes document.xml content, or a bare w:body fragment.
func decodeBody(r io.Reader) (*bodyXML, error) {
	d := xml.NewDecoder(r)
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil, ErrNoBody
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "document":
			var doc documentXML
			if err := d.DecodeElement(&doc, &start); err != nil {
				return nil, err
			}
			if doc.Body == nil {
				return nil, ErrNoBody
			}
			return doc.Body, nil
		case "body":
			var body bodyXML
			if err := d.DecodeElement(&body, &start); err != nil {
				return nil, err
			}
			return &body, nil
		default:
			return nil, ErrUnknownRoot
		}
	}
}
