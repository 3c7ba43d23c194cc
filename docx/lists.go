package docx

import "strconv"

// ListType represents the type of list.
type ListType int

const (
	ListTypeUnordered ListType = iota // Bullet list
	ListTypeOrdered                   // Numbered list
)

// String returns the HTML list element for the type.
func (lt ListType) String() string {
	if lt == ListTypeOrdered {
		return "ol"
	}
	return "ul"
}

// NumberingResolver resolves numbering definitions from numbering.xml.
type NumberingResolver struct {
	abstractNums map[string]*abstractNumXML // abstractNumId -> definition
	numMappings  map[string]string          // numId -> abstractNumId
}

// NewNumberingResolver creates a resolver from parsed numbering.xml.
func NewNumberingResolver(numbering *numberingXML) *NumberingResolver {
	nr := &NumberingResolver{
		abstractNums: make(map[string]*abstractNumXML),
		numMappings:  make(map[string]string),
	}

	if numbering == nil {
		return nr
	}

	for i := range numbering.AbstractNums {
		an := &numbering.AbstractNums[i]
		nr.abstractNums[an.AbstractNumID] = an
	}

	for _, num := range numbering.Nums {
		nr.numMappings[num.NumID] = num.AbstractNumID.Val
	}

	return nr
}

// ResolveLevel returns the list type and start value for a numId and
// level. Without a numbering part every list is a bullet list.
func (nr *NumberingResolver) ResolveLevel(numID string, level int) (listType ListType, startAt int) {
	listType = ListTypeUnordered
	startAt = 1

	abstractID, ok := nr.numMappings[numID]
	if !ok {
		return
	}
	abstractNum, ok := nr.abstractNums[abstractID]
	if !ok {
		return
	}

	levelStr := strconv.Itoa(level)
	for _, lvl := range abstractNum.Levels {
		if lvl.ILvl != levelStr {
			continue
		}
		switch lvl.NumFmt.Val {
		case "decimal", "decimalZero", "lowerLetter", "upperLetter", "lowerRoman", "upperRoman", "ordinal":
			listType = ListTypeOrdered
		}
		if s, err := strconv.Atoi(lvl.Start.Val); err == nil {
			startAt = s
		}
		return
	}
	return
}

// IsListParagraph reports whether a numId marks a list item. A numId of
// "0" explicitly removes numbering inherited from the style.
func IsListParagraph(numID string) bool {
	return numID != "" && numID != "0"
}
