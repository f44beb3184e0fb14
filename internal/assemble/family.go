package assemble

import (
	"fmt"
	"strings"

	"github.com/kdocs/docuflow/internal/docx"
	"github.com/kdocs/docuflow/internal/doctype"
	"github.com/kdocs/docuflow/internal/tables"
)

var (
	memberWidths   = []int{1100, 2500, 2500, 3000, 900, 1000}
	domicileWidths = []int{2500, 7000}
)

const labelTableWidth = 2000

var memberFields = []string{"category", "fullName", "dateOfBirth", "residentRegistrationNumber", "sex", "originOfSurname"}

// RenderFamily lays out a family-relationship certificate. Missing fields
// render empty.
func RenderFamily(v any, lang doctype.Language) (*docx.Document, error) {
	data, err := tables.Normalize(v)
	if err != nil {
		return nil, fmt.Errorf("failed to read family document: %w", err)
	}
	labels := familyLabels[lang]
	doc := docx.New()

	doc.AddText(tables.String(data, "documentType"), 16, true, docx.AlignCenter)

	doc.AddSpacer()
	reg := docx.NewTable(1, 2)
	reg.Widths = domicileWidths
	reg.Cell(0, 0).SetText(labels.Domicile, 0, false, docx.AlignCenter)
	reg.Cell(0, 1).SetText(tables.String(data, "placeOfFamilyRegistration"), 0, false, docx.AlignCenter)
	doc.AddTable(reg)

	columns := familyColumns(tables.Strings(data, "columns"))

	doc.AddSpacer()
	registrant := memberTable([]map[string]any{tables.Map(data, "registrant")}, columns)
	doc.AddTable(registrant)

	doc.AddSpacer()
	label := docx.NewTable(1, 1)
	label.Widths = []int{labelTableWidth}
	label.Cell(0, 0).SetText(labels.FamilyDetails, 0, false, docx.AlignCenter)
	doc.AddTable(label)

	parents, spouses, children, others := partitionMembers(tables.List(data, "familyMembers"))

	// The parents table always carries the header row, with one blank data
	// row when there are no parents.
	doc.AddSpacer()
	if len(parents) == 0 {
		parents = []map[string]any{{}}
	}
	doc.AddTable(memberTable(parents, columns))

	for _, group := range [][]map[string]any{spouses, children, others} {
		if len(group) == 0 {
			continue
		}
		doc.AddSpacer()
		doc.AddTable(memberTable(group, nil))
	}

	familyFooter(doc, data, labels)
	return doc, nil
}

func familyColumns(columns []string) []string {
	out := make([]string, len(defaultFamilyColumns))
	copy(out, defaultFamilyColumns)
	for i := 0; i < len(out) && i < len(columns); i++ {
		out[i] = columns[i]
	}
	return out
}

// partitionMembers splits members by relation, keeping document order.
func partitionMembers(members []any) (parents, spouses, children, others []map[string]any) {
	for _, m := range members {
		member, ok := m.(map[string]any)
		if !ok {
			continue
		}
		switch relationOf(tables.String(member, "category")) {
		case relationParent:
			parents = append(parents, member)
		case relationSpouse:
			spouses = append(spouses, member)
		case relationChild:
			children = append(children, member)
		default:
			others = append(others, member)
		}
	}
	return parents, spouses, children, others
}

// memberTable renders one row per member, preceded by a header row when
// header is non-nil.
func memberTable(members []map[string]any, header []string) *docx.Table {
	first := 0
	if header != nil {
		first = 1
	}
	t := docx.NewTable(first+len(members), len(memberFields))
	t.Widths = memberWidths
	if header != nil {
		for c, h := range header {
			t.Cell(0, c).SetText(h, 0, false, docx.AlignCenter)
		}
	}
	for i, m := range members {
		for c, field := range memberFields {
			t.Cell(first+i, c).SetText(tables.String(m, field), 0, false, docx.AlignCenter)
		}
	}
	return t
}

func familyFooter(doc *docx.Document, data map[string]any, labels familyLabelSet) {
	remarks := tables.Strings(data, "remarks")
	remark := func(i int) string {
		if i < len(remarks) {
			return remarks[i]
		}
		return ""
	}

	doc.AddSpacer()
	if r := remark(0); r != "" {
		doc.AddText(r, 0, false, docx.AlignCenter)
	}
	doc.AddText(tables.String(data, "dateOfIssue"), 12, false, docx.AlignCenter)

	authority := tables.Map(data, "issuingAuthority")
	org := strings.TrimSpace(tables.String(authority, "organization") + " " + tables.String(authority, "authorizedOfficer"))
	doc.AddText(org, 13, true, docx.AlignCenter)

	if r := remark(1); r != "" {
		doc.AddParagraph(docx.Paragraph{
			Runs:        []docx.Run{{Text: r}},
			Align:       docx.AlignLeft,
			LineSpacing: 1,
		})
	}

	doc.AddSpacer()
	doc.AddParagraph(docx.Paragraph{
		Runs:       []docx.Run{{Text: labels.TimeOfIssue + " : " + tables.String(data, "timeOfIssue")}},
		Align:      docx.AlignRight,
		SpaceAfter: docx.Pt(0),
	})
	doc.AddParagraph(docx.Paragraph{
		Runs:        []docx.Run{{Text: labels.Applicant + " : " + tables.String(data, "applicant")}},
		Align:       docx.AlignRight,
		SpaceBefore: docx.Pt(0),
	})

	doc.AddSpacer()
	doc.AddParagraph(docx.Paragraph{
		Runs:       []docx.Run{{Text: labels.CertificateNumber + " : " + tables.String(data, "certificateNumber"), Size: 10}},
		Align:      docx.AlignLeft,
		SpaceAfter: docx.Pt(0),
	})

	for i := 2; i < len(remarks); i++ {
		doc.AddParagraph(docx.Paragraph{
			Runs:        []docx.Run{{Text: remarks[i], Size: 10}},
			Align:       docx.AlignLeft,
			LineSpacing: 1,
		})
	}
}
