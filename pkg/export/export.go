// Package export renders CRM collections as XLSX workbooks and stores them
// on disk or in an S3 bucket.
package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/golang-sql/civil"
	"github.com/jinzhu/inflection"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ekaya-inc/ekaya-crm/pkg/models"
	"github.com/ekaya-inc/ekaya-crm/pkg/rules"
)

// ContentType is the MIME type of the produced workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Entity names an exportable collection.
type Entity string

const (
	EntityEnterprise  Entity = "enterprise"
	EntityContact     Entity = "contact"
	EntityOpportunity Entity = "opportunity"
	EntityActivity    Entity = "activity"
)

// Entities lists every exportable collection.
var Entities = []Entity{EntityEnterprise, EntityContact, EntityOpportunity, EntityActivity}

// ParseEntity accepts the singular or plural entity name in any case.
func ParseEntity(s string) (Entity, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, e := range Entities {
		if name == string(e) || name == e.Plural() {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown entity %q", s)
}

// Plural returns the collection name, e.g. "opportunities".
func (e Entity) Plural() string {
	return inflection.Plural(string(e))
}

// SheetName returns the worksheet title, e.g. "Opportunities".
func (e Entity) SheetName() string {
	return cases.Title(language.English).String(e.Plural())
}

// FileName returns the workbook file name for an export taken on day.
func FileName(e Entity, day civil.Date) string {
	return fmt.Sprintf("%s-%s.xlsx", e.Plural(), day)
}

// table is a header row plus data rows.
type table struct {
	headers []string
	rows    [][]any
}

// The list operations an Exporter reads from. The services package
// implementations satisfy them.
type (
	EnterpriseLister interface {
		List(ctx context.Context, q rules.ListQuery) ([]models.Enterprise, error)
	}
	ContactLister interface {
		List(ctx context.Context, q rules.ContactQuery) ([]models.Contact, error)
	}
	OpportunityLister interface {
		List(ctx context.Context, q rules.OpportunityQuery) ([]models.Opportunity, error)
	}
	ActivityLister interface {
		List(ctx context.Context, q rules.ActivityQuery) ([]models.Activity, error)
	}
)

// Exporter builds workbooks from unfiltered entity lists.
type Exporter struct {
	enterprises   EnterpriseLister
	contacts      ContactLister
	opportunities OpportunityLister
	activities    ActivityLister
	logger        *zap.Logger
}

// NewExporter creates an Exporter.
func NewExporter(
	enterprises EnterpriseLister,
	contacts ContactLister,
	opportunities OpportunityLister,
	activities ActivityLister,
	logger *zap.Logger,
) *Exporter {
	return &Exporter{
		enterprises:   enterprises,
		contacts:      contacts,
		opportunities: opportunities,
		activities:    activities,
		logger:        logger.Named("export"),
	}
}

// Workbook builds a single-sheet workbook for entity. The caller must Close it.
func (x *Exporter) Workbook(ctx context.Context, entity Entity) (*excelize.File, error) {
	t, err := x.load(ctx, entity)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := fill(f, entity.SheetName(), t); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to build %s workbook: %w", entity.Plural(), err)
	}

	x.logger.Info("Built export workbook",
		zap.String("entity", string(entity)),
		zap.Int("rows", len(t.rows)))
	return f, nil
}

// Write streams the workbook for entity to w.
func (x *Exporter) Write(ctx context.Context, entity Entity, w io.Writer) error {
	f, err := x.Workbook(ctx, entity)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write %s workbook: %w", entity.Plural(), err)
	}
	return nil
}

// Bytes returns the encoded workbook for entity.
func (x *Exporter) Bytes(ctx context.Context, entity Entity) ([]byte, error) {
	f, err := x.Workbook(ctx, entity)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s workbook: %w", entity.Plural(), err)
	}
	return buf.Bytes(), nil
}

func (x *Exporter) load(ctx context.Context, entity Entity) (*table, error) {
	switch entity {
	case EntityEnterprise:
		list, err := x.enterprises.List(ctx, rules.ListQuery{})
		if err != nil {
			return nil, err
		}
		return enterpriseTable(list), nil
	case EntityContact:
		list, err := x.contacts.List(ctx, rules.ContactQuery{})
		if err != nil {
			return nil, err
		}
		return contactTable(list), nil
	case EntityOpportunity:
		list, err := x.opportunities.List(ctx, rules.OpportunityQuery{})
		if err != nil {
			return nil, err
		}
		return opportunityTable(list), nil
	case EntityActivity:
		list, err := x.activities.List(ctx, rules.ActivityQuery{})
		if err != nil {
			return nil, err
		}
		return activityTable(list), nil
	}
	return nil, fmt.Errorf("unknown entity %q", entity)
}

func fill(f *excelize.File, sheet string, t *table) error {
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}

	header := make([]any, len(t.headers))
	for i, h := range t.headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return err
	}

	for i, row := range t.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	last, err := excelize.ColumnNumberToName(len(t.headers))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", last, 20); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func enterpriseTable(list []models.Enterprise) *table {
	t := &table{headers: []string{"Name", "Sector", "Revenue", "Headcount", "Address", "Website"}}
	for _, e := range list {
		t.rows = append(t.rows, []any{e.Name, e.Sector, optional(e.Revenue), optional(e.Headcount), e.Address, e.Website})
	}
	return t
}

func contactTable(list []models.Contact) *table {
	t := &table{headers: []string{"Last name", "First name", "Title", "Email", "Phone", "Enterprise", "Primary"}}
	for _, c := range list {
		t.rows = append(t.rows, []any{c.LastName, c.FirstName, c.Title, c.Email, c.Phone, c.EnterpriseName, c.IsPrimary})
	}
	return t
}

func opportunityTable(list []models.Opportunity) *table {
	t := &table{headers: []string{"Title", "Enterprise", "Status", "Amount", "Probability", "Expected close", "Actual close"}}
	for _, o := range list {
		t.rows = append(t.rows, []any{
			o.Title, o.EnterpriseName, string(o.Status),
			optional(o.Amount), optional(o.Probability),
			date(o.ExpectedCloseDate), date(o.ActualCloseDate),
		})
	}
	return t
}

func activityTable(list []models.Activity) *table {
	t := &table{headers: []string{"Type", "Subject", "Due date", "Done", "Completed on", "Description"}}
	for _, a := range list {
		t.rows = append(t.rows, []any{
			string(a.Type), a.Subject, date(a.DueDate), a.IsDone, date(a.CompletedOn), a.Description,
		})
	}
	return t
}

// optional writes absent values as empty cells.
func optional[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

func date(d *civil.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}
