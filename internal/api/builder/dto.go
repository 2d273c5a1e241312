package builder

import (
	"time"

	"layout-builder/internal/domain/elements"
	"layout-builder/internal/domain/layout"
	"layout-builder/internal/domain/samples"
)

// Separator of the legacy admin wire format.
const LegacySeparator = "[(=>)]"

// ---------- requests

type CreateLayoutRequest struct {
	Name string `json:"name" binding:"required"`
	// Start from a built-in sample or from a copy of another layout. Both
	// empty starts from scratch.
	Sample   string `json:"sample"`
	Template string `json:"template"`
}

type SaveLayoutRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	// Fields is the whole editor form, urlencoded, in display order.
	Fields string `json:"fields"`
}

type AddSectionRequest struct {
	Label string `json:"label"`
}

type AddElementRequest struct {
	Type string `json:"type" binding:"required"`
}

type AddBlockRequest struct {
	Type string `json:"type" binding:"required"`
}

// DuplicateRequest carries the fields of the node being copied, as the
// editor currently shows them.
type DuplicateRequest struct {
	Fields string `json:"fields" binding:"required"`
}

type MoveElementRequest struct {
	Section  string `json:"section" binding:"required"`
	Position *int   `json:"position"`
	Fields   string `json:"fields"`
}

type MoveBlockRequest struct {
	ElementID  string `json:"element_id" binding:"required"`
	FromColumn int    `json:"from_column" binding:"required"`
	ToColumn   int    `json:"to_column" binding:"required"`
	Position   *int   `json:"position"`
	Fields     string `json:"fields"`
}

type ApplyTemplateRequest struct {
	Sample   string `json:"sample"`
	Template string `json:"template"`
}

// ---------- responses
//
// Field order in each response is the order the legacy client reads them
// in. Legacy() returns the same values for the delimited wire format.

type legacyResponse interface {
	Legacy() []string
}

type LayoutSummaryDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ListLayoutsResponse struct {
	Layouts []LayoutSummaryDTO `json:"layouts"`
}

type CreateLayoutResponse struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

func (r CreateLayoutResponse) Legacy() []string { return []string{r.ID, r.Slug} }

type LayoutResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Slug     string          `json:"slug"`
	Versions layout.Versions `json:"versions"`
	Markup   string          `json:"markup"`
	Fields   string          `json:"fields"`
}

type SaveLayoutResponse struct {
	Message string `json:"message"`
	Slug    string `json:"slug"`
}

func (r SaveLayoutResponse) Legacy() []string { return []string{r.Message, r.Slug} }

type StatusResponse struct {
	Status string `json:"status"`
}

func (r StatusResponse) Legacy() []string { return []string{r.Status} }

type SectionResponse struct {
	SectionID string `json:"section_id"`
	Markup    string `json:"markup"`
}

func (r SectionResponse) Legacy() []string { return []string{r.SectionID, r.Markup} }

type ElementResponse struct {
	ElementID string `json:"element_id"`
	Markup    string `json:"markup"`
}

func (r ElementResponse) Legacy() []string { return []string{r.ElementID, r.Markup} }

type BlockResponse struct {
	BlockID string `json:"block_id"`
	Markup  string `json:"markup"`
}

func (r BlockResponse) Legacy() []string { return []string{r.BlockID, r.Markup} }

type MoveElementResponse struct {
	ElementID string `json:"element_id"`
	Markup    string `json:"markup"`
	Fields    string `json:"fields"`
}

func (r MoveElementResponse) Legacy() []string { return []string{r.ElementID, r.Markup, r.Fields} }

type MoveBlockResponse struct {
	BlockID string `json:"block_id"`
	Markup  string `json:"markup"`
	Fields  string `json:"fields"`
}

func (r MoveBlockResponse) Legacy() []string { return []string{r.BlockID, r.Markup, r.Fields} }

type TemplateResponse struct {
	Markup string `json:"markup"`
	Styles string `json:"styles"`
}

func (r TemplateResponse) Legacy() []string { return []string{r.Markup, r.Styles} }

type ClearResponse struct {
	Message string `json:"message"`
	Markup  string `json:"markup"`
}

func (r ClearResponse) Legacy() []string { return []string{r.Message, r.Markup} }

type CatalogResponse struct {
	Elements []elements.Spec  `json:"elements"`
	Blocks   []elements.Spec  `json:"blocks"`
	Samples  []samples.Sample `json:"samples"`
}
